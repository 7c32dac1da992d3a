package podgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/radiofrance/podgen/internal/logger"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

// LoadTemplate reads a pod template file (YAML or JSON).
//
// A missing file is not an error: a warning is logged and an empty pod is returned, so the
// template stays optional. A file that exists but doesn't describe a pod returns an error
// wrapping ErrDeserialization. Unknown fields are rejected and named in the error.
func LoadTemplate(path string) (*corev1.Pod, error) {
	pod, err := loadTemplate(path)
	if errors.Is(err, ErrMissingTemplate) {
		logger.Warnf("Pod template file %s does not exist, using an empty pod", path)
		return &corev1.Pod{}, nil
	}
	return pod, err
}

func loadTemplate(path string) (*corev1.Pod, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingTemplate, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read pod template %s: %w", path, err)
	}

	pod := &corev1.Pod{}
	if err := yaml.UnmarshalStrict(data, pod); err != nil {
		// A document that only fails strict decoding is well formed but carries fields
		// this pod API does not know, usually a template written for a newer cluster.
		if yaml.Unmarshal(data, &corev1.Pod{}) == nil {
			return nil, fmt.Errorf("%w %s: unsupported pod API fields: %w", ErrDeserialization, path, err)
		}
		return nil, fmt.Errorf("%w %s: malformed pod template: %w", ErrDeserialization, path, err)
	}
	if pod.Kind != "" && pod.Kind != "Pod" {
		return nil, fmt.Errorf("%w %s: expected kind Pod, got %s", ErrDeserialization, path, pod.Kind)
	}

	logger.Debugf("Loaded pod template %s", path)
	return pod, nil
}
