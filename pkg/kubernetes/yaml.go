package kubernetes

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// MergeObjectWithYaml unmarshalls the YAML from the yamlOverride argument into the provided object.
// The `obj` argument typically is a pointer to a kubernetes type (with `json` tags).
// Existing values inside the `obj` will be erased if the YAML explicitly overrides it.
// All values within the object that are not explicitly overridden will not be modified.
func MergeObjectWithYaml(obj any, yamlOverride string) error {
	if strings.TrimSpace(yamlOverride) == "" {
		return nil
	}

	decoder := yaml.NewYAMLOrJSONDecoder(strings.NewReader(yamlOverride), 1024)
	if err := decoder.Decode(obj); err != nil {
		return fmt.Errorf("invalid yaml override for type %T: %w", obj, err)
	}

	return nil
}

// DecodePodYAML decodes a YAML or JSON pod override. An empty document returns a nil pod.
func DecodePodYAML(doc string) (*corev1.Pod, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil //nolint:nilnil
	}

	pod := &corev1.Pod{}
	if err := MergeObjectWithYaml(pod, doc); err != nil {
		return nil, err
	}
	return pod, nil
}
