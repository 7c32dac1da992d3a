package podgen

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Config holds the settings of the podgen CLI, read from flags, PODGEN_* variables
// and the .podgen.yaml config file.
type Config struct {
	Namespace       string `mapstructure:"namespace"`
	Image           string `mapstructure:"image"`
	PodTemplateFile string `mapstructure:"pod_template_file"`
	WorkerID        string `mapstructure:"worker_id"`
	LogLevel        string `mapstructure:"log_level"`
}

// DefaultNamespace is used when neither the config nor the override set a namespace.
const DefaultNamespace = "default"

// Validate checks the configuration is usable to build pods.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PodTemplateFile) == "" && strings.TrimSpace(c.Image) == "" {
		return fmt.Errorf("%w: an image is required when no pod template file is set", ErrConfiguration)
	}
	return nil
}

// Generator returns a generator using the configured template file, or an empty base pod
// when no template is configured.
func (c Config) Generator() (*Generator, error) {
	if c.PodTemplateFile == "" {
		return NewGenerator(&corev1.Pod{}, "")
	}
	return NewGenerator(nil, c.PodTemplateFile)
}

// TargetNamespace returns the configured namespace, or DefaultNamespace.
func (c Config) TargetNamespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}
