package podgen

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/radiofrance/podgen/internal/logger"
	k8sutils "github.com/radiofrance/podgen/pkg/kubernetes"
	"github.com/radiofrance/podgen/pkg/strutil"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	// ExecutorConfigPodOverride is the executor config key holding a pod override.
	ExecutorConfigPodOverride = "pod_override"
	// ExecutorConfigLegacy is the executor config key of the deprecated flat configuration.
	ExecutorConfigLegacy = "KubernetesExecutor"
)

// LegacyExecutorConfig is the deprecated flat executor configuration of a task.
type LegacyExecutorConfig struct {
	Image                   string            `mapstructure:"image"`
	Namespace               string            `mapstructure:"namespace"`
	ImagePullPolicy         string            `mapstructure:"image_pull_policy"`
	RequestMemory           string            `mapstructure:"request_memory"`
	RequestCPU              string            `mapstructure:"request_cpu"`
	RequestEphemeralStorage string            `mapstructure:"request_ephemeral_storage"`
	LimitMemory             string            `mapstructure:"limit_memory"`
	LimitCPU                string            `mapstructure:"limit_cpu"`
	LimitGPU                string            `mapstructure:"limit_gpu"`
	LimitEphemeralStorage   string            `mapstructure:"limit_ephemeral_storage"`
	NodeSelector            map[string]string `mapstructure:"node_selector"`
	Annotations             map[string]string `mapstructure:"annotations"`
	Labels                  map[string]string `mapstructure:"labels"`
	ServiceAccountName      string            `mapstructure:"service_account_name"`
	Volumes                 []map[string]any  `mapstructure:"volumes"`
	VolumeMounts            []map[string]any  `mapstructure:"volume_mounts"`
	Tolerations             []map[string]any  `mapstructure:"tolerations"`
	Env                     map[string]string `mapstructure:"env"`
	EnvSecrets              []string          `mapstructure:"env_secrets"`
}

// PodFromExecutorConfig extracts the pod override from the executor config of a task.
//
// The "pod_override" key may hold a *corev1.Pod, a nested mapping or a YAML document.
// Mappings are returned as unstructured objects: their shape is only checked when the pod
// is constructed. The deprecated "KubernetesExecutor" key is converted to a pod.
// Setting both keys is an ErrConfiguration. A config with neither returns nil.
func PodFromExecutorConfig(cfg map[string]any) (runtime.Object, error) {
	override, hasOverride := cfg[ExecutorConfigPodOverride]
	legacy, hasLegacy := cfg[ExecutorConfigLegacy]
	hasOverride = hasOverride && override != nil
	hasLegacy = hasLegacy && legacy != nil

	switch {
	case hasOverride && hasLegacy:
		return nil, fmt.Errorf("%w: can not have both a legacy and new executor_config object, "+
			"please delete the %s dict and only use the %s pod object",
			ErrConfiguration, ExecutorConfigLegacy, ExecutorConfigPodOverride)
	case hasOverride:
		return podOverrideObject(override)
	case hasLegacy:
		logger.Warnf("The %s executor config is deprecated, use %s instead",
			ExecutorConfigLegacy, ExecutorConfigPodOverride)
		return podFromLegacyConfig(legacy)
	default:
		return nil, nil //nolint:nilnil
	}
}

func podOverrideObject(override any) (runtime.Object, error) {
	switch value := override.(type) {
	case *corev1.Pod:
		return value, nil
	case corev1.Pod:
		return &value, nil
	case map[string]any:
		return &unstructured.Unstructured{Object: value}, nil
	case string:
		pod, err := k8sutils.DecodePodYAML(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		if pod == nil {
			return nil, nil //nolint:nilnil
		}
		return pod, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T into a pod override", ErrConfiguration, override)
	}
}

func podFromLegacyConfig(legacy any) (*corev1.Pod, error) {
	var cfg LegacyExecutorConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(legacy); err != nil {
		return nil, fmt.Errorf("%w: invalid %s executor config: %w", ErrConfiguration, ExecutorConfigLegacy, err)
	}
	return cfg.Pod()
}

// Pod converts the legacy configuration into a pod override with a single base container.
func (cfg LegacyExecutorConfig) Pod() (*corev1.Pod, error) {
	requests, err := resourceList(map[corev1.ResourceName]string{
		corev1.ResourceMemory:           cfg.RequestMemory,
		corev1.ResourceCPU:              cfg.RequestCPU,
		corev1.ResourceEphemeralStorage: cfg.RequestEphemeralStorage,
	})
	if err != nil {
		return nil, err
	}
	limits, err := resourceList(map[corev1.ResourceName]string{
		corev1.ResourceMemory:           cfg.LimitMemory,
		corev1.ResourceCPU:              cfg.LimitCPU,
		"nvidia.com/gpu":                cfg.LimitGPU,
		corev1.ResourceEphemeralStorage: cfg.LimitEphemeralStorage,
	})
	if err != nil {
		return nil, err
	}

	container := corev1.Container{
		Name:            BaseContainerName,
		Image:           cfg.Image,
		ImagePullPolicy: corev1.PullPolicy(cfg.ImagePullPolicy),
		Resources: corev1.ResourceRequirements{
			Requests: requests,
			Limits:   limits,
		},
	}
	for name, value := range cfg.Env {
		container.Env = append(container.Env, corev1.EnvVar{Name: name, Value: value})
	}
	sort.Slice(container.Env, func(i, j int) bool { return container.Env[i].Name < container.Env[j].Name })
	for _, secretName := range strutil.DedupeStrSlice(cfg.EnvSecrets) {
		container.EnvFrom = append(container.EnvFrom, corev1.EnvFromSource{
			SecretRef: &corev1.SecretEnvSource{
				LocalObjectReference: corev1.LocalObjectReference{Name: secretName},
			},
		})
	}
	if container.VolumeMounts, err = fromMaps[corev1.VolumeMount](cfg.VolumeMounts); err != nil {
		return nil, err
	}

	pod := &corev1.Pod{}
	pod.Namespace = cfg.Namespace
	pod.Labels = cfg.Labels
	pod.Annotations = cfg.Annotations
	pod.Spec.Containers = []corev1.Container{container}
	pod.Spec.NodeSelector = cfg.NodeSelector
	pod.Spec.ServiceAccountName = cfg.ServiceAccountName
	if pod.Spec.Volumes, err = fromMaps[corev1.Volume](cfg.Volumes); err != nil {
		return nil, err
	}
	if pod.Spec.Tolerations, err = fromMaps[corev1.Toleration](cfg.Tolerations); err != nil {
		return nil, err
	}
	return pod, nil
}

func resourceList(values map[corev1.ResourceName]string) (corev1.ResourceList, error) {
	var list corev1.ResourceList
	for name, value := range values {
		if value == "" {
			continue
		}
		quantity, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s quantity %q: %w", ErrConfiguration, name, value, err)
		}
		if list == nil {
			list = corev1.ResourceList{}
		}
		list[name] = quantity
	}
	return list, nil
}

// fromMaps converts API objects written as mappings (camelCase keys) into typed values.
func fromMaps[T any](items []map[string]any) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(item, &out[i]); err != nil {
			return nil, fmt.Errorf("%w: invalid %T: %w", ErrConfiguration, out[i], err)
		}
	}
	return out, nil
}
