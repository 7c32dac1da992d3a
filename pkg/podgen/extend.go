package podgen

import (
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// extender sets client's list field to base's elements followed by client's.
type extender[T any] func(base, client *T)

// concat appends client after base into a new slice. An empty side yields the other one.
func concat[E any](base, client []E) []E {
	if len(client) == 0 && (len(base) > 0 || client == nil) {
		return base
	}
	if len(base) == 0 {
		return client
	}
	out := make([]E, 0, len(base)+len(client))
	out = append(out, base...)
	return append(out, client...)
}

// List fields are keyed by their JSON name in the Kubernetes API.
var containerListFields = map[string]extender[corev1.Container]{
	"command":       func(b, c *corev1.Container) { c.Command = concat(b.Command, c.Command) },
	"args":          func(b, c *corev1.Container) { c.Args = concat(b.Args, c.Args) },
	"ports":         func(b, c *corev1.Container) { c.Ports = concat(b.Ports, c.Ports) },
	"envFrom":       func(b, c *corev1.Container) { c.EnvFrom = concat(b.EnvFrom, c.EnvFrom) },
	"env":           func(b, c *corev1.Container) { c.Env = concat(b.Env, c.Env) },
	"resizePolicy":  func(b, c *corev1.Container) { c.ResizePolicy = concat(b.ResizePolicy, c.ResizePolicy) },
	"volumeMounts":  func(b, c *corev1.Container) { c.VolumeMounts = concat(b.VolumeMounts, c.VolumeMounts) },
	"volumeDevices": func(b, c *corev1.Container) { c.VolumeDevices = concat(b.VolumeDevices, c.VolumeDevices) },
}

var specListFields = map[string]extender[corev1.PodSpec]{
	"volumes":        func(b, c *corev1.PodSpec) { c.Volumes = concat(b.Volumes, c.Volumes) },
	"initContainers": func(b, c *corev1.PodSpec) { c.InitContainers = concat(b.InitContainers, c.InitContainers) },
	"containers":     func(b, c *corev1.PodSpec) { c.Containers = concat(b.Containers, c.Containers) },
	"ephemeralContainers": func(b, c *corev1.PodSpec) {
		c.EphemeralContainers = concat(b.EphemeralContainers, c.EphemeralContainers)
	},
	"imagePullSecrets": func(b, c *corev1.PodSpec) {
		c.ImagePullSecrets = concat(b.ImagePullSecrets, c.ImagePullSecrets)
	},
	"tolerations":    func(b, c *corev1.PodSpec) { c.Tolerations = concat(b.Tolerations, c.Tolerations) },
	"hostAliases":    func(b, c *corev1.PodSpec) { c.HostAliases = concat(b.HostAliases, c.HostAliases) },
	"readinessGates": func(b, c *corev1.PodSpec) { c.ReadinessGates = concat(b.ReadinessGates, c.ReadinessGates) },
	"topologySpreadConstraints": func(b, c *corev1.PodSpec) {
		c.TopologySpreadConstraints = concat(b.TopologySpreadConstraints, c.TopologySpreadConstraints)
	},
	"schedulingGates": func(b, c *corev1.PodSpec) { c.SchedulingGates = concat(b.SchedulingGates, c.SchedulingGates) },
	"resourceClaims":  func(b, c *corev1.PodSpec) { c.ResourceClaims = concat(b.ResourceClaims, c.ResourceClaims) },
}

var objectMetaListFields = map[string]extender[metav1.ObjectMeta]{
	"finalizers": func(b, c *metav1.ObjectMeta) { c.Finalizers = concat(b.Finalizers, c.Finalizers) },
	"ownerReferences": func(b, c *metav1.ObjectMeta) {
		c.OwnerReferences = concat(b.OwnerReferences, c.OwnerReferences)
	},
	"managedFields": func(b, c *metav1.ObjectMeta) { c.ManagedFields = concat(b.ManagedFields, c.ManagedFields) },
}

// ExtendContainerField returns a copy of client where the list field is replaced by base's
// elements followed by client's. It fails with ErrTypeMismatch when field is not a list
// field of a container.
func ExtendContainerField(base, client *corev1.Container, field string) (*corev1.Container, error) {
	return extendField(base, client, field, "Container", containerListFields, (*corev1.Container).DeepCopy)
}

// ExtendSpecField is ExtendContainerField for pod specs.
func ExtendSpecField(base, client *corev1.PodSpec, field string) (*corev1.PodSpec, error) {
	return extendField(base, client, field, "PodSpec", specListFields, (*corev1.PodSpec).DeepCopy)
}

// ExtendObjectMetaField is ExtendContainerField for object metadata.
func ExtendObjectMetaField(base, client *metav1.ObjectMeta, field string) (*metav1.ObjectMeta, error) {
	return extendField(base, client, field, "ObjectMeta", objectMetaListFields, (*metav1.ObjectMeta).DeepCopy)
}

func extendField[T any](base, client *T, field, kind string, fields map[string]extender[T],
	deepCopy func(*T) *T,
) (*T, error) {
	extend, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a list field (list fields: %v)",
			ErrTypeMismatch, kind, field, listFieldNames(fields))
	}
	if base == nil || client == nil {
		return deepCopyEither(base, client, deepCopy), nil
	}

	b, c := deepCopy(base), deepCopy(client)
	extend(b, c)
	return c, nil
}

func listFieldNames[T any](fields map[string]extender[T]) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mustExtend is used by the reconcilers with field names known to be list fields.
func mustExtend[T any](base, client *T, field string, fields map[string]extender[T]) {
	extend, ok := fields[field]
	if !ok {
		panic(fmt.Sprintf("podgen: %q is not a registered list field", field))
	}
	extend(base, client)
}
