package podgen

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// pick returns client unless it is the zero value.
func pick[T comparable](base, client T) T {
	var zero T
	if client != zero {
		return client
	}
	return base
}

// pickSlice returns client unless it is empty. When both are empty the non-nil one is kept.
func pickSlice[E any](base, client []E) []E {
	if len(client) > 0 || base == nil {
		return client
	}
	return base
}

// pickTime returns client unless it is the zero time.
func pickTime(base, client metav1.Time) metav1.Time {
	if !client.IsZero() {
		return client
	}
	return base
}

// mergeMaps merges client into a copy of base. When both are empty, base is kept as is.
func mergeMaps[M ~map[K]V, K comparable, V any](base, client M) M {
	if len(base) == 0 && len(client) == 0 {
		if base != nil {
			return base
		}
		return client
	}
	merged := make(M, len(base)+len(client))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range client {
		merged[k] = v
	}
	return merged
}

// MergeStringMaps merges two label or annotation maps. Keys only present in base survive,
// keys present in client are inserted or overwritten.
func MergeStringMaps(base, client map[string]string) map[string]string {
	return mergeMaps(base, client)
}

// MergeObjectMeta merges two object metadata. When one side is nil a copy of the other is
// returned. Otherwise scalar fields of client win when set, and labels and annotations are
// merged key by key.
func MergeObjectMeta(base, client *metav1.ObjectMeta) *metav1.ObjectMeta {
	if base == nil || client == nil {
		return deepCopyEither(base, client, (*metav1.ObjectMeta).DeepCopy)
	}
	return mergeObjectMeta(base.DeepCopy(), client.DeepCopy())
}

// mergeObjectMeta is MergeObjectMeta on values the caller already owns: the result may share
// memory with base and client.
func mergeObjectMeta(b, c *metav1.ObjectMeta) *metav1.ObjectMeta {
	return &metav1.ObjectMeta{
		Name:                       pick(b.Name, c.Name),
		GenerateName:               pick(b.GenerateName, c.GenerateName),
		Namespace:                  pick(b.Namespace, c.Namespace),
		SelfLink:                   pick(b.SelfLink, c.SelfLink),
		UID:                        pick(b.UID, c.UID),
		ResourceVersion:            pick(b.ResourceVersion, c.ResourceVersion),
		Generation:                 pick(b.Generation, c.Generation),
		CreationTimestamp:          pickTime(b.CreationTimestamp, c.CreationTimestamp),
		DeletionTimestamp:          pick(b.DeletionTimestamp, c.DeletionTimestamp),
		DeletionGracePeriodSeconds: pick(b.DeletionGracePeriodSeconds, c.DeletionGracePeriodSeconds),
		Labels:                     mergeMaps(b.Labels, c.Labels),
		Annotations:                mergeMaps(b.Annotations, c.Annotations),
		OwnerReferences:            pickSlice(b.OwnerReferences, c.OwnerReferences),
		Finalizers:                 pickSlice(b.Finalizers, c.Finalizers),
		ManagedFields:              pickSlice(b.ManagedFields, c.ManagedFields),
	}
}

// MergeResources merges resource requirements: requests and limits key by key, claims
// as a whole.
func MergeResources(base, client corev1.ResourceRequirements) corev1.ResourceRequirements {
	return mergeResources(base.DeepCopy(), client.DeepCopy())
}

func mergeResources(b, c *corev1.ResourceRequirements) corev1.ResourceRequirements {
	return corev1.ResourceRequirements{
		Limits:   mergeMaps(b.Limits, c.Limits),
		Requests: mergeMaps(b.Requests, c.Requests),
		Claims:   pickSlice(b.Claims, c.Claims),
	}
}

// MergeContainer merges two containers field by field without extending any list:
// every field set on client wins, lists included. Resources are merged key by key.
// Use ReconcileContainers to also concatenate ports, env and mounts.
func MergeContainer(base, client *corev1.Container) *corev1.Container {
	if base == nil || client == nil {
		return deepCopyEither(base, client, (*corev1.Container).DeepCopy)
	}
	return mergeContainer(base.DeepCopy(), client.DeepCopy())
}

// mergeContainer is MergeContainer on values the caller already owns.
func mergeContainer(b, c *corev1.Container) *corev1.Container {
	return &corev1.Container{
		Name:                     pick(b.Name, c.Name),
		Image:                    pick(b.Image, c.Image),
		Command:                  pickSlice(b.Command, c.Command),
		Args:                     pickSlice(b.Args, c.Args),
		WorkingDir:               pick(b.WorkingDir, c.WorkingDir),
		Ports:                    pickSlice(b.Ports, c.Ports),
		EnvFrom:                  pickSlice(b.EnvFrom, c.EnvFrom),
		Env:                      pickSlice(b.Env, c.Env),
		Resources:                mergeResources(&b.Resources, &c.Resources),
		ResizePolicy:             pickSlice(b.ResizePolicy, c.ResizePolicy),
		RestartPolicy:            pick(b.RestartPolicy, c.RestartPolicy),
		VolumeMounts:             pickSlice(b.VolumeMounts, c.VolumeMounts),
		VolumeDevices:            pickSlice(b.VolumeDevices, c.VolumeDevices),
		LivenessProbe:            pick(b.LivenessProbe, c.LivenessProbe),
		ReadinessProbe:           pick(b.ReadinessProbe, c.ReadinessProbe),
		StartupProbe:             pick(b.StartupProbe, c.StartupProbe),
		Lifecycle:                pick(b.Lifecycle, c.Lifecycle),
		TerminationMessagePath:   pick(b.TerminationMessagePath, c.TerminationMessagePath),
		TerminationMessagePolicy: pick(b.TerminationMessagePolicy, c.TerminationMessagePolicy),
		ImagePullPolicy:          pick(b.ImagePullPolicy, c.ImagePullPolicy),
		SecurityContext:          pick(b.SecurityContext, c.SecurityContext),
		Stdin:                    b.Stdin || c.Stdin,
		StdinOnce:                b.StdinOnce || c.StdinOnce,
		TTY:                      b.TTY || c.TTY,
	}
}

// deepCopyEither copies whichever side is not nil.
func deepCopyEither[T any](base, client *T, deepCopy func(*T) *T) *T {
	if client != nil {
		return deepCopy(client)
	}
	if base != nil {
		return deepCopy(base)
	}
	return nil
}
