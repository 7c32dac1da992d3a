package podgen

import (
	"github.com/radiofrance/podgen/internal/logger"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// List fields of a container that are concatenated instead of replaced when reconciling.
var reconciledContainerListFields = []string{"volumeMounts", "env", "envFrom", "ports", "volumeDevices"}

// List fields of object metadata that are concatenated instead of replaced when reconciling.
var reconciledObjectMetaListFields = []string{"managedFields", "finalizers", "ownerReferences"}

// ReconcilePods merges a client pod on top of a base pod and returns a new pod.
// When one side is nil, a copy of the other is returned.
func ReconcilePods(base, client *corev1.Pod) *corev1.Pod {
	if base == nil || client == nil {
		return deepCopyEither(base, client, (*corev1.Pod).DeepCopy)
	}

	b, c := base.DeepCopy(), client.DeepCopy()
	status := c.Status
	if equality.Semantic.DeepEqual(status, corev1.PodStatus{}) {
		status = b.Status
	}

	return &corev1.Pod{
		TypeMeta: metav1.TypeMeta{
			Kind:       pick(b.Kind, c.Kind),
			APIVersion: pick(b.APIVersion, c.APIVersion),
		},
		ObjectMeta: *ReconcileMetadata(&b.ObjectMeta, &c.ObjectMeta),
		Spec:       *ReconcileSpecs(&b.Spec, &c.Spec),
		Status:     status,
	}
}

// ReconcileMetadata merges object metadata: labels and annotations key by key, finalizers,
// owner references and managed fields concatenated, other fields replaced when set on client.
func ReconcileMetadata(base, client *metav1.ObjectMeta) *metav1.ObjectMeta {
	if base == nil || client == nil {
		return deepCopyEither(base, client, (*metav1.ObjectMeta).DeepCopy)
	}

	b, c := base.DeepCopy(), client.DeepCopy()
	for _, field := range reconciledObjectMetaListFields {
		mustExtend(b, c, field, objectMetaListFields)
	}
	return mergeObjectMeta(b, c)
}

// ReconcileSpecs merges a client pod spec on top of a base pod spec.
//
// Containers are paired by position (see ReconcileContainers). Init containers and volumes
// are concatenated, base first. Node selector and overhead are merged key by key. Every
// other field of client replaces the base value when set.
func ReconcileSpecs(base, client *corev1.PodSpec) *corev1.PodSpec {
	if base == nil || client == nil {
		return deepCopyEither(base, client, (*corev1.PodSpec).DeepCopy)
	}

	b, c := base.DeepCopy(), client.DeepCopy()
	mustExtend(b, c, "initContainers", specListFields)
	mustExtend(b, c, "volumes", specListFields)

	return &corev1.PodSpec{
		Volumes:                       c.Volumes,
		InitContainers:                c.InitContainers,
		Containers:                    ReconcileContainers(b.Containers, c.Containers),
		EphemeralContainers:           pickSlice(b.EphemeralContainers, c.EphemeralContainers),
		RestartPolicy:                 pick(b.RestartPolicy, c.RestartPolicy),
		TerminationGracePeriodSeconds: pick(b.TerminationGracePeriodSeconds, c.TerminationGracePeriodSeconds),
		ActiveDeadlineSeconds:         pick(b.ActiveDeadlineSeconds, c.ActiveDeadlineSeconds),
		DNSPolicy:                     pick(b.DNSPolicy, c.DNSPolicy),
		NodeSelector:                  mergeMaps(b.NodeSelector, c.NodeSelector),
		ServiceAccountName:            pick(b.ServiceAccountName, c.ServiceAccountName),
		DeprecatedServiceAccount:      pick(b.DeprecatedServiceAccount, c.DeprecatedServiceAccount),
		AutomountServiceAccountToken:  pick(b.AutomountServiceAccountToken, c.AutomountServiceAccountToken),
		NodeName:                      pick(b.NodeName, c.NodeName),
		HostNetwork:                   b.HostNetwork || c.HostNetwork,
		HostPID:                       b.HostPID || c.HostPID,
		HostIPC:                       b.HostIPC || c.HostIPC,
		ShareProcessNamespace:         pick(b.ShareProcessNamespace, c.ShareProcessNamespace),
		SecurityContext:               pick(b.SecurityContext, c.SecurityContext),
		ImagePullSecrets:              pickSlice(b.ImagePullSecrets, c.ImagePullSecrets),
		Hostname:                      pick(b.Hostname, c.Hostname),
		Subdomain:                     pick(b.Subdomain, c.Subdomain),
		Affinity:                      pick(b.Affinity, c.Affinity),
		SchedulerName:                 pick(b.SchedulerName, c.SchedulerName),
		Tolerations:                   pickSlice(b.Tolerations, c.Tolerations),
		HostAliases:                   pickSlice(b.HostAliases, c.HostAliases),
		PriorityClassName:             pick(b.PriorityClassName, c.PriorityClassName),
		Priority:                      pick(b.Priority, c.Priority),
		DNSConfig:                     pick(b.DNSConfig, c.DNSConfig),
		ReadinessGates:                pickSlice(b.ReadinessGates, c.ReadinessGates),
		RuntimeClassName:              pick(b.RuntimeClassName, c.RuntimeClassName),
		EnableServiceLinks:            pick(b.EnableServiceLinks, c.EnableServiceLinks),
		PreemptionPolicy:              pick(b.PreemptionPolicy, c.PreemptionPolicy),
		Overhead:                      mergeMaps(b.Overhead, c.Overhead),
		TopologySpreadConstraints:     pickSlice(b.TopologySpreadConstraints, c.TopologySpreadConstraints),
		SetHostnameAsFQDN:             pick(b.SetHostnameAsFQDN, c.SetHostnameAsFQDN),
		OS:                            pick(b.OS, c.OS),
		HostUsers:                     pick(b.HostUsers, c.HostUsers),
		SchedulingGates:               pickSlice(b.SchedulingGates, c.SchedulingGates),
		ResourceClaims:                pickSlice(b.ResourceClaims, c.ResourceClaims),
	}
}

// ReconcileContainers merges two container lists by position, not by name: the container at
// index i of client is merged on top of the container at index i of base. Containers beyond
// the length of the shorter list are copied as is, in order.
func ReconcileContainers(base, client []corev1.Container) []corev1.Container {
	if len(base) == 0 || len(client) == 0 {
		return deepCopyContainers(pickSlice(base, client))
	}
	if len(base) != len(client) {
		logger.Debugf("Reconciling %d base container(s) with %d override container(s), "+
			"unpaired containers are kept as is", len(base), len(client))
	}

	merged := make([]corev1.Container, 0, max(len(base), len(client)))
	for i := 0; i < max(len(base), len(client)); i++ {
		switch {
		case i >= len(client):
			merged = append(merged, *base[i].DeepCopy())
		case i >= len(base):
			merged = append(merged, *client[i].DeepCopy())
		default:
			merged = append(merged, *reconcileContainer(&base[i], &client[i]))
		}
	}
	return merged
}

func reconcileContainer(base, client *corev1.Container) *corev1.Container {
	b, c := base.DeepCopy(), client.DeepCopy()
	for _, field := range reconciledContainerListFields {
		mustExtend(b, c, field, containerListFields)
	}
	return mergeContainer(b, c)
}

func deepCopyContainers(containers []corev1.Container) []corev1.Container {
	if containers == nil {
		return nil
	}
	out := make([]corev1.Container, len(containers))
	for i := range containers {
		containers[i].DeepCopyInto(&out[i])
	}
	return out
}
