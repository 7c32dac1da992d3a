package podgen

import (
	"fmt"
	"time"

	"github.com/radiofrance/podgen/internal/logger"
	k8sutils "github.com/radiofrance/podgen/pkg/kubernetes"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	// BaseContainerName is the name of the container running the task.
	BaseContainerName = "base"

	// ExecutorPodEnvVar is set to "True" in the base container of every task pod.
	ExecutorPodEnvVar = "PODGEN_IS_K8S_EXECUTOR_POD"
)

// TaskPod holds everything needed to build the pod of a task try.
type TaskPod struct {
	DagID     string
	TaskID    string
	PodID     string // Turned into the pod name, with a random suffix.
	Image     string // Image of the base container. Empty keeps the image of the base pod.
	TryNumber int
	Date      time.Time // Logical date of the run.
	Args      []string
	// Override is the per-task pod override: nil, a *corev1.Pod or an *unstructured.Unstructured.
	Override       runtime.Object
	Base           *corev1.Pod
	Namespace      string // Used when the override doesn't set a namespace.
	MapIndex       *int
	RunID          string
	SchedulerJobID string
}

func (t TaskPod) identity() TaskIdentity {
	return TaskIdentity{
		DagID:       t.DagID,
		TaskID:      t.TaskID,
		TryNumber:   t.TryNumber,
		WorkerID:    t.SchedulerJobID,
		MapIndex:    t.MapIndex,
		RunID:       t.RunID,
		LogicalDate: t.Date,
	}
}

// ConstructPod builds the final pod of a task try.
//
// The base pod, the override and the task identity are reconciled in that order, so the
// generated name, labels, image and arguments always win. The namespace and image of the
// override are honored when set.
//
// Any failure related to the override is returned as a *PodReconciliationError.
func ConstructPod(task TaskPod) (pod *corev1.Pod, err error) {
	defer func() {
		if r := recover(); r != nil {
			pod, err = nil, newPodReconciliationError("unexpected failure: %v", r)
		}
	}()

	override, err := overridePod(task.Override)
	if err != nil {
		return nil, err
	}

	namespace := task.Namespace
	image := task.Image
	if override != nil {
		if override.Namespace != "" {
			namespace = override.Namespace
		}
		if len(override.Spec.Containers) > 0 && override.Spec.Containers[0].Image != "" {
			image = override.Spec.Containers[0].Image
		}
	}

	id := task.identity()
	podLabels := BuildLabels(id)
	podLabels[LabelAppManagedBy] = ManagedByPodgen

	dynamicPod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:        k8sutils.UniquePodName(task.PodID),
			Namespace:   namespace,
			Labels:      podLabels,
			Annotations: BuildAnnotations(id),
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{
					Name:  BaseContainerName,
					Image: image,
					Args:  task.Args,
					Env: []corev1.EnvVar{
						{Name: ExecutorPodEnvVar, Value: "True"},
					},
				},
			},
		},
	}

	pod = task.Base
	for _, layer := range []*corev1.Pod{override, dynamicPod} {
		pod = ReconcilePods(pod, layer)
	}

	logger.Debugf("Constructed pod %s/%s for task %s.%s (try %d)",
		pod.Namespace, pod.Name, task.DagID, task.TaskID, task.TryNumber)
	return pod, nil
}

// overridePod reads the override object. Anything that can't be read as a pod is a
// reconciliation error.
func overridePod(obj runtime.Object) (*corev1.Pod, error) {
	switch override := obj.(type) {
	case nil:
		return nil, nil //nolint:nilnil
	case *corev1.Pod:
		if override == nil {
			return nil, nil //nolint:nilnil
		}
		return override, nil
	case *unstructured.Unstructured:
		if override == nil {
			return nil, nil //nolint:nilnil
		}
		if kind := override.GetKind(); kind != "" && kind != "Pod" {
			return nil, newPodReconciliationError("override must be a Pod, got %s", kind)
		}
		pod := &corev1.Pod{}
		err := runtime.DefaultUnstructuredConverter.FromUnstructured(override.UnstructuredContent(), pod)
		if err != nil {
			return nil, newPodReconciliationError("cannot read pod override: %v", err)
		}
		return pod, nil
	default:
		return nil, newPodReconciliationError("unsupported pod override type %s", describeType(obj))
	}
}

func describeType(obj runtime.Object) string {
	if gvk := obj.GetObjectKind().GroupVersionKind(); gvk.Kind != "" {
		return gvk.String()
	}
	return fmt.Sprintf("%T", obj)
}
