package podgen_test

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/radiofrance/podgen/pkg/podgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/utils/ptr"
)

var markerEnv = corev1.EnvVar{Name: podgen.ExecutorPodEnvVar, Value: "True"}

func loadTestTemplate(t *testing.T) *corev1.Pod {
	t.Helper()

	pod, err := podgen.LoadTemplate("testdata/pod_template.yaml")
	require.NoError(t, err)
	return pod
}

func Test_ConstructPod(t *testing.T) {
	t.Parallel()

	base := loadTestTemplate(t)
	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID:          "dag_id",
		TaskID:         "task_id",
		PodID:          "pod_id",
		Image:          "test-image",
		TryNumber:      3,
		Date:           time.Date(2020, 8, 24, 0, 0, 0, 0, time.UTC),
		Args:           []string{"command"},
		Base:           base,
		Namespace:      "namespace",
		SchedulerJobID: "uuid",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^pod-id-[a-z0-9]{8}$`), pod.Name)
	assert.Equal(t, "namespace", pod.Namespace)
	assert.Equal(t, "myapp", pod.Labels["app"])
	assert.Equal(t, "dag_id", pod.Labels[podgen.LabelDagID])
	assert.Equal(t, "task_id", pod.Labels[podgen.LabelTaskID])
	assert.Equal(t, "3", pod.Labels[podgen.LabelTryNumber])
	assert.Equal(t, "uuid", pod.Labels[podgen.LabelWorker])
	assert.Equal(t, podgen.ManagedByPodgen, pod.Labels[podgen.LabelAppManagedBy])
	assert.Equal(t, "2020-08-24T00:00:00+00:00", pod.Annotations[podgen.LabelLogicalDate])

	require.Len(t, pod.Spec.Containers, 1)
	container := pod.Spec.Containers[0]
	assert.Equal(t, podgen.BaseContainerName, container.Name)
	assert.Equal(t, "test-image", container.Image)
	assert.Equal(t, []string{"command"}, container.Args)
	assert.Equal(t, []corev1.EnvVar{
		{Name: "ENVIRONMENT", Value: "prod"},
		{Name: "LOG_LEVEL", Value: "warning"},
		markerEnv,
	}, container.Env)
	assert.Len(t, container.EnvFrom, 2)
	assert.Len(t, container.Ports, 1)
	assert.Equal(t, corev1.PullIfNotPresent, container.ImagePullPolicy)

	assert.True(t, pod.Spec.HostNetwork)
	assert.Equal(t, ptr.To[int64](50000), pod.Spec.SecurityContext.RunAsUser)
	assert.Equal(t, []corev1.LocalObjectReference{{Name: "registry-secret"}}, pod.Spec.ImagePullSecrets)

	// The template is left untouched.
	assert.Equal(t, loadTestTemplate(t), base)
}

func Test_ConstructPod_WithoutBase(t *testing.T) {
	t.Parallel()

	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID:     "dag",
		TaskID:    "task",
		PodID:     "pod",
		Image:     "image",
		TryNumber: 1,
		Namespace: "default",
	})
	require.NoError(t, err)

	assert.Equal(t, "default", pod.Namespace)
	assert.Equal(t, podgen.UnassignedWorker, pod.Labels[podgen.LabelWorker])
	require.Len(t, pod.Spec.Containers, 1)
	assert.Equal(t, []corev1.EnvVar{markerEnv}, pod.Spec.Containers[0].Env)
}

func Test_ConstructPod_Override(t *testing.T) {
	t.Parallel()

	override := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: "override-namespace",
			Labels:    map[string]string{"team": "data"},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{
				Image: "override-image",
				Env:   []corev1.EnvVar{{Name: "OVERRIDE", Value: "yes"}},
			}},
			InitContainers: []corev1.Container{{Name: "init-override"}},
			NodeSelector:   map[string]string{"pool": "gpu"},
		},
	}

	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID:     "dag",
		TaskID:    "task",
		PodID:     "pod",
		Image:     "task-image",
		TryNumber: 1,
		Args:      []string{"run"},
		Override:  override,
		Base: &corev1.Pod{Spec: corev1.PodSpec{
			InitContainers: []corev1.Container{{Name: "init-base"}},
		}},
		Namespace: "default",
	})
	require.NoError(t, err)

	assert.Equal(t, "override-namespace", pod.Namespace)
	assert.Equal(t, "data", pod.Labels["team"])
	assert.Equal(t, map[string]string{"pool": "gpu"}, pod.Spec.NodeSelector)
	assert.Equal(t, []string{"init-base", "init-override"}, containerNames(pod.Spec.InitContainers))
	require.Len(t, pod.Spec.Containers, 1)
	assert.Equal(t, "override-image", pod.Spec.Containers[0].Image)
	assert.Equal(t, []corev1.EnvVar{{Name: "OVERRIDE", Value: "yes"}, markerEnv}, pod.Spec.Containers[0].Env)
	assert.Equal(t, "override-namespace", override.Namespace)
	assert.Len(t, override.Spec.Containers[0].Env, 1)
}

func Test_ConstructPod_UnstructuredOverride(t *testing.T) {
	t.Parallel()

	override := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]any{
			"annotations": map[string]any{"note": "from-override"},
		},
		"spec": map[string]any{
			"serviceAccountName": "runner",
		},
	}}

	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID: "dag", TaskID: "task", PodID: "pod", Image: "image", Override: override,
	})
	require.NoError(t, err)
	assert.Equal(t, "from-override", pod.Annotations["note"])
	assert.Equal(t, "runner", pod.Spec.ServiceAccountName)
}

func Test_ConstructPod_InvalidOverride(t *testing.T) {
	t.Parallel()

	testcases := map[string]struct {
		override runtime.Object
		contains string
	}{
		"malformed shape": {
			override: &unstructured.Unstructured{Object: map[string]any{
				"kind": "Pod",
				"spec": map[string]any{"containers": "not-a-list"},
			}},
			contains: "cannot read pod override",
		},
		"wrong kind": {
			override: &unstructured.Unstructured{Object: map[string]any{"kind": "Service"}},
			contains: "override must be a Pod",
		},
		"unsupported type": {
			override: &corev1.Service{},
			contains: "unsupported pod override type *v1.Service",
		},
	}

	for name, test := range testcases {
		test := test
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pod, err := podgen.ConstructPod(podgen.TaskPod{
				DagID: "dag", TaskID: "task", PodID: "pod", Override: test.override,
			})
			var reconciliationErr *podgen.PodReconciliationError
			require.ErrorAs(t, err, &reconciliationErr)
			assert.Contains(t, reconciliationErr.Error(), test.contains)
			assert.Nil(t, pod)
		})
	}
}

func Test_ConstructPod_MapIndex(t *testing.T) {
	t.Parallel()

	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID: "dag", TaskID: "task", PodID: "pod", MapIndex: ptr.To(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "5", pod.Labels[podgen.LabelMapIndex])
	assert.Equal(t, "5", pod.Annotations[podgen.LabelMapIndex])
}

func Test_ConstructPod_LongIdentifiers(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 512)
	pod, err := podgen.ConstructPod(podgen.TaskPod{
		DagID:          long,
		TaskID:         long,
		PodID:          long,
		RunID:          long,
		SchedulerJobID: long,
		TryNumber:      1,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^a{54}-[a-z0-9]{8}$`), pod.Name)
	assert.Empty(t, validation.IsDNS1123Label(pod.Name))
	for key, value := range pod.Labels {
		assert.LessOrEqual(t, len(value), 63, key)
		assert.Empty(t, validation.IsValidLabelValue(value), key)
	}
	assert.Equal(t, long, pod.Annotations[podgen.LabelDagID])
	assert.Equal(t, long, pod.Annotations[podgen.LabelTaskID])
	assert.Equal(t, long, pod.Annotations[podgen.LabelRunID])
}

func Test_ConstructPod_UniqueNames(t *testing.T) {
	t.Parallel()

	names := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		pod, err := podgen.ConstructPod(podgen.TaskPod{DagID: "dag", TaskID: "task", PodID: "same-pod"})
		require.NoError(t, err)
		names[pod.Name] = struct{}{}
	}
	assert.Len(t, names, 50)
}

func Test_ConstructPod_Concurrent(t *testing.T) {
	t.Parallel()

	base := loadTestTemplate(t)
	expected := base.DeepCopy()

	var group errgroup.Group
	pods := make([]*corev1.Pod, 32)
	for i := range pods {
		i := i
		group.Go(func() error {
			pod, err := podgen.ConstructPod(podgen.TaskPod{
				DagID:     "dag",
				TaskID:    fmt.Sprintf("task-%d", i),
				PodID:     "pod",
				Image:     "image",
				TryNumber: 1,
				Args:      []string{"run", fmt.Sprint(i)},
				Base:      base,
			})
			pods[i] = pod
			return err
		})
	}
	require.NoError(t, group.Wait())

	assert.Equal(t, expected, base)
	for i, pod := range pods {
		assert.Equal(t, fmt.Sprintf("task-%d", i), pod.Annotations[podgen.LabelTaskID])
		assert.Equal(t, []string{"run", fmt.Sprint(i)}, pod.Spec.Containers[0].Args)
		assert.Len(t, pod.Spec.Containers[0].Env, 3)
	}
}
