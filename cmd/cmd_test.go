//nolint:testpackage
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
	"sigs.k8s.io/yaml"

	"github.com/radiofrance/podgen/pkg/podgen"
)

func testTaskOpts() taskOpts {
	return taskOpts{
		Config: podgen.Config{
			Namespace:       "airflow",
			PodTemplateFile: "testdata/pod_template.yaml",
			WorkerID:        "42",
		},
		DagID:     "etl",
		TaskID:    "load",
		TryNumber: 1,
		MapIndex:  noMapIndex,
	}
}

func decodePods(t *testing.T, out string) []*corev1.Pod {
	t.Helper()

	var pods []*corev1.Pod
	for _, document := range strings.Split(out, "---\n") {
		pod := &corev1.Pod{}
		require.NoError(t, yaml.Unmarshal([]byte(document), pod))
		pods = append(pods, pod)
	}
	return pods
}

func Test_taskOpts_identity(t *testing.T) {
	t.Parallel()

	opts := testTaskOpts()
	opts.MapIndex = 3
	opts.LogicalDate = "2020-08-24T00:00:00Z"

	id, err := opts.identity()
	require.NoError(t, err)
	assert.Equal(t, "42", id.WorkerID)
	require.NotNil(t, id.MapIndex)
	assert.Equal(t, 3, *id.MapIndex)
	assert.Equal(t, 2020, id.LogicalDate.Year())

	opts.LogicalDate = "yesterday"
	_, err = opts.identity()
	require.ErrorContains(t, err, "invalid logical date")

	_, err = taskOpts{TaskID: "load"}.identity()
	require.Error(t, err)
}

func Test_doRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := doRender(&buf, renderOpts{
		taskOpts: testTaskOpts(),
		Label:    []string{"team=data", "tier=batch"},
		Count:    1,
		Args:     []string{"run", "--local"},
	})
	require.NoError(t, err)

	pods := decodePods(t, buf.String())
	require.Len(t, pods, 1)
	pod := pods[0]
	assert.Regexp(t, regexp.MustCompile(`^etl-load-[a-z0-9]{8}$`), pod.Name)
	assert.Equal(t, "airflow", pod.Namespace)
	assert.Equal(t, "etl", pod.Labels["app"])
	assert.Equal(t, "data", pod.Labels["team"])
	assert.Equal(t, "batch", pod.Labels["tier"])
	assert.Equal(t, "42", pod.Labels[podgen.LabelWorker])
	assert.Equal(t, "runner", pod.Spec.ServiceAccountName)
	require.Len(t, pod.Spec.Containers, 1)
	assert.Equal(t, "registry.example.com/etl:1.0", pod.Spec.Containers[0].Image)
	assert.Equal(t, []string{"run", "--local"}, pod.Spec.Containers[0].Args)
	assert.Len(t, pod.Spec.Containers[0].Env, 2)
}

func Test_doRender_ExecutorConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := doRender(&buf, renderOpts{
		taskOpts:       testTaskOpts(),
		ExecutorConfig: "testdata/executor_config.yaml",
		Count:          3,
	})
	require.NoError(t, err)

	pods := decodePods(t, buf.String())
	require.Len(t, pods, 3)
	names := map[string]struct{}{}
	for _, pod := range pods {
		names[pod.Name] = struct{}{}
		assert.Equal(t, "batch", pod.Namespace)
		assert.Equal(t, "data", pod.Annotations["owner"])
		assert.Equal(t, map[string]string{"pool": "highmem"}, pod.Spec.NodeSelector)
		assert.Equal(t, resource.MustParse("4Gi"), pod.Spec.Containers[0].Resources.Requests[corev1.ResourceMemory])
	}
	assert.Len(t, names, 3)
}

func Test_doRender_LegacyExecutorConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := doRender(&buf, renderOpts{
		taskOpts:       testTaskOpts(),
		ExecutorConfig: "testdata/legacy_executor_config.yaml",
		Count:          1,
	})
	require.NoError(t, err)

	pod := decodePods(t, buf.String())[0]
	container := pod.Spec.Containers[0]
	assert.Equal(t, "registry.example.com/etl:2.0", container.Image)
	assert.Equal(t, resource.MustParse("2"), container.Resources.Requests[corev1.ResourceCPU])
	assert.Contains(t, container.Env, corev1.EnvVar{Name: "MODE", Value: "legacy"})
}

func Test_doRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    func(opts *renderOpts)
		wantErr error
		msg     string
	}{
		{
			name:    "both executor config styles",
			opts:    func(opts *renderOpts) { opts.ExecutorConfig = "testdata/both_executor_config.yaml" },
			wantErr: podgen.ErrConfiguration,
		},
		{
			name:    "no image nor template",
			opts:    func(opts *renderOpts) { opts.PodTemplateFile = "" },
			wantErr: podgen.ErrConfiguration,
		},
		{
			name: "missing executor config",
			opts: func(opts *renderOpts) { opts.ExecutorConfig = "testdata/lorem.yaml" },
			msg:  "cannot read executor config",
		},
		{
			name: "invalid label",
			opts: func(opts *renderOpts) { opts.Label = []string{"bad key=value"} },
			msg:  "invalid label key",
		},
		{
			name: "invalid count",
			opts: func(opts *renderOpts) { opts.Count = 0 },
			msg:  "--count must be at least 1",
		},
		{
			name: "invalid output",
			opts: func(opts *renderOpts) { opts.Output = "json" },
			msg:  "is not a valid output format",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			opts := renderOpts{taskOpts: testTaskOpts(), Count: 1}
			test.opts(&opts)

			err := doRender(&bytes.Buffer{}, opts)
			require.Error(t, err)
			if test.wantErr != nil {
				require.ErrorIs(t, err, test.wantErr)
			}
			assert.Contains(t, err.Error(), test.msg)
		})
	}
}

func Test_doSelector(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, doSelector(&buf, testTaskOpts()))
	assert.Equal(t, "dag_id=etl,kubernetes_executor=True,podgen-worker=42,task_id=load,try_number=1\n", buf.String())

	opts := testTaskOpts()
	opts.WorkerID = ""
	buf.Reset()
	require.NoError(t, doSelector(&buf, opts))
	assert.Equal(t, "dag_id=etl,kubernetes_executor=True,task_id=load,try_number=1,podgen-worker\n", buf.String())
}

func Test_doLabels(t *testing.T) {
	t.Parallel()

	opts := testTaskOpts()
	opts.TaskID = "task*"

	var buf bytes.Buffer
	require.NoError(t, doLabels(&buf, labelsOpts{taskOpts: opts}))
	assert.Contains(t, buf.String(), "task-b6aca8991")
	assert.Contains(t, buf.String(), "task*")
}

func Test_doListPods(t *testing.T) {
	t.Parallel()

	id := podgen.TaskIdentity{DagID: "etl", TaskID: "load", TryNumber: 1, WorkerID: "42"}
	other := podgen.TaskIdentity{DagID: "etl", TaskID: "load", TryNumber: 2, WorkerID: "42"}
	k8s := fake.NewSimpleClientset(
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "b", Namespace: "airflow", Labels: podgen.BuildLabels(id)}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "a", Namespace: "airflow", Labels: podgen.BuildLabels(id)}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "c", Namespace: "airflow", Labels: podgen.BuildLabels(other)}},
		&corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "d", Namespace: "other", Labels: podgen.BuildLabels(id)}},
	)

	var buf bytes.Buffer
	err := doListPods(context.Background(), &buf, k8s, podsOpts{taskOpts: testTaskOpts(), Output: "yaml"})
	require.NoError(t, err)
	pods := decodePods(t, buf.String())
	require.Len(t, pods, 2)
	assert.Equal(t, "a", pods[0].Name)
	assert.Equal(t, "b", pods[1].Name)

	buf.Reset()
	err = doListPods(context.Background(), &buf, k8s, podsOpts{
		taskOpts: testTaskOpts(), AllNamespaces: true, Output: "yaml",
	})
	require.NoError(t, err)
	assert.Len(t, decodePods(t, buf.String()), 3)
}

func Test_versionAction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	versionAction(&buf)
	assert.Contains(t, buf.String(), "version: v"+podgen.Version)
}

func Test_doDocgen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, doDocgen(rootCmd, docgenOpts{path: dir, format: "markdown"}))

	content, err := os.ReadFile(filepath.Join(dir, "podgen_render.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `title: "podgen render"`)

	require.Error(t, doDocgen(rootCmd, docgenOpts{path: dir, format: "pdf"}))
}
