package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	k8sruntime "k8s.io/apimachinery/pkg/runtime"

	"github.com/radiofrance/podgen/internal/logger"
	"github.com/radiofrance/podgen/pkg/output"
	"github.com/radiofrance/podgen/pkg/podgen"
	"github.com/radiofrance/podgen/pkg/strutil"
)

type renderOpts struct {
	taskOpts `mapstructure:",squash"`

	PodID          string   `mapstructure:"pod_id"`
	Label          []string `mapstructure:"label"`
	ExecutorConfig string   `mapstructure:"executor_config"`
	Count          int      `mapstructure:"count"`
	Output         string   `mapstructure:"output"`

	// Args are the positional arguments, passed to the base container.
	Args []string `mapstructure:"-"`
}

func renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [flags] [-- args...]",
		Short: "Build the pod of a task try and print it",
		Long: `podgen render builds the pod running a task try and prints it, without submitting it.

The pod template file is the base of the pod. The pod override of the executor config file
(--executor-config) is merged on top of it, then the task identity: pod name, labels,
annotations, image and arguments.`,
		Run: func(cmd *cobra.Command, args []string) {
			bindPFlagsSnakeCase(cmd.Flags())

			opts := renderOpts{}
			if err := hydrateOptsFromViper(&opts); err != nil {
				logger.Fatalf("%v", err)
			}
			opts.Args = args

			if err := doRender(cmd.OutOrStdout(), opts); err != nil {
				logger.Fatalf("Render failed: %v", err)
			}
		},
	}
	addTaskFlags(cmd.Flags())
	cmd.Flags().String("pod-id", "", "Prefix of the pod name (default is <dag-id>-<task-id>).")
	cmd.Flags().StringSlice("label", nil, "Extra label added to the base pod (key=value), can be repeated.")
	cmd.Flags().String("executor-config", "",
		"Path to a YAML executor config holding a \"pod_override\" or a legacy \"KubernetesExecutor\" mapping.")
	cmd.Flags().Int("count", 1, "Number of pods to build for the task try, each with its own name.")
	cmd.Flags().StringP("output", "o", "", ""+
		"Output format (yaml|console|go-template-file)\n"+
		"You can provide a custom format using go-template: like this: \"-o go-template-file=...\".")

	return cmd
}

func doRender(w io.Writer, opts renderOpts) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if opts.Count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.Count)
	}

	formatOpts, err := output.ParseOutputOptions(opts.Output, output.YAMLFormat)
	if err != nil {
		return err
	}

	if opts.WorkerID == "" {
		opts.WorkerID = uuid.NewString()
		logger.Debugf("No worker id configured, using %s", opts.WorkerID)
	}
	id, err := opts.identity()
	if err != nil {
		return err
	}

	generator, err := opts.Generator()
	if err != nil {
		return err
	}
	base := generator.Pod()
	if len(opts.Label) > 0 {
		extraLabels, err := strutil.ParseLabels(opts.Label)
		if err != nil {
			return err
		}
		base.Labels = podgen.MergeStringMaps(base.Labels, extraLabels)
	}

	override, err := loadExecutorConfig(opts.ExecutorConfig)
	if err != nil {
		return err
	}

	podID := opts.PodID
	if podID == "" {
		podID = opts.DagID + "-" + opts.TaskID
	}
	task := podgen.TaskPod{
		DagID:          id.DagID,
		TaskID:         id.TaskID,
		PodID:          podID,
		Image:          opts.Image,
		TryNumber:      id.TryNumber,
		Date:           id.LogicalDate,
		Args:           opts.Args,
		Override:       override,
		Base:           base,
		Namespace:      opts.TargetNamespace(),
		MapIndex:       id.MapIndex,
		RunID:          id.RunID,
		SchedulerJobID: id.WorkerID,
	}

	pods := make([]*corev1.Pod, opts.Count)
	errG := new(errgroup.Group)
	errG.SetLimit(runtime.NumCPU())
	for i := range pods {
		i := i
		errG.Go(func() error {
			pod, err := podgen.ConstructPod(task)
			pods[i] = pod
			return err
		})
	}
	if err := errG.Wait(); err != nil {
		return err
	}

	logger.Debugf("Built %d pod(s) for %s.%s", len(pods), id.DagID, id.TaskID)
	return output.WritePods(w, pods, formatOpts)
}

// loadExecutorConfig reads the executor config file of a task and returns its pod override.
// An empty path returns no override.
func loadExecutorConfig(path string) (k8sruntime.Object, error) {
	if path == "" {
		return nil, nil //nolint:nilnil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read executor config: %w", err)
	}

	var executorConfig map[string]any
	if err := yaml.Unmarshal(data, &executorConfig); err != nil {
		return nil, fmt.Errorf("invalid executor config %s: %w", path, err)
	}

	return podgen.PodFromExecutorConfig(executorConfig)
}
