package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/radiofrance/podgen/internal/logger"
	k8sutils "github.com/radiofrance/podgen/pkg/kubernetes"
	"github.com/radiofrance/podgen/pkg/output"
	"github.com/radiofrance/podgen/pkg/podgen"
)

type podsOpts struct {
	taskOpts `mapstructure:",squash"`

	Kubeconfig    string `mapstructure:"kubeconfig"`
	Context       string `mapstructure:"context"`
	AllNamespaces bool   `mapstructure:"all_namespaces"`
	Output        string `mapstructure:"output"`
}

func podsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pods",
		Short: "List the pods of a task try in the cluster",
		Long: `podgen pods lists the pods of the cluster matching the selector of a task try.
The cluster is reached through the kubeconfig file (--kubeconfig, $KUBECONFIG or ~/.kube/config).`,
		Run: func(cmd *cobra.Command, _ []string) {
			bindPFlagsSnakeCase(cmd.Flags())

			opts := podsOpts{}
			if err := hydrateOptsFromViper(&opts); err != nil {
				logger.Fatalf("%v", err)
			}

			k8s, err := newClientset(opts)
			if err != nil {
				logger.Fatalf("Cannot create kubernetes client: %v", err)
			}

			if err := doListPods(cmd.Context(), cmd.OutOrStdout(), k8s, opts); err != nil {
				logger.Fatalf("Listing pods failed: %v", err)
			}
		},
	}
	addTaskFlags(cmd.Flags())
	cmd.Flags().String("kubeconfig", "", "Path to the kubeconfig file.")
	cmd.Flags().String("context", "", "Name of the kubeconfig context to use.")
	cmd.Flags().BoolP("all-namespaces", "A", false, "List the pods across all namespaces.")
	cmd.Flags().StringP("output", "o", "", ""+
		"Output format (console|yaml|go-template-file)\n"+
		"You can provide a custom format using go-template: like this: \"-o go-template-file=...\".")

	return cmd
}

func newClientset(opts podsOpts) (*kubernetes.Clientset, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	loadingRules.ExplicitPath = opts.Kubeconfig
	overrides := &clientcmd.ConfigOverrides{CurrentContext: opts.Context}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(restConfig)
}

func doListPods(ctx context.Context, w io.Writer, k8s kubernetes.Interface, opts podsOpts) error {
	formatOpts, err := output.ParseOutputOptions(opts.Output, output.ConsoleFormat)
	if err != nil {
		return err
	}

	id, err := opts.identity()
	if err != nil {
		return err
	}

	namespace := opts.TargetNamespace()
	if opts.AllNamespaces {
		namespace = corev1.NamespaceAll
	}

	pods, err := k8sutils.ListTaskPods(ctx, k8s, namespace, podgen.BuildSelector(id))
	if err != nil {
		return err
	}

	items := make([]*corev1.Pod, len(pods))
	for i := range pods {
		items[i] = &pods[i]
	}
	return output.WritePods(w, items, formatOpts)
}
