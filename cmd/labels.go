package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/radiofrance/podgen/internal/logger"
	"github.com/radiofrance/podgen/pkg/output"
	"github.com/radiofrance/podgen/pkg/podgen"
)

type labelsOpts struct {
	taskOpts `mapstructure:",squash"`

	Output string `mapstructure:"output"`
}

func labelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Print the labels and annotations identifying the pods of a task try",
		Long: `podgen labels prints the label value of each task identifier, next to the raw value
kept in the pod annotations.`,
		Run: func(cmd *cobra.Command, _ []string) {
			bindPFlagsSnakeCase(cmd.Flags())

			opts := labelsOpts{}
			if err := hydrateOptsFromViper(&opts); err != nil {
				logger.Fatalf("%v", err)
			}

			if err := doLabels(cmd.OutOrStdout(), opts); err != nil {
				logger.Fatalf("Labels failed: %v", err)
			}
		},
	}
	addTaskFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "", ""+
		"Output format (console|yaml|go-template-file)\n"+
		"You can provide a custom format using go-template: like this: \"-o go-template-file=...\".")

	return cmd
}

func doLabels(w io.Writer, opts labelsOpts) error {
	formatOpts, err := output.ParseOutputOptions(opts.Output, output.ConsoleFormat)
	if err != nil {
		return err
	}

	id, err := opts.identity()
	if err != nil {
		return err
	}

	rows := output.LabelRows(podgen.BuildLabels(id), podgen.BuildAnnotations(id))
	return output.WriteLabels(w, rows, formatOpts)
}
