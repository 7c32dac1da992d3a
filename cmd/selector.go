package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/radiofrance/podgen/internal/logger"
	"github.com/radiofrance/podgen/pkg/podgen"
)

func selectorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selector",
		Short: "Print the label selector matching the pods of a task try",
		Long: `podgen selector prints the label selector matching the pods of a task try.
Without --worker-id, the selector matches the pods launched by any scheduler job.`,
		Run: func(cmd *cobra.Command, _ []string) {
			bindPFlagsSnakeCase(cmd.Flags())

			opts := taskOpts{}
			if err := hydrateOptsFromViper(&opts); err != nil {
				logger.Fatalf("%v", err)
			}

			if err := doSelector(cmd.OutOrStdout(), opts); err != nil {
				logger.Fatalf("Selector failed: %v", err)
			}
		},
	}
	addTaskFlags(cmd.Flags())

	return cmd
}

func doSelector(w io.Writer, opts taskOpts) error {
	id, err := opts.identity()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, podgen.BuildSelector(id))
	return err
}
