package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

const fmTemplate = `---
title: "%s"
---
`

type docgenOpts struct {
	path   string
	format string
}

func docgenCommand() *cobra.Command {
	opts := &docgenOpts{}
	cmd := &cobra.Command{
		Use:    "docgen",
		Short:  "Generate the documentation for the CLI commands.",
		Hidden: true,
		RunE: func(*cobra.Command, []string) error {
			return doDocgen(rootCmd, *opts)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.path, "path", "./docs/cmd",
		"path to write the generated documentation to")
	cmd.Flags().StringVar(&opts.format, "format", "markdown",
		"documentation format (markdown|man)")

	return cmd
}

func doDocgen(root *cobra.Command, opts docgenOpts) error {
	if err := os.MkdirAll(opts.path, 0o750); err != nil {
		return err
	}

	switch opts.format {
	case "markdown":
		return doc.GenMarkdownTreeCustom(root, opts.path, filePrepender, linkHandler)
	case "man":
		return doc.GenManTree(root, &doc.GenManHeader{Title: "PODGEN", Section: "1"}, opts.path)
	default:
		return fmt.Errorf("%q is not a valid documentation format", opts.format)
	}
}

func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, path.Ext(name))
	title := strings.ReplaceAll(base, "_", " ")

	return fmt.Sprintf(fmTemplate, title)
}

func linkHandler(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	return "../" + strings.ToLower(base) + "/"
}
