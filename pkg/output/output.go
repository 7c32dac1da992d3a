// Package output renders pods and task labels for the command line.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/olekukonko/tablewriter"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

const (
	ConsoleFormat        = "console"
	YAMLFormat           = "yaml"
	GoTemplateFileFormat = "go-template-file"

	yamlDocumentSeparator = "---\n"
)

type FormatOpts struct {
	Type         string
	TemplatePath string
}

// LabelRow is one identifier of a task, as stored in the pod labels and annotations.
type LabelRow struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Annotation string `json:"annotation,omitempty"`
}

// ParseOutputOptions parses the value of an "--output" flag.
// An empty value selects defaultFormat.
func ParseOutputOptions(output, defaultFormat string) (FormatOpts, error) {
	formatOpts := FormatOpts{}
	if output == "" {
		output = defaultFormat
	}

	parsed := strings.SplitN(output, "=", 2)
	switch parsed[0] {
	case ConsoleFormat, YAMLFormat:
		formatOpts.Type = parsed[0]
	case GoTemplateFileFormat:
		if len(parsed) == 1 || parsed[1] == "" {
			return FormatOpts{}, fmt.Errorf("you need to provide a path to template file when using %q options",
				GoTemplateFileFormat)
		}
		formatOpts.Type = GoTemplateFileFormat
		formatOpts.TemplatePath = parsed[1]
	default:
		return FormatOpts{}, fmt.Errorf("%q is not a valid output format", output)
	}

	return formatOpts, nil
}

// LabelRows joins labels and annotations by key, sorted by key.
func LabelRows(labels, annotations map[string]string) []LabelRow {
	rows := make([]LabelRow, 0, len(labels))
	for key, value := range labels {
		rows = append(rows, LabelRow{Key: key, Label: value, Annotation: annotations[key]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

// WriteLabels renders label rows in the requested format.
func WriteLabels(w io.Writer, rows []LabelRow, opts FormatOpts) error {
	switch opts.Type {
	case ConsoleFormat:
		data := make([][]string, 0, len(rows))
		for _, row := range rows {
			data = append(data, []string{row.Key, row.Label, row.Annotation})
		}
		renderTable(w, []string{"Key", "Label", "Annotation"}, data)
		return nil
	case YAMLFormat:
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal labels: %w", err)
		}
		_, err = w.Write(out)
		return err
	case GoTemplateFileFormat:
		return renderTemplate(w, opts.TemplatePath, rows)
	default:
		return fmt.Errorf("%q is not a valid output format", opts.Type)
	}
}

// WritePods renders pods in the requested format. YAML documents are separated by "---".
func WritePods(w io.Writer, pods []*corev1.Pod, opts FormatOpts) error {
	switch opts.Type {
	case ConsoleFormat:
		data := make([][]string, 0, len(pods))
		for _, pod := range pods {
			data = append(data, []string{pod.Namespace, pod.Name, containerImages(pod), string(pod.Status.Phase)})
		}
		renderTable(w, []string{"Namespace", "Name", "Images", "Phase"}, data)
		return nil
	case YAMLFormat:
		for i, pod := range pods {
			if i > 0 {
				if _, err := io.WriteString(w, yamlDocumentSeparator); err != nil {
					return err
				}
			}
			out, err := yaml.Marshal(pod)
			if err != nil {
				return fmt.Errorf("failed to marshal pod %s: %w", pod.Name, err)
			}
			if _, err := w.Write(out); err != nil {
				return err
			}
		}
		return nil
	case GoTemplateFileFormat:
		return renderTemplate(w, opts.TemplatePath, pods)
	default:
		return fmt.Errorf("%q is not a valid output format", opts.Type)
	}
}

func renderTemplate(w io.Writer, path string, data any) error {
	outputTemplate, err := template.ParseFiles(path)
	if err != nil {
		return fmt.Errorf("failed to parse go-template file : %w", err)
	}

	if err := outputTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render go-template file : %w", err)
	}
	return nil
}

// renderTable displays rows as a borderless, left-aligned table.
func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	table.AppendBulk(data)

	table.SetHeader(header)
	table.Render()
}

func containerImages(pod *corev1.Pod) string {
	images := make([]string, 0, len(pod.Spec.Containers))
	for _, container := range pod.Spec.Containers {
		images = append(images, container.Image)
	}
	return strings.Join(images, ",")
}
