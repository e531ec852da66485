package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"capctl/internal/capability"
	"capctl/internal/lifecycle"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// statusRow is the printable form of a capability state.
type statusRow struct {
	Kind             string  `json:"kind" yaml:"kind"`
	Name             string  `json:"name" yaml:"name"`
	Status           string  `json:"status" yaml:"status"`
	DownloadProgress float64 `json:"downloadProgress" yaml:"downloadProgress"`
	Error            string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func newStatusRow(c lifecycle.Controller) statusRow {
	st := c.Snapshot()
	return statusRow{
		Kind:             string(c.Kind()),
		Name:             c.Kind().DisplayName(),
		Status:           st.Status.String(),
		DownloadProgress: st.DownloadProgress,
		Error:            st.Error,
	}
}

// writeRows prints rows in format.
func writeRows(w io.Writer, format OutputFormat, rows []statusRow) error {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case OutputFormatYAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return writeStatusTable(w, rows)
	}
}

func writeStatusTable(w io.Writer, rows []statusRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, text.FgYellow.Sprint("No capabilities found"))
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("CAPABILITY"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("PROGRESS"),
		text.FgHiCyan.Sprint("MESSAGE"),
	})
	for _, r := range rows {
		t.AppendRow(table.Row{
			text.Bold.Sprint(r.Name),
			formatStatus(capability.Status(r.Status)),
			formatProgress(capability.Status(r.Status), r.DownloadProgress),
			formatMessage(r.Error),
		})
	}
	t.Render()
	return nil
}

func formatStatus(s capability.Status) interface{} {
	switch s {
	case capability.StatusAvailable:
		return text.FgGreen.Sprint("✅ available")
	case capability.StatusDownloadable:
		return text.FgYellow.Sprint("⬇️  downloadable")
	case capability.StatusDownloading:
		return text.FgYellow.Sprint("⏳ downloading")
	case capability.StatusUnavailable:
		return text.FgRed.Sprint("❌ unavailable")
	default:
		return text.FgHiBlack.Sprint("❔ " + s.String())
	}
}

func formatProgress(s capability.Status, progress float64) interface{} {
	if s != capability.StatusDownloading && progress == 0 {
		return text.FgHiBlack.Sprint("-")
	}
	return fmt.Sprintf("%3.0f%%", progress)
}

func formatMessage(msg string) interface{} {
	if msg == "" {
		return text.FgHiBlack.Sprint("-")
	}
	return runewidth.Truncate(msg, 60, "...")
}
