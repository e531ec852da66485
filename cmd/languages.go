package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"capctl/internal/capability"
)

var languagesOutput string

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the language codes translate and proofread accept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseOutputFormat(languagesOutput)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case OutputFormatJSON:
			data, err := json.MarshalIndent(capability.Languages, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
		case OutputFormatYAML:
			data, err := yaml.Marshal(capability.Languages)
			if err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
		default:
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{text.FgHiCyan.Sprint("CODE"), text.FgHiCyan.Sprint("LANGUAGE")})
			for _, l := range capability.Languages {
				t.AppendRow(table.Row{text.FgYellow.Sprint(l.Code), l.Label})
			}
			t.Render()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)

	languagesCmd.Flags().StringVarP(&languagesOutput, "output", "o", "table", "Output format (table, json, yaml)")
}
