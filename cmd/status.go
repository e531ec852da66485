package cmd

import (
	"github.com/spf13/cobra"

	"capctl/internal/capability"
	"capctl/internal/lifecycle"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status [kind...]",
	Short: "Show whether capabilities are supported, downloadable or available",
	Long: `Show the lifecycle state of capabilities on the configured backend.

Without arguments every capability is listed. Kinds are prompt, translator,
summarizer and proofreader; the verbs (translate, summarize, proofread) work too.

Examples:
  capctl status
  capctl status translator -o json
  capctl status --backend simulated -o yaml`,
	ValidArgs: kindNames(),
	RunE:      runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(statusOutput)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(args)
	if err != nil {
		return err
	}

	application, err := loadApplication(cmd, false)
	if err != nil {
		return err
	}
	defer application.Close()

	var rows []statusRow
	for _, kind := range kinds {
		c, err := application.Controller(kind)
		if err != nil {
			return err
		}
		rows = append(rows, newStatusRow(c))
	}
	return writeRows(cmd.OutOrStdout(), format, rows)
}

// parseKinds resolves capability arguments, defaulting to every kind.
func parseKinds(args []string) ([]capability.Kind, error) {
	if len(args) == 0 {
		return capability.AllKinds, nil
	}
	seen := make(map[capability.Kind]bool, len(args))
	var kinds []capability.Kind
	for _, a := range args {
		k, err := capability.ParseKind(a)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func kindNames() []string {
	names := make([]string, 0, len(capability.AllKinds))
	for _, k := range capability.AllKinds {
		names = append(names, string(k))
	}
	return names
}

// describeState is the one-line explanation used when a command cannot proceed.
func describeState(st lifecycle.State) string {
	if st.Error != "" {
		return st.Error
	}
	return st.Status.String()
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table, json, yaml)")
}
