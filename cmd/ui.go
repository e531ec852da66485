package cmd

import (
	"github.com/spf13/cobra"

	"capctl/internal/capability"
	"capctl/internal/tui"
)

var uiStream bool

var uiCmd = &cobra.Command{
	Use:   "ui <kind>",
	Short: "Open the interactive page of a capability",
	Long: `Opens a terminal page for one capability. The page shows the live status,
offers the download with a progress bar while the capability is downloadable,
and accepts input once it is available. Answers can be streamed (ctrl+s) and
cancelled (esc).

Examples:
  capctl ui translator
  capctl ui prompt --stream --backend simulated`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := capability.ParseKind(args[0])
		if err != nil {
			return err
		}

		application, err := loadApplication(cmd, true)
		if err != nil {
			return err
		}
		defer application.Close()

		ctrl, err := application.Controller(kind)
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), tui.Config{
			Controller: ctrl,
			Backend:    string(application.Config.Backend),
			Stream:     uiStream,
			LogChannel: application.LogChannel,
		})
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().BoolVarP(&uiStream, "stream", "s", false, "Stream answers as they are generated")
}
