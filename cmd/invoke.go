package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"capctl/internal/capability"
	"capctl/internal/invocation"
	"capctl/internal/lifecycle"
	"capctl/pkg/logging"
)

// invokeFlags are shared by the four capability commands.
type invokeFlags struct {
	stream   bool
	download bool
}

var (
	promptFlags       invokeFlags
	promptSystem      string
	promptTemperature float64

	translateFlags invokeFlags
	translateFrom  string
	translateTo    string

	summarizeFlags  invokeFlags
	summarizeType   string
	summarizeFormat string
	summarizeLength string

	proofreadFlags     invokeFlags
	proofreadLanguages []string
)

var promptCmd = &cobra.Command{
	Use:   "prompt [text...]",
	Short: "Ask the language model",
	Long: `Send a prompt to the general-purpose language model.

The prompt is taken from the arguments, or from standard input when no
arguments (or a single "-") are given.

Examples:
  capctl prompt "Write a haiku about monsoon rain"
  echo "Explain goroutines" | capctl prompt --stream
  capctl prompt --system "Answer in one sentence" --temperature 0.2 "What is MCP?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer application.Close()

		opts, _ := application.Prompt.Defaults()
		if cmd.Flags().Changed("system") {
			opts.SystemPrompt = promptSystem
		}
		if cmd.Flags().Changed("temperature") {
			opts.Temperature = promptTemperature
		}
		return runInvocation(cmd, args, application.Prompt, opts, promptFlags)
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text between languages",
	Long: `Translate text with the translator capability.

Languages are given as codes; 'capctl languages' lists them.

Examples:
  capctl translate --to kn "Good morning"
  capctl translate --from en --to hi --stream < letter.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer application.Close()

		opts, _ := application.Translator.Defaults()
		if cmd.Flags().Changed("from") {
			opts.SourceLanguage = translateFrom
		}
		if cmd.Flags().Changed("to") {
			opts.TargetLanguage = translateTo
		}
		return runInvocation(cmd, args, application.Translator, opts, translateFlags)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text...]",
	Short: "Summarize text",
	Long: `Summarize text with the summarizer capability.

Types are key-points, tldr, teaser and headline; formats markdown and
plain-text; lengths short, medium and long.

Examples:
  capctl summarize --type tldr < article.md
  capctl summarize --type headline --format plain-text "..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer application.Close()

		opts, _ := application.Summarizer.Defaults()
		if cmd.Flags().Changed("type") {
			opts.Type = capability.SummarizerType(summarizeType)
		}
		if cmd.Flags().Changed("format") {
			opts.Format = capability.SummarizerFormat(summarizeFormat)
		}
		if cmd.Flags().Changed("length") {
			opts.Length = capability.SummarizerLength(summarizeLength)
		}
		return runInvocation(cmd, args, application.Summarizer, opts, summarizeFlags)
	},
}

var proofreadCmd = &cobra.Command{
	Use:   "proofread [text...]",
	Short: "Fix spelling, grammar and punctuation",
	Long: `Proofread text with the proofreader capability and print the corrected text.

Examples:
  capctl proofread "i like teh cat"
  capctl proofread --languages en,hi < notes.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer application.Close()

		opts, _ := application.Proofreader.Defaults()
		if cmd.Flags().Changed("languages") {
			opts.ExpectedInputLanguages = proofreadLanguages
		}
		return runInvocation(cmd, args, application.Proofreader, opts, proofreadFlags)
	},
}

// runInvocation checks availability for opts, optionally downloads, and runs
// one invocation. Streaming output is written as it arrives. An interrupt
// keeps the partial output and marks it as cancelled.
func runInvocation[O any](cmd *cobra.Command, args []string, m *lifecycle.Manager[O, O], opts O, flags invokeFlags) error {
	ctx := cmd.Context()
	kind := m.Kind()

	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	if err := m.ProbeAvailability(ctx, opts); err != nil {
		return fmt.Errorf("failed to check %s availability: %w", kind.DisplayName(), err)
	}
	if st := m.Snapshot(); st.CanDownload() && flags.download {
		progress := &progressPrinter{w: cmd.ErrOrStderr()}
		if err := m.Download(ctx, opts, progress.forKind(kind)); err != nil {
			return fmt.Errorf("failed to download %s: %s", kind.DisplayName(), capability.UserMessage(kind, err))
		}
	}
	if st := m.Snapshot(); !st.CanInvoke() {
		hint := ""
		if st.CanDownload() {
			hint = fmt.Sprintf(" (run 'capctl download %s' or pass --download)", kind)
		}
		return fmt.Errorf("%s cannot be used while %s%s", kind.DisplayName(), describeState(st), hint)
	}

	h, err := m.Instantiate(ctx, opts)
	if err != nil {
		return errors.New(capability.UserMessage(kind, err))
	}
	defer func() {
		if err := h.Close(); err != nil {
			logging.Warn("CLI", "Failed to close %s: %v", kind, err)
		}
	}()

	out := cmd.OutOrStdout()
	inv := invocation.NewInvoker(kind)

	var res invocation.Result
	if flags.stream {
		written := 0
		res, err = inv.InvokeStreaming(ctx, h, input, func(accumulated string) {
			fmt.Fprint(out, accumulated[written:])
			written = len(accumulated)
		})
		if err == nil && res.Outcome == invocation.OutcomeCompleted {
			fmt.Fprintln(out)
		}
	} else {
		res, err = inv.Invoke(ctx, h, input)
		if err == nil && res.Outcome == invocation.OutcomeCompleted {
			fmt.Fprintln(out, res.Output)
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", kind.DisplayName(), err)
	}

	if res.Outcome == invocation.OutcomeCancelled {
		if !flags.stream && res.Output != "" {
			fmt.Fprint(out, res.Output)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(cmd.ErrOrStderr(), "(cancelled)")
		return invocation.ErrCancelled
	}
	logging.Debug("CLI", "%s finished in %s with %d chunks", kind, res.Duration, res.Chunks)
	return nil
}

// readInput joins the arguments, or reads standard input when there are none
// or the only argument is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var input string
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		input = string(data)
	} else {
		input = strings.Join(args, " ")
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no input given")
	}
	return input, nil
}

func addInvokeFlags(cmd *cobra.Command, flags *invokeFlags) {
	cmd.Flags().BoolVarP(&flags.stream, "stream", "s", false, "Print the answer as it is generated")
	cmd.Flags().BoolVar(&flags.download, "download", false, "Download missing resources before running")
}

func init() {
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(proofreadCmd)

	addInvokeFlags(promptCmd, &promptFlags)
	promptCmd.Flags().StringVar(&promptSystem, "system", "", "System prompt (default from configuration)")
	promptCmd.Flags().Float64Var(&promptTemperature, "temperature", 0, "Sampling temperature in [0, 2]")

	addInvokeFlags(translateCmd, &translateFlags)
	translateCmd.Flags().StringVar(&translateFrom, "from", "", "Source language code (default from configuration)")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "Target language code (default from configuration)")

	addInvokeFlags(summarizeCmd, &summarizeFlags)
	summarizeCmd.Flags().StringVar(&summarizeType, "type", "", "Summary type (key-points, tldr, teaser, headline)")
	summarizeCmd.Flags().StringVar(&summarizeFormat, "format", "", "Summary format (markdown, plain-text)")
	summarizeCmd.Flags().StringVar(&summarizeLength, "length", "", "Summary length (short, medium, long)")

	addInvokeFlags(proofreadCmd, &proofreadFlags)
	proofreadCmd.Flags().StringSliceVar(&proofreadLanguages, "languages", nil, "Expected input language codes (default from configuration)")
}
