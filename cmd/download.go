package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"capctl/internal/capability"
	"capctl/internal/lifecycle"
	"capctl/pkg/logging"
)

var (
	downloadRetries uint64
	downloadQuiet   bool
	downloadOutput  string
)

var downloadCmd = &cobra.Command{
	Use:   "download [kind...]",
	Short: "Download the resources capabilities need",
	Long: `Download models or other resources so capabilities become available.

With explicit kinds each of them must be downloadable; kinds that are already
available are left alone. Without arguments every downloadable capability is
fetched. Downloads run concurrently and transient failures are retried with
exponential backoff.

Examples:
  capctl download translator
  capctl download --retries 5
  capctl download summarizer proofreader -o json`,
	ValidArgs: kindNames(),
	RunE:      runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(downloadOutput)
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

	var targets []lifecycle.Controller
	for _, kind := range kinds {
		c, err := application.Controller(kind)
		if err != nil {
			return err
		}
		st := c.Snapshot()
		switch {
		case st.CanDownload():
			targets = append(targets, c)
		case st.CanInvoke():
			logging.Info("CLI", "%s is already available", kind.DisplayName())
		case len(args) > 0:
			return fmt.Errorf("%s cannot be downloaded while %s", kind.DisplayName(), describeState(st))
		}
	}

	if len(targets) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to download.")
	}

	progress := &progressPrinter{w: cmd.ErrOrStderr(), quiet: downloadQuiet}
	g, ctx := errgroup.WithContext(cmd.Context())
	for _, c := range targets {
		g.Go(func() error {
			return downloadWithRetry(ctx, c, downloadRetries, progress.forKind(c.Kind()))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var rows []statusRow
	for _, kind := range kinds {
		c, _ := application.Controller(kind)
		rows = append(rows, newStatusRow(c))
	}
	return writeRows(cmd.OutOrStdout(), format, rows)
}

// downloadWithRetry downloads c, retrying transient failures up to retries
// times. Support and availability rejections are never retried.
func downloadWithRetry(ctx context.Context, c lifecycle.Controller, retries uint64, onProgress capability.ProgressFunc) error {
	name := c.Kind().DisplayName()

	op := func() error {
		st := c.Snapshot()
		if st.CanInvoke() {
			return nil
		}
		if !st.CanDownload() {
			return backoff.Permanent(fmt.Errorf("%s cannot be downloaded while %s", name, describeState(st)))
		}
		err := c.DownloadDefault(ctx, onProgress)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil,
			errors.Is(err, capability.ErrNotSupported),
			errors.Is(err, capability.ErrUnavailable):
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		logging.Warn("CLI", "Download of %s failed (%v), retrying in %s", name, err, next.Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("failed to download %s: %s", name, capability.UserMessage(c.Kind(), err))
	}
	return nil
}

// progressPrinter serializes progress lines of concurrent downloads.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
}

func (p *progressPrinter) forKind(kind capability.Kind) capability.ProgressFunc {
	if p.quiet {
		return nil
	}
	return func(percent float64) {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.w, "%s: %3.0f%%\n", kind.DisplayName(), percent)
	}
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().Uint64Var(&downloadRetries, "retries", 3, "Retries for failed downloads")
	downloadCmd.Flags().BoolVarP(&downloadQuiet, "quiet", "q", false, "Do not print download progress")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "table", "Output format (table, json, yaml)")
}
