package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"capctl/pkg/logging"
)

// Run shows the capability page until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	m := NewModel(ctx, cfg)
	defer m.ctrl.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		logging.Error("TUI-Lifecycle", err, "Error running TUI program")
		return err
	}
	m.invoker.Cancel()
	logging.Info("TUI-Lifecycle", "TUI exited.")
	return nil
}
