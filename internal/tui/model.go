package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"capctl/internal/invocation"
	"capctl/internal/lifecycle"
	"capctl/pkg/logging"
)

// Config describes the page to show.
type Config struct {
	Controller lifecycle.Controller
	// Backend is shown in the header.
	Backend string
	// Stream selects streaming invocation initially.
	Stream bool
	// LogChannel, when set, feeds the activity log.
	LogChannel <-chan logging.LogEntry
}

// Model is the state of one capability page.
type Model struct {
	ctx     context.Context
	ctrl    lifecycle.Controller
	backend string
	invoker *invocation.Invoker
	sub     *lifecycle.Subscription
	logChan <-chan logging.LogEntry
	// partials carries accumulated streaming output from the invocation
	// goroutine to Update.
	partials chan partialMsg

	state       lifecycle.State
	stream      bool
	downloading bool
	invoking    bool
	lastInput   string
	output      string
	activity    []string

	statusMessage string
	statusIsError bool
	statusSeq     int

	width, height int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	bar      progress.Model
	help     help.Model
	keys     KeyMap
}

// NewModel creates the page model and subscribes to the controller.
func NewModel(ctx context.Context, cfg Config) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type here and press enter"
	ti.CharLimit = 4000
	ti.Width = 60
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		ctx:      ctx,
		ctrl:     cfg.Controller,
		backend:  cfg.Backend,
		invoker:  invocation.NewInvoker(cfg.Controller.Kind()),
		sub:      cfg.Controller.Subscribe(0),
		logChan:  cfg.LogChannel,
		partials: make(chan partialMsg, partialBuffer),
		state:    cfg.Controller.Snapshot(),
		stream:   cfg.Stream,
		input:    ti,
		viewport: viewport.New(80, 10),
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
}

// Init starts the background listeners.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		textinput.Blink,
		waitForState(m.sub),
		waitForPartial(m.partials),
	}
	if m.logChan != nil {
		cmds = append(cmds, waitForLog(m.logChan))
	}
	return tea.Batch(cmds...)
}

// Output returns the last invocation output.
func (m *Model) Output() string { return m.output }

// State returns the last observed lifecycle state.
func (m *Model) State() lifecycle.State { return m.state }

func (m *Model) appendActivity(line string) {
	m.activity = append(m.activity, line)
	if len(m.activity) > maxActivityLines {
		m.activity = m.activity[len(m.activity)-maxActivityLines:]
	}
}
