package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"capctl/internal/invocation"
	"capctl/pkg/logging"
)

const subsystem = "TUI"

// Update handles messages and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height/2, 3)
		m.bar.Width = max(min(msg.Width-20, 60), 10)
		m.viewport.SetContent(m.output)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.state = msg.New
		return m, waitForState(m.sub)

	case subscriptionClosedMsg:
		return m, nil

	case logMsg:
		line := fmt.Sprintf("%s [%s] %s", msg.Timestamp.Format("15:04:05"), msg.Subsystem, msg.Message)
		if msg.Err != nil {
			line += ": " + msg.Err.Error()
		}
		m.appendActivity(line)
		return m, waitForLog(m.logChan)

	case partialMsg:
		if m.invoking {
			m.setOutput(string(msg))
		}
		return m, waitForPartial(m.partials)

	case downloadDoneMsg:
		m.downloading = false
		m.state = m.ctrl.Snapshot()
		if msg.err != nil {
			logging.Error(subsystem, msg.err, "Download of %s failed", m.ctrl.Kind())
			return m, m.setStatusMessage(errorText(m.ctrl.Kind(), msg.err), true)
		}
		return m, m.setStatusMessage(fmt.Sprintf("%s is %s", m.ctrl.Kind().DisplayName(), m.state.Status), false)

	case refreshDoneMsg:
		m.state = m.ctrl.Snapshot()
		if msg.err != nil {
			return m, m.setStatusMessage(errorText(m.ctrl.Kind(), msg.err), true)
		}
		return m, nil

	case invokeDoneMsg:
		return m.handleInvokeDone(msg)

	case copyDoneMsg:
		if msg.err != nil {
			logging.Error(subsystem, msg.err, "Failed to copy output")
			return m, m.setStatusMessage("Copy failed", true)
		}
		return m, m.setStatusMessage("Output copied to clipboard", false)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.invoker.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.invoker.Cancel() {
			return m, m.setStatusMessage("Cancelling...", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.output == "" {
			return m, nil
		}
		return m, copyCmd(m.output)

	case key.Matches(msg, m.keys.ToggleStream):
		m.stream = !m.stream
		mode := "off"
		if m.stream {
			mode = "on"
		}
		return m, m.setStatusMessage("Streaming "+mode, false)

	case key.Matches(msg, m.keys.Refresh):
		return m, refreshCmd(m.ctx, m.ctrl)

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if !m.state.CanInvoke() {
		if key.Matches(msg, m.keys.Download) && m.state.CanDownload() && !m.downloading {
			m.downloading = true
			logging.Info(subsystem, "Downloading %s", m.ctrl.Kind())
			return m, downloadCmd(m.ctx, m.ctrl)
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" || m.invoking {
		return m, nil
	}
	m.invoking = true
	m.lastInput = input
	m.input.SetValue("")
	m.setOutput("")
	m.ctrl.ClearError()
	return m, invokeCmd(m.ctx, m.ctrl, m.invoker, input, m.stream, m.partials)
}

func (m *Model) handleInvokeDone(msg invokeDoneMsg) (tea.Model, tea.Cmd) {
	m.invoking = false
	m.setOutput(msg.result.Output)

	kind := m.ctrl.Kind()
	switch {
	case msg.err != nil:
		m.ctrl.SetError(errorText(kind, msg.err))
		return m, m.setStatusMessage("Request failed", true)
	case msg.result.Outcome == invocation.OutcomeCancelled:
		m.ctrl.SetError(fmt.Sprintf("%s aborted", kind.DisplayName()))
		return m, nil
	}
	return m, m.setStatusMessage(fmt.Sprintf("Done in %s", msg.result.Duration.Round(time.Millisecond)), false)
}

func (m *Model) setOutput(s string) {
	m.output = s
	m.viewport.SetContent(s)
	m.viewport.GotoBottom()
}
