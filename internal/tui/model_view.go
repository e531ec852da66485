package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/mattn/go-runewidth"

	"capctl/internal/capability"
)

// activityLines is how many log lines the page shows.
const activityLines = 5

// View renders the page.
func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("capctl · %s", m.ctrl.Kind().DisplayName())
	if m.backend != "" {
		title += fmt.Sprintf(" (%s)", m.backend)
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	switch {
	case m.state.Status == capability.StatusDownloading || m.downloading:
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(m.state.DownloadProgress / 100))
		b.WriteString(fmt.Sprintf(" %3.0f%%\n", m.state.DownloadProgress))
	case m.state.CanDownload():
		b.WriteString("\nPress d to download.\n")
	case m.state.CanInvoke():
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.invoking || m.output != "" {
		header := "Output"
		if m.invoking {
			header = m.spinner.View() + " Working"
			if m.lastInput != "" {
				header += ": " + truncate(m.lastInput, max(m.width-14, 20))
			}
		}
		b.WriteString("\n")
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(m.viewport.View()))
		b.WriteString("\n")
	}

	if lines := m.renderActivity(); lines != "" {
		b.WriteString("\n")
		b.WriteString(lines)
	}

	b.WriteString("\n")
	if m.statusMessage != "" {
		if m.statusIsError {
			b.WriteString(errorStyle.Render(m.statusMessage))
		} else {
			b.WriteString(statusBarStyle.Render(m.statusMessage))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.helpBindings()))
	return b.String()
}

func (m *Model) renderStatus() string {
	st := m.state
	var line string
	switch st.Status {
	case capability.StatusAvailable:
		line = statusAvailableStyle.Render(IconCheck + " available")
	case capability.StatusDownloading:
		line = statusPendingStyle.Render(IconHourglass + " downloading")
	case capability.StatusDownloadable:
		line = statusPendingStyle.Render(IconDownload + " downloadable")
	case capability.StatusUnavailable:
		line = errorStyle.Render(IconCross + " unavailable")
	default:
		line = statusPendingStyle.Render(IconInfo + " unknown")
	}
	if m.stream {
		line += "  " + logLineStyle.Render("(streaming)")
	}
	if st.Error != "" {
		line += "\n" + errorStyle.Render(IconWarning+" "+st.Error)
	}
	return line
}

func (m *Model) renderActivity() string {
	if len(m.activity) == 0 {
		return ""
	}
	start := max(len(m.activity)-activityLines, 0)
	width := m.width
	if width <= 0 {
		width = 80
	}

	var lines []string
	for _, l := range m.activity[start:] {
		lines = append(lines, logLineStyle.Render(truncate(l, width)))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) helpBindings() []key.Binding {
	bindings := []key.Binding{m.keys.Quit, m.keys.Refresh}
	switch {
	case m.invoking:
		bindings = append(bindings, m.keys.Cancel)
	case m.state.CanInvoke():
		bindings = append(bindings, m.keys.Submit, m.keys.ToggleStream)
	case m.state.CanDownload():
		bindings = append(bindings, m.keys.Download)
	}
	if m.output != "" {
		bindings = append(bindings, m.keys.Copy, m.keys.ScrollUp, m.keys.ScrollDown)
	}
	return bindings
}

// truncate shortens s to width terminal cells.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
