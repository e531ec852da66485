package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	// maxActivityLines bounds the activity log kept in the model.
	maxActivityLines = 200
	// statusMessageTTL is how long a transient status message stays visible.
	statusMessageTTL = 3 * time.Second
	// partialBuffer is the number of pending streamed partials.
	partialBuffer = 16
)

const (
	IconCheck     = "✔"
	IconCross     = "❌"
	IconWarning   = "⚠"
	IconHourglass = "⏳"
	IconDownload  = "⬇"
	IconInfo      = "ℹ"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#303030"}).
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#585858"}).
			Padding(0, 1)

	statusAvailableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#006400", Dark: "#8FBC8F"})

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#8B4513", Dark: "#FFD700"})

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#8B0000", Dark: "#FF6B6B"})

	logLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"})

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#303030", Dark: "#E0E0E0"}).
			Italic(true)
)
