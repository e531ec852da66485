package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"capctl/internal/capability"
	"capctl/internal/invocation"
	"capctl/internal/lifecycle"
	"capctl/pkg/logging"
)

type stateMsg lifecycle.StateChangeEvent

// subscriptionClosedMsg means the manager was closed.
type subscriptionClosedMsg struct{}

type logMsg logging.LogEntry

type partialMsg string

type downloadDoneMsg struct{ err error }

type refreshDoneMsg struct{ err error }

type invokeDoneMsg struct {
	result invocation.Result
	err    error
}

type clearStatusMsg struct{ seq int }

type copyDoneMsg struct{ err error }

func waitForState(sub *lifecycle.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Channel
		if !ok {
			return subscriptionClosedMsg{}
		}
		return stateMsg(ev)
	}
}

func waitForLog(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(entry)
	}
}

func waitForPartial(ch <-chan partialMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func downloadCmd(ctx context.Context, ctrl lifecycle.Controller) tea.Cmd {
	return func() tea.Msg {
		return downloadDoneMsg{err: ctrl.DownloadDefault(ctx, nil)}
	}
}

func refreshCmd(ctx context.Context, ctrl lifecycle.Controller) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: ctrl.Refresh(ctx)}
	}
}

// invokeCmd instantiates the capability and runs one invocation. Streamed
// partials are offered to the page without blocking; the final output always
// arrives with invokeDoneMsg.
func invokeCmd(ctx context.Context, ctrl lifecycle.Controller, inv *invocation.Invoker, input string, stream bool, partials chan<- partialMsg) tea.Cmd {
	return func() tea.Msg {
		h, err := ctrl.InstantiateDefault(ctx)
		if err != nil {
			return invokeDoneMsg{err: err}
		}
		defer h.Close()

		if !stream {
			res, err := inv.Invoke(ctx, h, input)
			return invokeDoneMsg{result: res, err: err}
		}
		res, err := inv.InvokeStreaming(ctx, h, input, func(accumulated string) {
			select {
			case partials <- partialMsg(accumulated):
			default:
			}
		})
		return invokeDoneMsg{result: res, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyDoneMsg{err: clipboard.WriteAll(text)}
	}
}

func (m *Model) setStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = msg
	m.statusIsError = isError
	seq := m.statusSeq
	return tea.Tick(statusMessageTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func errorText(kind capability.Kind, err error) string {
	return fmt.Sprintf("%s: %s", kind.DisplayName(), capability.UserMessage(kind, err))
}
