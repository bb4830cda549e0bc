package tui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/hrassist/internal/types"
)

// Toasts is a notifier that feeds notifications into the UI loop.
type Toasts chan types.Event

// NewToasts creates a Toasts queue with room for a burst of notifications.
func NewToasts() Toasts {
	return make(Toasts, 16)
}

// Notify queues event for display. It never blocks; when the queue is full
// the event is dropped.
func (t Toasts) Notify(event types.Event) {
	select {
	case t <- event:
	default:
		slog.Debug("toast dropped", "topic", event.Topic)
	}
}

type toastMsg types.Event

func (t Toasts) wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-t)
	}
}
