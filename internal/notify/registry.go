// internal/notify/registry.go
package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/user/hrassist/internal/types"
)

// Handler receives a notification.
type Handler func(event types.Event) error

type route struct {
	prefix  string
	handler Handler
}

// Registry routes notifications to every handler whose prefix matches the
// event topic (e.g. "upload.", "chat."). An empty prefix matches all
// topics. Handlers run in registration order.
type Registry struct {
	mu     sync.RWMutex
	routes []route
}

var _ types.Notifier = (*Registry)(nil)

// NewRegistry creates an empty notification registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a handler for topics starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{prefix: prefix, handler: handler})
}

// Deliver calls every matching handler. Returns an error if no handler is
// registered for the topic, or the first handler error.
func (r *Registry) Deliver(event types.Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		matched  bool
		firstErr error
	)
	for _, rt := range r.routes {
		if !strings.HasPrefix(event.Topic, rt.prefix) {
			continue
		}
		matched = true
		if err := rt.handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if !matched {
		return fmt.Errorf("no notification handler for topic: %s", event.Topic)
	}
	return firstErr
}

// Notify implements types.Notifier. Delivery failures are logged; a
// notification is never allowed to fail the operation that raised it.
func (r *Registry) Notify(event types.Event) {
	if err := r.Deliver(event); err != nil {
		slog.Debug("notification not delivered", "topic", event.Topic, "error", err)
	}
}

// Func adapts a plain function to types.Notifier.
type Func func(event types.Event)

func (f Func) Notify(event types.Event) { f(event) }
