package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/hrassist/internal/gateway"
	"github.com/user/hrassist/internal/notify"
	"github.com/user/hrassist/internal/scheduler"
	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/state"
	"github.com/user/hrassist/internal/types"
)

// newClient builds the backend gateway from config.
func newClient() *gateway.Client {
	return gateway.New(&gateway.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Timeout(),
	})
}

// newNotifier logs every notification and passes it on to display, if set.
func newNotifier(display types.Notifier) *notify.Registry {
	registry := notify.NewRegistry()
	registry.Register("", notify.LogHandler(slog.Default()))
	if display != nil {
		registry.Register("", func(event types.Event) error {
			display.Notify(event)
			return nil
		})
	}
	return registry
}

// shellOptions returns the config-driven shell options shared by every
// front end.
func shellOptions() ([]shell.Option, error) {
	var opts []shell.Option
	if cfg.Transcript.Enabled {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		opts = append(opts, shell.WithTranscriptStore(state.NewTranscriptStore(cfg.DataDir)))
	}
	return opts, nil
}

// newShell wires a shell to backend with the configured options.
func newShell(backend types.Backend, notifier types.Notifier) (*shell.Shell, error) {
	opts, err := shellOptions()
	if err != nil {
		return nil, err
	}
	return shell.New(backend, append(opts, shell.WithNotifier(notifier))...), nil
}

// startHealthRefresh schedules periodic health checks when configured.
// The returned stop function is always safe to call.
func startHealthRefresh(s *shell.Shell) func() {
	if cfg.Health.RefreshSchedule == "" {
		return func() {}
	}
	sched := scheduler.New(scheduler.HealthRefresh(cfg.Health.RefreshSchedule, s))
	sched.Start()
	return sched.Stop
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// toastPrinter writes notifications for line-oriented front ends.
func toastPrinter(w io.Writer) notify.Func {
	return func(event types.Event) {
		fmt.Fprintf(w, "[%s] %s\n", event.Title, event.Description)
	}
}
