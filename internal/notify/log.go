package notify

import (
	"context"
	"log/slog"

	"github.com/user/hrassist/internal/types"
)

// LogHandler records notifications through slog at a level matching the
// event. Register it with an empty prefix to keep an audit of every toast.
func LogHandler(logger *slog.Logger) Handler {
	return func(event types.Event) error {
		level := slog.LevelInfo
		switch event.Level {
		case types.LevelWarning:
			level = slog.LevelWarn
		case types.LevelError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, event.Title,
			"topic", event.Topic,
			"description", event.Description,
		)
		return nil
	}
}
