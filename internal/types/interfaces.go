// internal/types/interfaces.go
package types

import (
	"context"
)

// Backend is the document QA service. It is the only collaborator that
// performs network I/O.
type Backend interface {
	CheckHealth(ctx context.Context) HealthStatus
	UploadDocument(ctx context.Context, file *File) (*UploadedFile, error)
	SendQuery(ctx context.Context, text string) (*ChatReply, error)
}

type Notifier interface {
	Notify(event Event)
}

type TranscriptStore interface {
	Append(ctx context.Context, sessionID SessionID, msg *ChatMessage) error
	Load(ctx context.Context, sessionID SessionID) ([]*ChatMessage, error)
	Count(ctx context.Context, sessionID SessionID) (int64, error)
}
