// Package shell composes the upload and chat sessions behind a single
// health check and a two-view selector.
package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/types"
	"github.com/user/hrassist/internal/upload"
)

// View selects which panel a front end shows.
type View string

const (
	ViewUpload View = "upload"
	ViewChat   View = "chat"
)

// ErrChatUnavailable is returned when the chat view is requested before any
// document has been uploaded.
var ErrChatUnavailable = errors.New("upload a document before chatting")

// ParseView maps a view name to a View.
func ParseView(name string) (View, error) {
	switch View(name) {
	case ViewUpload, ViewChat:
		return View(name), nil
	default:
		return "", fmt.Errorf("unknown view: %s", name)
	}
}

// Option configures optional behavior on a Shell.
type Option func(*Shell)

// WithNotifier sets the notification collaborator shared by both sessions.
func WithNotifier(n types.Notifier) Option {
	return func(s *Shell) { s.notifier = n }
}

// WithTranscriptStore persists the chat transcript.
func WithTranscriptStore(store types.TranscriptStore) Option {
	return func(s *Shell) { s.store = store }
}

// Shell owns the backend health, the uploaded-file registry and the active
// view. It is safe for concurrent use.
type Shell struct {
	backend  types.Backend
	notifier types.Notifier
	store    types.TranscriptStore

	upload *upload.Session
	chat   *chat.Session

	mount   sync.Once
	refresh singleflight.Group

	mu     sync.RWMutex
	health types.HealthStatus
	files  []types.UploadedFile
	view   View
}

// New creates a shell on the upload view with unknown health.
func New(backend types.Backend, opts ...Option) *Shell {
	s := &Shell{
		backend: backend,
		health:  types.UnknownHealth(),
		view:    ViewUpload,
	}
	for _, opt := range opts {
		opt(s)
	}

	uploadOpts := []upload.Option{upload.WithSink(s), upload.WithObserver(logUploadState)}
	chatOpts := []chat.Option{chat.WithHealth(s.Health)}
	if s.notifier != nil {
		uploadOpts = append(uploadOpts, upload.WithNotifier(s.notifier))
		chatOpts = append(chatOpts, chat.WithNotifier(s.notifier))
	}
	if s.store != nil {
		chatOpts = append(chatOpts, chat.WithTranscriptStore(s.store))
	}
	s.upload = upload.NewSession(backend, uploadOpts...)
	s.chat = chat.NewSession(backend, chatOpts...)
	return s
}

func logUploadState(from, to upload.State) {
	slog.Debug("upload state", "from", from, "to", to)
}

// Mount performs the shell's one health check. Later calls return the
// stored status without contacting the backend.
func (s *Shell) Mount(ctx context.Context) types.HealthStatus {
	s.mount.Do(func() {
		s.setHealth(s.backend.CheckHealth(ctx))
	})
	return s.Health()
}

// RefreshHealth re-checks the backend. Concurrent callers share a single
// request. Only the stored health changes.
func (s *Shell) RefreshHealth(ctx context.Context) types.HealthStatus {
	v, _, _ := s.refresh.Do("health", func() (any, error) {
		status := s.backend.CheckHealth(ctx)
		s.setHealth(status)
		return status, nil
	})
	return v.(types.HealthStatus)
}

func (s *Shell) setHealth(status types.HealthStatus) {
	s.mu.Lock()
	s.health = status
	s.mu.Unlock()
	slog.Info("backend health", "status", status.Status, "ai_offline", status.AIOffline())
}

// Health returns the most recently observed backend health.
func (s *Shell) Health() types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// Accept records a confirmed upload and switches to the chat view.
func (s *Shell) Accept(file types.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, file)
	s.view = ViewChat
	slog.Info("document registered", "name", file.Name, "documents", len(s.files))
}

// Files returns the uploaded files in upload order.
func (s *Shell) Files() []types.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.UploadedFile, len(s.files))
	copy(out, s.files)
	return out
}

// View returns the active view.
func (s *Shell) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// ChatAvailable reports whether the chat view may be selected.
func (s *Shell) ChatAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files) > 0
}

// SetView switches the active view.
func (s *Shell) SetView(view View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch view {
	case ViewUpload:
	case ViewChat:
		if len(s.files) == 0 {
			return ErrChatUnavailable
		}
	default:
		return fmt.Errorf("unknown view: %s", view)
	}
	s.view = view
	return nil
}

// Upload runs one upload attempt. On success the file is registered and the
// chat view selected.
func (s *Shell) Upload(ctx context.Context, file *types.File) (*types.UploadedFile, error) {
	return s.upload.Attempt(ctx, file)
}

// Uploads exposes the upload session for state queries.
func (s *Shell) Uploads() *upload.Session {
	return s.upload
}

// Chat exposes the chat session.
func (s *Shell) Chat() *chat.Session {
	return s.chat
}
