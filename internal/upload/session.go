// Package upload tracks upload attempts from file selection through
// transfer to the backend.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/hrassist/internal/gateway"
	"github.com/user/hrassist/internal/types"
)

// State is the lifecycle state of an upload attempt.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateTransferring State = "transferring"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// ErrBusy is returned when an attempt is made while another is in flight.
var ErrBusy = errors.New("an upload is already in progress")

const genericFailure = "Failed to upload file"

// Uploader transfers a validated file to the backend.
type Uploader interface {
	UploadDocument(ctx context.Context, file *types.File) (*types.UploadedFile, error)
}

// Sink receives every confirmed upload.
type Sink interface {
	Accept(file types.UploadedFile)
}

// Outcome describes how the most recent attempt ended.
type Outcome struct {
	State  State
	File   *types.UploadedFile
	Reason string
}

// Option configures optional behavior on a Session.
type Option func(*Session)

// WithNotifier sets the notification collaborator.
func WithNotifier(n types.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithSink sets the receiver of confirmed uploads.
func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithObserver sets a callback invoked on every state transition. The
// callback runs with the session locked and must not call back into it.
func WithObserver(fn func(from, to State)) Option {
	return func(s *Session) { s.observer = fn }
}

// Session runs one upload attempt at a time. After every attempt the
// session returns to idle and is ready for another.
type Session struct {
	uploader Uploader
	notifier types.Notifier
	sink     Sink
	observer func(from, to State)
	inflight *semaphore.Weighted

	mu    sync.RWMutex
	state State
	last  Outcome
}

// NewSession creates an idle Session that transfers files through uploader.
func NewSession(uploader Uploader, opts ...Option) *Session {
	s := &Session{
		uploader: uploader,
		inflight: semaphore.NewWeighted(1),
		state:    StateIdle,
		last:     Outcome{State: StateIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsUploading reports whether a transfer is in flight. Front ends use it to
// gate new submissions.
func (s *Session) IsUploading() bool {
	return s.State() == StateTransferring
}

// Last returns the outcome of the most recent finished attempt.
func (s *Session) Last() Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Attempt validates file and, if it passes, uploads it. A nil file is a
// "no file selected" rejection. Rejections never reach the backend.
func (s *Session) Attempt(ctx context.Context, file *types.File) (*types.UploadedFile, error) {
	if !s.inflight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer s.inflight.Release(1)

	s.transition(StateValidating)
	if err := Validate(file); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		s.notify(verr.Topic(), verr.Level(), verr.Title, verr.Description)
		s.finish(Outcome{State: StateFailed, Reason: verr.Description})
		return nil, err
	}

	s.transition(StateTransferring)
	slog.Info("uploading document", "name", file.Name, "size", file.Size)

	uploaded, err := s.uploader.UploadDocument(ctx, file)
	if err != nil {
		reason := genericFailure
		var uploadErr *gateway.UploadError
		if errors.As(err, &uploadErr) && uploadErr.ServerMessage != "" {
			reason = uploadErr.ServerMessage
		}
		slog.Error("upload failed", "name", file.Name, "error", err)
		s.notify("upload.failed", types.LevelError, "Upload failed", reason)
		s.finish(Outcome{State: StateFailed, Reason: reason})
		return nil, fmt.Errorf("upload %s: %w", file.Name, err)
	}

	s.mu.Lock()
	s.setState(StateSucceeded)
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Accept(*uploaded)
	}
	s.notify("upload.succeeded", types.LevelSuccess, "Success!",
		fmt.Sprintf("%s has been uploaded and processed.", uploaded.Name))
	s.finish(Outcome{State: StateSucceeded, File: uploaded})
	return uploaded, nil
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(to)
}

// setState changes state and fires the observer. Caller must hold mu.
func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	if s.observer != nil {
		s.observer(from, to)
	}
}

// finish records the terminal state of an attempt and resets to idle.
func (s *Session) finish(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != outcome.State {
		s.setState(outcome.State)
	}
	s.last = outcome
	s.setState(StateIdle)
}

func (s *Session) notify(topic string, level types.Level, title, description string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(types.Event{
		Topic:       topic,
		Level:       level,
		Title:       title,
		Description: description,
	})
}
