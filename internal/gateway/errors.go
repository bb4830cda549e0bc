package gateway

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Kind classifies a failed chat query.
type Kind string

const (
	KindServerError       Kind = "server_error"
	KindConnectionRefused Kind = "connection_refused"
	KindOther             Kind = "other"
)

// ChatError is returned by SendQuery. StatusCode is zero when no HTTP
// response was received.
type ChatError struct {
	StatusCode int
	Kind       Kind
	Err        error
}

func (e *ChatError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat query failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat query failed (%s): %v", e.Kind, e.Err)
}

func (e *ChatError) Unwrap() error { return e.Err }

// Reason classifies a failed upload.
type Reason string

const (
	ReasonServer    Reason = "server"
	ReasonTransport Reason = "transport"
)

// UploadError is returned by UploadDocument. ServerMessage carries the
// backend's {"error": ...} text when it sent one.
type UploadError struct {
	Reason        Reason
	StatusCode    int
	ServerMessage string
	Err           error
}

func (e *UploadError) Error() string {
	switch {
	case e.ServerMessage != "":
		return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.ServerMessage)
	case e.StatusCode != 0:
		return fmt.Sprintf("upload failed (status %d)", e.StatusCode)
	default:
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
}

func (e *UploadError) Unwrap() error { return e.Err }

// classifyStatus maps a non-2xx status to a Kind.
func classifyStatus(code int) Kind {
	if code >= 500 && code <= 599 {
		return KindServerError
	}
	return KindOther
}

// classifyTransport distinguishes a refused connection from every other
// transport failure. The errno check covers the usual case; the message
// check catches wrapped errors from proxies and platforms that lose it.
func classifyTransport(err error) Kind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
		return KindConnectionRefused
	}
	return KindOther
}
