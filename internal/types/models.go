// internal/types/models.go
package types

import (
	"io"
	"time"
)

// LLMService is the health-report key for the inference backend.
const LLMService = "llm_service"

type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// HealthStatus is the backend's self-reported health. Services may be nil
// when the backend could not be reached.
type HealthStatus struct {
	Status   HealthState     `json:"status"`
	Services map[string]bool `json:"services,omitempty"`
}

// UnknownHealth is the status before any health check has completed.
func UnknownHealth() HealthStatus {
	return HealthStatus{Status: HealthUnknown}
}

// ServiceAvailable reports the availability of a named service and whether
// the backend reported it at all.
func (h HealthStatus) ServiceAvailable(name string) (available, known bool) {
	available, known = h.Services[name]
	return available, known
}

// AIOffline reports whether chat input must be gated. A reported
// llm_service value decides; without one, an unhealthy backend (including
// one that could not be reached) counts as offline.
func (h HealthStatus) AIOffline() bool {
	available, known := h.ServiceAvailable(LLMService)
	if known {
		return !available
	}
	return h.Status == HealthUnhealthy
}

type UploadedFile struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// File is a local upload candidate.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Content  io.Reader
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Confidence is the backend's self-assessed answer quality. The zero value
// means the backend did not report one.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps a wire value to a Confidence, dropping anything
// unrecognised.
func ParseConfidence(s string) Confidence {
	switch c := Confidence(s); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ""
	}
}

type Source struct {
	DocumentName   string  `json:"document_name"`
	RelevanceScore float64 `json:"relevance_score"`
}

type ChatMessage struct {
	ID         MessageID  `json:"id"`
	Text       string     `json:"text"`
	Sender     Sender     `json:"sender"`
	Timestamp  time.Time  `json:"timestamp"`
	Sources    []Source   `json:"sources"`
	Confidence Confidence `json:"confidence,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

type ChatReply struct {
	Text       string
	Sources    []Source
	Confidence Confidence
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a user-facing notification. Topic is dot-separated, e.g.
// "upload.rejected" or "chat.failed".
type Event struct {
	Topic       string    `json:"topic"`
	Level       Level     `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}
