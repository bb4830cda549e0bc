package shell

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/gateway"
	"github.com/user/hrassist/internal/notify"
	"github.com/user/hrassist/internal/types"
	"github.com/user/hrassist/internal/upload"
)

// fakeBackend serves the three backend endpoints.
type fakeBackend struct {
	healthCalls atomic.Int32
	uploads     atomic.Int32
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		f.healthCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "healthy",
			"services": map[string]bool{"llm_service": true},
		})
	case "/upload":
		f.uploads.Add(1)
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "No file provided"})
			return
		}
		io.Copy(io.Discard, file)
		json.NewEncoder(w).Encode(map[string]string{
			"message":  "File processed successfully",
			"filename": header.Filename,
		})
	case "/chat":
		var req struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "What is the PTO policy?" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"response":   "You get 15 days.",
			"sources":    []map[string]any{{"document": "handbook.pdf", "relevance_score": 0.92}},
			"confidence": "high",
		})
	default:
		http.NotFound(w, r)
	}
}

func TestShellAgainstBackend(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(backend)
	defer server.Close()

	var events []types.Event
	s := New(gateway.New(&gateway.Config{BaseURL: server.URL}),
		WithNotifier(notify.Func(func(e types.Event) { events = append(events, e) })))

	if status := s.Mount(context.Background()); status.AIOffline() {
		t.Fatalf("expected AI online, got %+v", status)
	}

	file := &types.File{
		Name:     "handbook.pdf",
		MIMEType: upload.AcceptedMIMEType,
		Size:     int64(len("%PDF-1.4 test")),
		Content:  strings.NewReader("%PDF-1.4 test"),
	}
	uploaded, err := s.Upload(context.Background(), file)
	if err != nil {
		t.Fatal(err)
	}
	if uploaded.Name != "handbook.pdf" {
		t.Errorf("expected handbook.pdf, got %s", uploaded.Name)
	}
	if s.View() != ViewChat {
		t.Errorf("expected chat view, got %s", s.View())
	}
	if len(events) != 1 || events[0].Title != "Success!" {
		t.Errorf("expected one success notification, got %+v", events)
	}

	answer, err := s.Chat().Submit(context.Background(), "What is the PTO policy?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != "You get 15 days." || answer.Confidence != types.ConfidenceHigh {
		t.Errorf("unexpected answer %+v", answer)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].RelevanceScore != 0.92 {
		t.Errorf("unexpected sources %+v", answer.Sources)
	}

	answer, err = s.Chat().Submit(context.Background(), "something else")
	if err != nil {
		t.Fatal(err)
	}
	if !answer.IsError || answer.Text != chat.ServerErrorText {
		t.Errorf("expected server error message, got %+v", answer)
	}

	s.Mount(context.Background())
	if got := backend.healthCalls.Load(); got != 1 {
		t.Errorf("expected exactly 1 health request, got %d", got)
	}
	if got := backend.uploads.Load(); got != 1 {
		t.Errorf("expected 1 upload request, got %d", got)
	}
}

func TestShellBackendDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := New(gateway.New(&gateway.Config{BaseURL: url}))
	status := s.Mount(context.Background())

	if status.Status != types.HealthUnhealthy {
		t.Errorf("expected unhealthy, got %s", status.Status)
	}
	if s.Chat().InputEnabled() {
		t.Error("expected chat input disabled")
	}
	if s.Chat().Placeholder() != chat.OfflinePlaceholder {
		t.Errorf("expected offline placeholder, got %q", s.Chat().Placeholder())
	}
}
