package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/hrassist/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&Config{BaseURL: server.URL})
}

// refusedURL returns an address nothing listens on.
func refusedURL(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func TestNewDefaultsBaseURL(t *testing.T) {
	c := New(&Config{})
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("expected %s, got %s", DefaultBaseURL, c.BaseURL())
	}
	c = New(&Config{BaseURL: "http://backend:5001/"})
	if c.BaseURL() != "http://backend:5001" {
		t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
	}
}

func TestCheckHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"services": map[string]bool{
				"document_processor": true,
				"vector_store":       true,
				"llm_service":        false,
			},
		})
	})

	status := client.CheckHealth(context.Background())
	if status.Status != types.HealthHealthy {
		t.Errorf("expected healthy, got %s", status.Status)
	}
	if available, known := status.ServiceAvailable(types.LLMService); !known || available {
		t.Errorf("expected llm_service reported down, got available=%v known=%v", available, known)
	}
	if !status.AIOffline() {
		t.Error("expected AI offline when llm_service is false")
	}
}

func TestCheckHealthUnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	})

	status := client.CheckHealth(context.Background())
	if status.Status != types.HealthUnknown {
		t.Errorf("expected unknown, got %s", status.Status)
	}
}

func TestCheckHealthNeverFails(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
	}{
		{"connection refused", New(&Config{BaseURL: refusedURL(t)})},
		{"server error", newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})},
		{"malformed body", newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.client.CheckHealth(context.Background())
			if status.Status != types.HealthUnhealthy {
				t.Errorf("expected unhealthy, got %s", status.Status)
			}
			if status.Services != nil {
				t.Errorf("expected no services, got %v", status.Services)
			}
		})
	}
}

func TestUploadDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if len(r.MultipartForm.File) != 1 {
			t.Errorf("expected exactly one file part, got %d", len(r.MultipartForm.File))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer f.Close()
		if hdr.Filename != "handbook.pdf" {
			t.Errorf("expected filename handbook.pdf, got %q", hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected part content type application/pdf, got %q", ct)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "%PDF-1.4 test" {
			t.Errorf("unexpected part body %q", data)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"message":  "Document uploaded and processed successfully",
			"filename": "handbook.pdf",
		})
	})

	file := &types.File{
		Name:     "handbook.pdf",
		MIMEType: "application/pdf",
		Size:     13,
		Content:  strings.NewReader("%PDF-1.4 test"),
	}
	uploaded, err := client.UploadDocument(context.Background(), file)
	if err != nil {
		t.Fatal(err)
	}
	if uploaded.Name != "handbook.pdf" {
		t.Errorf("expected name handbook.pdf, got %s", uploaded.Name)
	}
	if uploaded.SizeBytes != 13 {
		t.Errorf("expected size 13, got %d", uploaded.SizeBytes)
	}
	if uploaded.UploadedAt.IsZero() {
		t.Error("expected upload time to be set")
	}
}

func TestUploadDocumentEmptyBodyFallsBackToFileName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	file := &types.File{Name: "benefits.pdf", MIMEType: "application/pdf", Size: 3, Content: strings.NewReader("pdf")}
	uploaded, err := client.UploadDocument(context.Background(), file)
	if err != nil {
		t.Fatal(err)
	}
	if uploaded.Name != "benefits.pdf" {
		t.Errorf("expected benefits.pdf, got %s", uploaded.Name)
	}
}

func TestUploadDocumentServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Only PDF files are supported"}`))
	})

	file := &types.File{Name: "a.pdf", MIMEType: "application/pdf", Content: strings.NewReader("x")}
	_, err := client.UploadDocument(context.Background(), file)

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected *UploadError, got %T: %v", err, err)
	}
	if uploadErr.Reason != ReasonServer {
		t.Errorf("expected server reason, got %s", uploadErr.Reason)
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", uploadErr.StatusCode)
	}
	if uploadErr.ServerMessage != "Only PDF files are supported" {
		t.Errorf("unexpected server message %q", uploadErr.ServerMessage)
	}
}

func TestUploadDocumentTransportError(t *testing.T) {
	client := New(&Config{BaseURL: refusedURL(t)})

	file := &types.File{Name: "a.pdf", MIMEType: "application/pdf", Content: strings.NewReader("x")}
	_, err := client.UploadDocument(context.Background(), file)

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected *UploadError, got %T: %v", err, err)
	}
	if uploadErr.Reason != ReasonTransport {
		t.Errorf("expected transport reason, got %s", uploadErr.Reason)
	}
	if uploadErr.ServerMessage != "" {
		t.Errorf("expected no server message, got %q", uploadErr.ServerMessage)
	}
}

func TestSendQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["query"] != "What is the PTO policy?" {
			t.Errorf("unexpected query %v", req["query"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"response": "You get 15 days.",
			"sources": []map[string]any{
				{"document": "handbook.pdf", "relevance_score": 0.92},
			},
			"confidence": "high",
		})
	})

	reply, err := client.SendQuery(context.Background(), "What is the PTO policy?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "You get 15 days." {
		t.Errorf("unexpected text %q", reply.Text)
	}
	if len(reply.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(reply.Sources))
	}
	if reply.Sources[0].DocumentName != "handbook.pdf" || reply.Sources[0].RelevanceScore != 0.92 {
		t.Errorf("unexpected source %+v", reply.Sources[0])
	}
	if reply.Confidence != types.ConfidenceHigh {
		t.Errorf("expected high confidence, got %q", reply.Confidence)
	}
}

func TestSendQueryMissingOptionalFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"ok","query":"hi"}`))
	})

	reply, err := client.SendQuery(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Sources == nil || len(reply.Sources) != 0 {
		t.Errorf("expected empty non-nil sources, got %#v", reply.Sources)
	}
	if reply.Confidence != "" {
		t.Errorf("expected absent confidence, got %q", reply.Confidence)
	}
}

func TestSendQueryErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		client     *Client
		wantKind   Kind
		wantStatus int
	}{
		{
			name: "internal server error",
			client: newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Failed to process query"}`))
			}),
			wantKind:   KindServerError,
			wantStatus: 500,
		},
		{
			name: "bad gateway",
			client: newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}),
			wantKind:   KindServerError,
			wantStatus: 502,
		},
		{
			name: "bad request",
			client: newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"Query is required"}`))
			}),
			wantKind:   KindOther,
			wantStatus: 400,
		},
		{
			name: "malformed body",
			client: newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"response":`))
			}),
			wantKind:   KindOther,
			wantStatus: 200,
		},
		{
			name:     "connection refused",
			client:   New(&Config{BaseURL: refusedURL(t)}),
			wantKind: KindConnectionRefused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.SendQuery(context.Background(), "question")
			var chatErr *ChatError
			if !errors.As(err, &chatErr) {
				t.Fatalf("expected *ChatError, got %T: %v", err, err)
			}
			if chatErr.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, chatErr.Kind)
			}
			if chatErr.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, chatErr.StatusCode)
			}
		})
	}
}
