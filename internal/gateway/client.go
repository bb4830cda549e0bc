package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/user/hrassist/internal/types"
)

// DefaultBaseURL is where the backend listens when nothing is configured.
const DefaultBaseURL = "http://localhost:5001"

// Config holds the backend address and transport settings.
type Config struct {
	BaseURL string
	// Timeout bounds a whole request. Zero keeps the transport default.
	Timeout time.Duration
}

// Client implements types.Backend over the backend's HTTP API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

var _ types.Backend = (*Client)(nil)

// New creates a Client for the given configuration.
func New(config *Config) *Client {
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config:     &cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}

// CheckHealth asks the backend for its health. It never fails: any
// transport, status or decoding problem yields an unhealthy status.
func (c *Client) CheckHealth(ctx context.Context) types.HealthStatus {
	unhealthy := types.HealthStatus{Status: types.HealthUnhealthy}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		slog.Warn("health check failed", "error", err)
		return unhealthy
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("health check failed", "error", err)
		return unhealthy
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("health check failed", "status", resp.StatusCode)
		return unhealthy
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("health check failed", "error", fmt.Errorf("decoding response: %w", err))
		return unhealthy
	}

	status := types.HealthStatus{Status: types.HealthUnknown, Services: body.Services}
	switch s := types.HealthState(body.Status); s {
	case types.HealthHealthy, types.HealthUnhealthy:
		status.Status = s
	}
	return status
}

// uploadResponse is the POST /upload body. Every field is optional.
type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// UploadDocument sends the file as a single multipart part named "file".
// The caller is responsible for validating the file first.
func (c *Client) UploadDocument(ctx context.Context, file *types.File) (*types.UploadedFile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.MIMEType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("creating multipart part: %w", err)}
	}
	if file.Content != nil {
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("reading file: %w", err)}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("closing multipart body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/upload", &body)
	if err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Err: fmt.Errorf("reading response: %w", err)}
	}

	// The body is informational only; a 2xx with an unreadable body is
	// still a confirmed upload.
	var parsed uploadResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UploadError{
			Reason:        ReasonServer,
			StatusCode:    resp.StatusCode,
			ServerMessage: parsed.Error,
		}
	}

	name := file.Name
	if parsed.Filename != "" {
		name = parsed.Filename
	}
	return &types.UploadedFile{
		Name:       name,
		SizeBytes:  file.Size,
		UploadedAt: time.Now(),
	}, nil
}

// chatRequest is the POST /chat request body.
type chatRequest struct {
	Query string `json:"query"`
}

// chatResponse is the POST /chat response body.
type chatResponse struct {
	Response   string           `json:"response"`
	Sources    []sourceResponse `json:"sources"`
	Confidence string           `json:"confidence"`
}

type sourceResponse struct {
	Document       string  `json:"document"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SendQuery asks the backend one question. Failures are returned as
// *ChatError.
func (c *Client) SendQuery(ctx context.Context, text string) (*types.ChatReply, error) {
	payload, err := json.Marshal(chatRequest{Query: text})
	if err != nil {
		return nil, &ChatError{Kind: KindOther, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &ChatError{Kind: KindOther, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ChatError{Kind: classifyTransport(err), Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ChatError{Kind: KindOther, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ChatError{
			StatusCode: resp.StatusCode,
			Kind:       classifyStatus(resp.StatusCode),
			Err:        fmt.Errorf("backend error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ChatError{StatusCode: resp.StatusCode, Kind: KindOther, Err: fmt.Errorf("parsing response: %w", err)}
	}

	sources := make([]types.Source, 0, len(parsed.Sources))
	for _, s := range parsed.Sources {
		sources = append(sources, types.Source{
			DocumentName:   s.Document,
			RelevanceScore: s.RelevanceScore,
		})
	}

	return &types.ChatReply{
		Text:       parsed.Response,
		Sources:    sources,
		Confidence: types.ParseConfidence(parsed.Confidence),
	}, nil
}
