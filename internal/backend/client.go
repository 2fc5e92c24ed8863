// Package backend is a client for the document-generation backend. It sends the
// extracted job description together with the user's profile and receives either a
// generated resume PDF or a match score.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single backend call. Generation runs an LLM and renders
// a PDF, so it is generous.
const DefaultTimeout = 120 * time.Second

// RequestIDHeader carries a per-call ID for correlating client and backend logs.
const RequestIDHeader = "X-Request-ID"

var validate = validator.New()

// Request is the body of every backend call.
type Request struct {
	UserData       map[string]any `json:"user_data" validate:"required"`
	JobDescription string         `json:"job_description" validate:"required"`
}

// MatchResult is the backend's assessment of how well the profile fits the job.
type MatchResult struct {
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
	Reasoning string  `json:"reasoning"`
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Client talks to the backend over HTTP. Calls are not retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Match asks the backend to score the profile against the job description.
func (c *Client) Match(ctx context.Context, req *Request) (*MatchResult, error) {
	body, err := c.post(ctx, "/api/match", req)
	if err != nil {
		return nil, err
	}
	var result MatchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode match response: %w", err)
	}
	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("invalid match response: %w", err)
	}
	return &result, nil
}

// Generate asks the backend for a tailored resume and returns the PDF bytes.
func (c *Client) Generate(ctx context.Context, req *Request) ([]byte, error) {
	return c.post(ctx, "/api/generate", req)
}

func (c *Client) post(ctx context.Context, path string, req *Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid backend request: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}
	log.Debug().
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

// errorDetail pulls the message out of a {"detail": ...} error body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil {
		return strings.TrimSpace(string(body))
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	detail, _ := json.Marshal(payload.Detail)
	return string(detail)
}
