// Package client provides the public Go SDK for the knowledge base API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TraceHeader carries the request trace id; the server echoes it back.
const TraceHeader = "X-Trace-ID"

// Client is the public SDK client for the knowledge base API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
}

// NewClient creates a new API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3000"
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("base url must be http or https: %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Suggestion is an FAQ entry offered in place of an answer.
type Suggestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ButtonSuggestion is a one-click follow-up question.
type ButtonSuggestion struct {
	Text   string `json:"text"`
	Action string `json:"action"`
	Value  string `json:"value"`
}

// ChatResponse is the answer to a question.
type ChatResponse struct {
	Response          string             `json:"response"`
	Source            string             `json:"source"`
	SourceType        string             `json:"sourceType"`
	NearMisses        []string           `json:"nearMisses,omitempty"`
	Suggestions       []Suggestion       `json:"suggestions,omitempty"`
	ButtonSuggestions []ButtonSuggestion `json:"buttonSuggestions,omitempty"`
}

// IsFallback reports whether the response carries no direct answer.
func (r *ChatResponse) IsFallback() bool {
	switch r.SourceType {
	case "faq", "legal", "misc", "pdf":
		return false
	}
	return true
}

// DataSources counts the corpora the server has loaded.
type DataSources struct {
	FAQ             int `json:"faq"`
	Legal           int `json:"legal"`
	Misc            int `json:"misc"`
	PDFs            int `json:"pdfs"`
	TotalSearchable int `json:"totalSearchable"`
}

// DocumentInfo describes one loaded document.
type DocumentInfo struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Pages       int       `json:"pages"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// StatusResponse reports what the server has loaded.
type StatusResponse struct {
	Status       string         `json:"status"`
	Initialized  bool           `json:"initialized"`
	DataSources  DataSources    `json:"dataSources"`
	PDFDocuments []DocumentInfo `json:"pdfDocuments"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Message is one chat turn sent to the completion proxy.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is forwarded to the completion provider.
type CompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
}

// CompletionResponse is the provider's reply as relayed by the server.
type CompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Content returns the first choice's text, or "" if there is none.
func (r *CompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// ErrEmptyQuestion is returned by Ask before any request is made.
var ErrEmptyQuestion = errors.New("question is empty")

// Ask sends a question to POST /api/chat.
func (c *Client) Ask(ctx context.Context, question string) (*ChatResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", map[string]string{"message": question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete sends a request through the server's completion proxy.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var out CompletionResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/llm", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(TraceHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeAPIError reads either error body the server produces:
// {"error","response"} from chat or {"error","message"} from the proxy.
func decodeAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error    string `json:"error"`
		Message  string `json:"message"`
		Response string `json:"response"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	if err := json.Unmarshal(data, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	if body.Error != "" {
		apiErr.Code = body.Error
	}
	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = body.Response
	}
	return apiErr
}
