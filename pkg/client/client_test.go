package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", c.baseURL)

	_, err = NewClient(ClientConfig{BaseURL: "localhost:3000"})
	assert.Error(t, err)
}

func TestAsk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(TraceHeader))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "How do I reset my password?", body["message"])

		_, _ = w.Write([]byte(`{"response":"Go to settings > reset.","source":"FAQ Database","sourceType":"faq"}`))
	})

	resp, err := c.Ask(context.Background(), "How do I reset my password?")
	require.NoError(t, err)
	assert.Equal(t, &ChatResponse{Response: "Go to settings > reset.", Source: "FAQ Database", SourceType: "faq"}, resp)
	assert.False(t, resp.IsFallback())
}

func TestAsk_EmptyQuestion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "chat validation",
			status:   http.StatusBadRequest,
			body:     `{"error":"Invalid message","response":"Please provide a valid message."}`,
			wantCode: "Invalid message",
			wantMsg:  "Please provide a valid message.",
		},
		{
			name:     "proxy error",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":"Service unavailable","message":"Unable to reach the AI service. Please try again later."}`,
			wantCode: "Service unavailable",
			wantMsg:  "Unable to reach the AI service. Please try again later.",
		},
		{
			name:     "non-json body",
			status:   http.StatusBadGateway,
			body:     "bad gateway",
			wantCode: "Bad Gateway",
			wantMsg:  "bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Ask(context.Background(), "hi")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestStatusAndHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			_, _ = w.Write([]byte(`{"status":"running","initialized":true,"dataSources":{"faq":2,"legal":1,"misc":0,"pdfs":1,"totalSearchable":7},"pdfDocuments":[{"filename":"manual.pdf","title":"manual","pages":3,"extractedAt":"2024-01-02T03:04:05Z"}]}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"OK","timestamp":"2024-01-02T03:04:05Z","service":"kb-resolver"}`))
		default:
			http.NotFound(w, r)
		}
	})

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.Equal(t, DataSources{FAQ: 2, Legal: 1, PDFs: 1, TotalSearchable: 7}, status.DataSources)
	require.Len(t, status.PDFDocuments, 1)
	assert.Equal(t, "manual.pdf", status.PDFDocuments[0].Filename)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, "kb-resolver", health.Service)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/llm", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "model")

		_, _ = w.Write([]byte(`{"id":"gen-1","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"Hello!"},"finish_reason":"stop"}]}`))
	})

	resp, err := c.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Content())
}

func TestIsFallback(t *testing.T) {
	for _, st := range []string{"did_you_mean", "smart_suggestions", "popular_suggestions", "category_guide", "fallback", "error"} {
		assert.True(t, (&ChatResponse{SourceType: st}).IsFallback(), st)
	}
}
