package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kb/kbresolver/internal/llm"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
)

type stubResolver struct {
	result  resolver.MatchResult
	status  resolver.Status
	queries []string
}

func (s *stubResolver) Resolve(ctx context.Context, query string) resolver.MatchResult {
	s.queries = append(s.queries, query)
	return s.result
}

func (s *stubResolver) Status() resolver.Status { return s.status }

type stubCompleter struct {
	resp *llm.Response
	err  error
	got  llm.Request
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.got = req
	return s.resp, s.err
}

func post(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestChat_Validation(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantResponse string
	}{
		{"malformed json", `{"message":`, invalidMessageResponse},
		{"missing message", `{}`, invalidMessageResponse},
		{"non-string message", `{"message":42}`, invalidMessageResponse},
		{"blank message", `{"message":"   "}`, invalidMessageResponse},
		{"too long", `{"message":"` + strings.Repeat("a", 11) + `"}`, "Message is too long (max 10 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &stubResolver{}
			h := NewChatHandler(observability.NopLogger(), res, 10)

			rec, out := post(t, h.Chat, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid message", out["error"])
			assert.Equal(t, tt.wantResponse, out["response"])
			assert.Empty(t, res.queries)
		})
	}
}

func TestChat_LengthCountsCharacters(t *testing.T) {
	res := &stubResolver{result: resolver.MatchResult{Response: "ok", Source: "Misc Database", SourceType: resolver.SourceMisc}}
	h := NewChatHandler(observability.NopLogger(), res, 5)

	rec, _ := post(t, h.Chat, `{"message":"héllo"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_Resolves(t *testing.T) {
	res := &stubResolver{result: resolver.MatchResult{Response: "Go to settings.", Source: "FAQ Database", SourceType: resolver.SourceFAQ}}
	h := NewChatHandler(observability.NopLogger(), res, 1000)

	rec, out := post(t, h.Chat, `{"message":"  How do I reset my password?  "}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"How do I reset my password?"}, res.queries)
	assert.Equal(t, "Go to settings.", out["response"])
	assert.Equal(t, "FAQ Database", out["source"])
	assert.Equal(t, "faq", out["sourceType"])
	assert.NotContains(t, out, "buttonSuggestions")
	assert.NotContains(t, out, "nearMisses")
}

func TestChat_ButtonSuggestions(t *testing.T) {
	tests := []struct {
		sourceType  resolver.SourceType
		wantButtons bool
	}{
		{resolver.SourceFallback, true},
		{resolver.SourceCategoryGuide, true},
		{resolver.SourcePopularSuggestions, false},
		{resolver.SourceDidYouMean, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.sourceType), func(t *testing.T) {
			res := &stubResolver{result: resolver.MatchResult{Response: "r", Source: "s", SourceType: tt.sourceType}}
			h := NewChatHandler(observability.NopLogger(), res, 1000)

			_, out := post(t, h.Chat, `{"message":"hi"}`)
			if !tt.wantButtons {
				assert.NotContains(t, out, "buttonSuggestions")
				return
			}
			buttons, ok := out["buttonSuggestions"].([]any)
			require.True(t, ok)
			assert.Len(t, buttons, 3)
			first := buttons[0].(map[string]any)
			assert.Equal(t, "ask", first["action"])
			assert.Equal(t, "How do I create an account?", first["value"])
		})
	}
}

func TestChat_ErrorResult(t *testing.T) {
	res := &stubResolver{result: resolver.MatchResult{Response: "I'm sorry", Source: "System", SourceType: resolver.SourceError}}
	h := NewChatHandler(observability.NopLogger(), res, 1000)

	rec, out := post(t, h.Chat, `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Search failed", out["error"])
	assert.Equal(t, "error", out["sourceType"])
	assert.Equal(t, "System", out["source"])
}

func TestStatus(t *testing.T) {
	extracted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	res := &stubResolver{status: resolver.Status{
		Initialized: true,
		DataSources: resolver.DataSources{FAQ: 2, Legal: 1, Misc: 3, PDFs: 1, TotalSearchable: 10},
		Documents:   []resolver.DocumentInfo{{Filename: "a.pdf", Title: "a", Pages: 4, ExtractedAt: extracted}},
	}}
	h := NewStatusHandler(observability.NopLogger(), res, "kb-resolver")

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var out StatusResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "running", out.Status)
	assert.True(t, out.Initialized)
	assert.Equal(t, 10, out.DataSources.TotalSearchable)
	require.Len(t, out.PDFDocuments, 1)
	assert.True(t, extracted.Equal(out.PDFDocuments[0].ExtractedAt))
}

func TestHealth(t *testing.T) {
	h := NewStatusHandler(observability.NopLogger(), &stubResolver{}, "kb-resolver")
	h.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.JSONEq(t, `{"status":"OK","timestamp":"2024-01-01T00:00:00Z","service":"kb-resolver"}`, rec.Body.String())
}

func TestLLM_Complete(t *testing.T) {
	completer := &stubCompleter{resp: &llm.Response{ID: "gen-1", Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: "Hi!"}}}}}
	h := NewLLMHandler(observability.NopLogger(), completer)

	rec, out := post(t, h.Complete, `{"messages":[{"role":"user","content":"hello"}],"temperature":0.7,"max_tokens":100}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gen-1", out["id"])
	require.NotNil(t, completer.got.Temperature)
	assert.Equal(t, 0.7, *completer.got.Temperature)
	require.NotNil(t, completer.got.MaxTokens)
	assert.Equal(t, 100, *completer.got.MaxTokens)
}

func TestLLM_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"no messages", `{"messages":[]}`, nil, http.StatusBadRequest, "Invalid request"},
		{"bad json", `nope`, nil, http.StatusBadRequest, "Invalid request"},
		{"upstream", `{"messages":[{"role":"user","content":"x"}]}`, &llm.UpstreamError{StatusCode: 429, Message: "Rate limit exceeded"}, 429, "Upstream error"},
		{"network", `{"messages":[{"role":"user","content":"x"}]}`, llm.ErrNetwork, http.StatusServiceUnavailable, "Service unavailable"},
		{"missing key", `{"messages":[{"role":"user","content":"x"}]}`, llm.ErrMissingAPIKey, http.StatusInternalServerError, "LLM not configured"},
		{"unexpected", `{"messages":[{"role":"user","content":"x"}]}`, errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLLMHandler(observability.NopLogger(), &stubCompleter{err: tt.err})

			rec, out := post(t, h.Complete, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, out["error"])
			assert.NotEmpty(t, out["message"])
		})
	}
}
