package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/helpdesk-kb/kbresolver/internal/observability"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
)

// Resolver answers questions and reports what it has loaded.
type Resolver interface {
	Resolve(ctx context.Context, query string) resolver.MatchResult
	Status() resolver.Status
}

// ChatHandler handles question answering requests.
type ChatHandler struct {
	logger           *observability.Logger
	resolver         Resolver
	maxMessageLength int
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, r Resolver, maxMessageLength int) *ChatHandler {
	return &ChatHandler{
		logger:           logger,
		resolver:         r,
		maxMessageLength: maxMessageLength,
	}
}

// ChatRequestDTO is the body of POST /chat. Message is left untyped so a
// non-string value can be rejected with the same message as a blank one.
type ChatRequestDTO struct {
	Message any `json:"message"`
}

// ButtonSuggestion is a one-click follow-up question for UI clients.
type ButtonSuggestion struct {
	Text   string `json:"text"`
	Action string `json:"action"`
	Value  string `json:"value"`
}

// ChatResponseDTO is a resolver result plus UI hints.
type ChatResponseDTO struct {
	resolver.MatchResult
	ButtonSuggestions []ButtonSuggestion `json:"buttonSuggestions,omitempty"`
}

// ErrorDTO is the error body shared by the chat endpoints.
type ErrorDTO struct {
	Error      string              `json:"error"`
	Response   string              `json:"response,omitempty"`
	Source     string              `json:"source,omitempty"`
	SourceType resolver.SourceType `json:"sourceType,omitempty"`
}

const invalidMessageResponse = "Please provide a valid message..."

var defaultButtons = []ButtonSuggestion{
	{Text: "How do I create an account?", Action: "ask", Value: "How do I create an account?"},
	{Text: "How do I reset my password?", Action: "ask", Value: "How do I reset my password?"},
	{Text: "How can I contact customer support?", Action: "ask", Value: "How can I contact customer support?"},
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithContext(ctx)

	var req ChatRequestDTO
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, ErrorDTO{Error: "Invalid message", Response: invalidMessageResponse})
		return
	}

	message, ok := req.Message.(string)
	if !ok || strings.TrimSpace(message) == "" {
		writeJSON(w, logger, http.StatusBadRequest, ErrorDTO{Error: "Invalid message", Response: invalidMessageResponse})
		return
	}
	if utf8.RuneCountInString(message) > h.maxMessageLength {
		writeJSON(w, logger, http.StatusBadRequest, ErrorDTO{
			Error:    "Invalid message",
			Response: fmt.Sprintf("Message is too long (max %d characters)", h.maxMessageLength),
		})
		return
	}

	result := h.resolver.Resolve(ctx, strings.TrimSpace(message))
	logger.Info().
		Str("source_type", string(result.SourceType)).
		Str("source", result.Source).
		Msg("Chat request resolved")

	if result.SourceType == resolver.SourceError {
		writeJSON(w, logger, http.StatusInternalServerError, ErrorDTO{
			Error:      "Search failed",
			Response:   result.Response,
			Source:     result.Source,
			SourceType: result.SourceType,
		})
		return
	}

	resp := ChatResponseDTO{MatchResult: result}
	if result.SourceType == resolver.SourceFallback || result.SourceType == resolver.SourceCategoryGuide {
		resp.ButtonSuggestions = defaultButtons
	}
	writeJSON(w, logger, http.StatusOK, resp)
}
