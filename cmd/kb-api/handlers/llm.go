package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/helpdesk-kb/kbresolver/internal/llm"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

// Completer sends chat completions to a provider.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// LLMHandler proxies chat completions.
type LLMHandler struct {
	logger *observability.Logger
	client Completer
}

// NewLLMHandler creates a new completion proxy handler.
func NewLLMHandler(logger *observability.Logger, client Completer) *LLMHandler {
	return &LLMHandler{logger: logger, client: client}
}

// LLMErrorDTO is the error body of the completion proxy.
type LLMErrorDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Complete handles POST /chat/llm.
func (h *LLMHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithContext(ctx)

	var req llm.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, logger, http.StatusBadRequest, LLMErrorDTO{Error: "Invalid request", Message: "Request body must be valid JSON"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, logger, http.StatusBadRequest, LLMErrorDTO{Error: "Invalid request", Message: "messages are required"})
		return
	}

	resp, err := h.client.Complete(ctx, req)
	if err != nil {
		status, body := llmErrorResponse(err)
		logger.Error().Err(err).Int("status", status).Msg("Completion proxy failed")
		writeJSON(w, logger, status, body)
		return
	}

	writeJSON(w, logger, http.StatusOK, resp)
}

func llmErrorResponse(err error) (int, LLMErrorDTO) {
	var upstream *llm.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return upstream.StatusCode, LLMErrorDTO{Error: "Upstream error", Message: upstream.Message}
	case errors.Is(err, llm.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, LLMErrorDTO{Error: "Service unavailable", Message: "Unable to reach the AI service. Please try again later."}
	case errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusInternalServerError, LLMErrorDTO{Error: "LLM not configured", Message: "The AI service is not configured on this server."}
	default:
		return http.StatusInternalServerError, LLMErrorDTO{Error: "Internal server error", Message: "Something went wrong"}
	}
}
