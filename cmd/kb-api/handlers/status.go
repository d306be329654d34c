package handlers

import (
	"net/http"
	"time"

	"github.com/helpdesk-kb/kbresolver/internal/observability"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
)

// StatusHandler reports service and corpus status.
type StatusHandler struct {
	logger   *observability.Logger
	resolver Resolver
	service  string
	now      func() time.Time
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(logger *observability.Logger, r Resolver, service string) *StatusHandler {
	return &StatusHandler{logger: logger, resolver: r, service: service, now: time.Now}
}

// StatusResponseDTO is the body of GET /status.
type StatusResponseDTO struct {
	Status       string                  `json:"status"`
	Initialized  bool                    `json:"initialized"`
	DataSources  resolver.DataSources    `json:"dataSources"`
	PDFDocuments []resolver.DocumentInfo `json:"pdfDocuments"`
}

// HealthResponseDTO is the body of GET /health.
type HealthResponseDTO struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Status handles GET /status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.resolver.Status()
	writeJSON(w, h.logger, http.StatusOK, StatusResponseDTO{
		Status:       "running",
		Initialized:  st.Initialized,
		DataSources:  st.DataSources,
		PDFDocuments: st.Documents,
	})
}

// Health handles GET /health.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, HealthResponseDTO{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Service:   h.service,
	})
}
