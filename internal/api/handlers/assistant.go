// Package handlers contains the HTTP handlers for the assistant API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// AssistantService is the orchestrator surface the HTTP layer drives.
type AssistantService interface {
	Search(ctx context.Context, req assistant.SearchRequest) (*assistant.SearchResult, error)
	Warmup()
}

// AssistantHandler serves the assistant endpoints.
type AssistantHandler struct {
	service AssistantService
	logger  *logging.Logger
}

// NewAssistantHandler creates the handler.
func NewAssistantHandler(service AssistantService, logger *logging.Logger) *AssistantHandler {
	if service == nil {
		panic("handlers: assistant service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AssistantHandler{service: service, logger: logger.Component("api")}
}

type searchRequestBody struct {
	Message string                    `json:"message"`
	History []assistant.Turn          `json:"history,omitempty"`
	Mode    string                    `json:"mode,omitempty"`
	Profile *assistant.ProfileContext `json:"profile,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Search handles POST /v1/assistant/search.
func (h *AssistantHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	mode, err := privacy.ParseMode(body.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown privacy mode"})
		return
	}

	res, err := h.service.Search(r.Context(), assistant.SearchRequest{
		Message: body.Message,
		History: body.History,
		Mode:    mode,
		Profile: body.Profile,
	})
	if err != nil {
		h.writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AssistantHandler) writeSearchError(w http.ResponseWriter, err error) {
	var upstream *assistant.UpstreamError
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
	case errors.Is(err, privacy.ErrTorUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "tor mode requested but no tor channel is configured",
			Code:  "tor_unavailable",
		})
	case errors.Is(err, privacy.ErrInvalidEndpoint):
		h.logger.Error("endpoint resolution failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "endpoint configuration error"})
	case errors.As(err, &upstream):
		h.logger.Error("compose backend rejected the request", "status", upstream.StatusCode, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: upstream.Body, Code: "upstream_error"})
	case errors.Is(err, assistant.ErrDecode):
		h.logger.Error("compose backend returned a malformed response", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "model backend returned a malformed response"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "the request timed out"})
	default:
		h.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// Warmup handles POST /v1/assistant/warmup. It returns immediately; priming
// runs in the background.
func (h *AssistantHandler) Warmup(w http.ResponseWriter, r *http.Request) {
	h.service.Warmup()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "warming"})
}

// Health handles GET /health.
func (h *AssistantHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
