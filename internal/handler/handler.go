package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

// StatusService performs one status operation.
type StatusService interface {
	PerformOperation(ctx context.Context, id string) (status.ApplicationStatus, error)
}

type StatusHandler struct {
	logger  *slog.Logger
	service StatusService
}

type successBody struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

type failureBody struct {
	Type            string     `json:"type"`
	LastRequestTime *time.Time `json:"last_request_time,omitempty"`
	RetriesCount    int        `json:"retries_count"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewStatusHandler(logger *slog.Logger, service StatusService) *StatusHandler {
	return &StatusHandler{
		logger:  logger,
		service: service,
	}
}

// ServeHTTP answers GET /v1/applications/{id}/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	clientIP := extractClientIP(r)

	h.logger.Info("Received status request",
		slog.String("from", clientIP),
		slog.String("application_id", id),
		slog.String("user_agent", r.UserAgent()))

	if strings.TrimSpace(id) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "application id is required"})
		return
	}

	result, err := h.service.PerformOperation(r.Context(), id)
	if err != nil {
		if errors.Is(err, status.ErrInterrupted) {
			h.logger.Warn("Status request interrupted",
				slog.String("from", clientIP),
				slog.String("application_id", id))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "operation interrupted"})
			return
		}

		h.logger.Error("Status operation failed",
			slog.String("application_id", id),
			slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	switch res := result.(type) {
	case *status.SuccessStatus:
		writeJSON(w, http.StatusOK, successBody{Type: "success", ID: res.ID, Status: res.Status})
	case *status.FailureStatus:
		writeJSON(w, http.StatusOK, failureBody{
			Type:            "failure",
			LastRequestTime: res.LastRequestTime,
			RetriesCount:    res.RetriesCount,
		})
	default:
		h.logger.Error("Unexpected application status",
			slog.String("application_id", id),
			slog.Any("result", result))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
