package jobs

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/granite-erp/granite/internal/platform/httpx"
)

// Handler exposes job submission endpoints.
type Handler struct {
	logger *slog.Logger
	client *Client
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, client *Client) *Handler {
	return &Handler{logger: logger, client: client}
}

// MountRoutes registers job endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/jobs/recurrence-generate", h.enqueueRecurrenceGenerate)
}

type enqueueRequest struct {
	AsOf string `json:"as_of"`
}

// enqueueRecurrenceGenerate queues a generation batch instead of
// running it inline; the worker picks it up.
func (h *Handler) enqueueRecurrenceGenerate(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	var payload RecurrenceGeneratePayload
	if req.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "as_of must be YYYY-MM-DD")
			return
		}
		payload.AsOf = asOf
	}

	info, err := h.client.EnqueueRecurrenceGenerate(r.Context(), payload)
	if err != nil {
		h.logger.Error("enqueue recurrence batch", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue job")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"task_id": info.ID,
		"queue":   info.Queue,
	})
}
