package recurrence

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/granite-erp/granite/internal/ledger"
	"github.com/granite-erp/granite/internal/platform/httpx"
)

// Handler wires recurring pattern endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for the recurrence module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/recurrence/patterns", h.listPatterns)
	r.Post("/recurrence/patterns", h.createPattern)
	r.Post("/recurrence/patterns/{id}/deactivate", h.deactivatePattern)
	r.Post("/recurrence/generate", h.generate)
}

type createPatternRequest struct {
	Name            string `json:"name"`
	TemplateEntryID int64  `json:"template_entry_id"`
	Frequency       string `json:"frequency"`
	Interval        int    `json:"interval"`
	DayOfMonth      *int   `json:"day_of_month"`
	Weekday         *int   `json:"weekday"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

func (h *Handler) createPattern(w http.ResponseWriter, r *http.Request) {
	var req createPatternRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "start_date must be YYYY-MM-DD")
		return
	}

	in := CreatePatternInput{
		Name:            req.Name,
		TemplateEntryID: req.TemplateEntryID,
		Frequency:       Frequency(req.Frequency),
		Interval:        req.Interval,
		DayOfMonth:      req.DayOfMonth,
		StartDate:       start,
	}
	if req.Weekday != nil {
		if *req.Weekday < 0 || *req.Weekday > 6 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "weekday must be 0 (Sunday) through 6 (Saturday)")
			return
		}
		wd := time.Weekday(*req.Weekday)
		in.Weekday = &wd
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "end_date must be YYYY-MM-DD")
			return
		}
		in.EndDate = &end
	}

	pattern, err := h.service.CreatePattern(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pattern)
}

func (h *Handler) listPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.service.ListPatterns(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, patterns)
}

func (h *Handler) deactivatePattern(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be a positive integer")
		return
	}
	if err := h.service.DeactivatePattern(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	AsOf string `json:"as_of"`
}

// generate triggers a generation batch on demand; the worker runs the
// same batch on its cron schedule.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	asOf := time.Now()
	if req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	result, err := h.service.GenerateDue(r.Context(), asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPatternNotFound), errors.Is(err, ledger.ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFrequency):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("recurrence handler error", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
