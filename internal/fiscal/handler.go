package fiscal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/granite-erp/granite/internal/platform/httpx"
)

// Handler wires fiscal calendar endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for the fiscal calendar module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fiscal/years", h.listYears)
	r.Post("/fiscal/years", h.createYear)
	r.Post("/fiscal/years/{id}/periods", h.generatePeriods)
	r.Get("/fiscal/years/{id}/periods", h.listPeriods)
	r.Post("/fiscal/years/{id}/close", h.closeYear)
	r.Post("/fiscal/periods/{id}/close", h.closePeriod)
	r.Post("/fiscal/periods/{id}/reopen", h.reopenPeriod)
	r.Get("/fiscal/periods/current", h.currentPeriod)
}

type createYearRequest struct {
	Name         string `json:"name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	AutoGenerate string `json:"auto_generate"`
	ActorID      string `json:"actor_id"`
}

type createYearResponse struct {
	Year    Year     `json:"year"`
	Periods []Period `json:"periods"`
}

func (h *Handler) createYear(w http.ResponseWriter, r *http.Request) {
	var req createYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "end_date must be YYYY-MM-DD")
		return
	}

	in := CreateYearInput{
		Name:         req.Name,
		StartDate:    start,
		EndDate:      end,
		AutoGenerate: GenerateKind(req.AutoGenerate),
		ActorID:      req.ActorID,
	}
	year, periods, err := h.service.CreateYear(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createYearResponse{Year: year, Periods: periods})
}

func (h *Handler) listYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ListYears(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, years)
}

type generatePeriodsRequest struct {
	Kind    string `json:"kind"`
	ActorID string `json:"actor_id"`
}

func (h *Handler) generatePeriods(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req generatePeriodsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	periods, err := h.service.GeneratePeriodsForYear(r.Context(), yearID, GenerateKind(req.Kind), req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, periods)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r)
	if !ok {
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), yearID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, periods)
}

type actorRequest struct {
	ActorID string `json:"actor_id"`
}

func (h *Handler) closeYear(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	year, err := h.service.CloseYear(r.Context(), yearID, req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, year)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	period, err := h.service.ClosePeriod(r.Context(), periodID, req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) reopenPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	period, err := h.service.ReopenPeriod(r.Context(), periodID, req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) currentPeriod(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	period, err := h.service.CurrentPeriod(r.Context(), date)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var open *OpenPeriodsError
	switch {
	case errors.As(err, &open):
		httpx.ProblemList(w, http.StatusConflict, "Open Periods Remain", open.Names)
	case errors.Is(err, ErrYearNotFound), errors.Is(err, ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrYearExists), errors.Is(err, ErrYearOverlap), errors.Is(err, ErrPeriodsExist):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrYearClosed), errors.Is(err, ErrPeriodNotOpen), errors.Is(err, ErrPeriodOpen), errors.Is(err, ErrPeriodArchived):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("fiscal handler error", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
