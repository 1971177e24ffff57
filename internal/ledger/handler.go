package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/granite-erp/granite/internal/platform/httpx"
	"github.com/granite-erp/granite/internal/shared"
)

// Handler wires journal entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger/accounts", h.listAccounts)
	r.Get("/ledger/entries", h.listEntries)
	r.Post("/ledger/entries", h.createEntry)
	r.Get("/ledger/entries/{id}", h.getEntry)
	r.Put("/ledger/entries/{id}", h.updateEntry)
	r.Post("/ledger/entries/{id}/post", h.postEntry)
	r.Post("/ledger/entries/{id}/reverse", h.reverseEntry)
}

type entryRequest struct {
	JournalType string      `json:"journal_type" validate:"required"`
	Date        string      `json:"entry_date" validate:"required"`
	Description string      `json:"description"`
	Reference   string      `json:"reference"`
	SourceType  string      `json:"source_type"`
	SourceID    string      `json:"source_id"`
	CreatedBy   string      `json:"requester_identity" validate:"required"`
	Lines       []LineInput `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) decodeEntry(w http.ResponseWriter, r *http.Request) (EntryInput, bool) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return EntryInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return EntryInput{}, false
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "entry_date must be YYYY-MM-DD")
		return EntryInput{}, false
	}

	in := EntryInput{
		JournalType: req.JournalType,
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		SourceType:  req.SourceType,
		CreatedBy:   req.CreatedBy,
		Lines:       req.Lines,
	}
	if req.SourceID != "" {
		id, err := uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "source_id must be a UUID")
			return EntryInput{}, false
		}
		in.SourceID = id
	}
	return in, true
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}
	entry, err := h.service.CreateEntry(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeEntry(w, r)
	if !ok {
		return
	}
	entry, err := h.service.UpdateEntry(r.Context(), entryID, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(r.Context(), entryID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	accounts, err := h.service.ListAccounts(r.Context(), activeOnly)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

type actorRequest struct {
	ActorID string `json:"actor_id"`
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	entry, err := h.service.PostEntry(r.Context(), entryID, req.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

type reverseRequest struct {
	Date        string `json:"entry_date"`
	Description string `json:"description"`
	ActorID     string `json:"actor_id"`
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	in := ReverseInput{EntryID: entryID, Description: req.Description, ActorID: req.ActorID}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "entry_date must be YYYY-MM-DD")
			return
		}
		in.Date = date
	}
	entry, err := h.service.ReverseEntry(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var invalid *ValidationError
	switch {
	case errors.As(err, &invalid):
		httpx.ProblemList(w, http.StatusBadRequest, "Validation Failed", invalid.Messages)
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEntryPosted), errors.Is(err, ErrAlreadyPosted),
		errors.Is(err, ErrNotPosted), errors.Is(err, ErrAlreadyReversed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNoOpenPeriod), errors.Is(err, ErrPeriodNotOpen):
		httpx.Problem(w, http.StatusConflict, "Period Closed", err.Error())
	case errors.Is(err, ErrAccountInactive):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("ledger handler error", slog.Any("error", err))
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

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var filter ListFilter

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return ListFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = &t
	}
	if raw := q.Get("posted"); raw != "" {
		posted, err := strconv.ParseBool(raw)
		if err != nil {
			return ListFilter{}, errors.New("posted must be true or false")
		}
		filter.Posted = &posted
	}
	filter.JournalType = q.Get("journal_type")
	filter.Search = q.Get("q")

	page := shared.Pagination{}
	if raw := q.Get("limit"); raw != "" {
		page.Limit, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("offset"); raw != "" {
		page.Offset, _ = strconv.Atoi(raw)
	}
	page = page.Normalize()
	filter.Limit = page.Limit
	filter.Offset = page.Offset
	return filter, nil
}
