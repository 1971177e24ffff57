package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/ledger"
	"github.com/granite-erp/granite/internal/platform/httpx"
)

// Handler wires reporting endpoints. Reports are read-only; every
// request recomputes from the posted-entry log.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes for the reports module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/balance-sheet", h.balanceSheet)
	r.Get("/reports/profit-loss", h.profitAndLoss)
	r.Get("/reports/general-ledger", h.generalLedger)
	r.Get("/reports/tax-computation", h.taxComputation)
	r.Get("/reports/gst-return", h.gstReturn)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of", true)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), *asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "as_of", true)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	comparative, err := queryDate(r, "comparative", false)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req := BalanceSheetRequest{
		AsOf:        *asOf,
		Comparative: comparative,
		IncludeZero: r.URL.Query().Get("include_zero") == "true",
	}
	bs, err := h.service.BalanceSheet(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	compStart, err := queryDate(r, "comparative_start", false)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	compEnd, err := queryDate(r, "comparative_end", false)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req := ProfitAndLossRequest{
		Start:            start,
		End:              end,
		ComparativeStart: compStart,
		ComparativeEnd:   compEnd,
	}
	pl, err := h.service.ProfitAndLoss(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) generalLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "account_id must be a positive integer")
		return
	}
	start, end, err := queryRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req := GeneralLedgerRequest{AccountID: accountID, Start: start, End: end}
	if req.Dimension1, err = queryID(r, "dimension1_id"); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if req.Dimension2, err = queryID(r, "dimension2_id"); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	gl, err := h.service.GeneralLedger(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gl)
}

func (h *Handler) taxComputation(w http.ResponseWriter, r *http.Request) {
	yearID, err := strconv.ParseInt(r.URL.Query().Get("year_id"), 10, 64)
	if err != nil || yearID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "year_id must be a positive integer")
		return
	}
	tc, err := h.service.IncomeTaxComputation(r.Context(), yearID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tc)
}

func (h *Handler) gstReturn(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	req := GSTReturnRequest{Start: start, End: end}
	if raw := r.URL.Query().Get("adjustments"); raw != "" {
		req.Adjustments, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "adjustments must be a number")
			return
		}
	}
	ret, err := h.service.GSTReturn(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, fiscal.ErrYearNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("reports handler error", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func queryDate(r *http.Request, key string, required bool) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if required {
			return nil, errors.New(key + " is required")
		}
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New(key + " must be YYYY-MM-DD")
	}
	return &t, nil
}

func queryRange(r *http.Request) (time.Time, time.Time, error) {
	start, err := queryDate(r, "start", true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := queryDate(r, "end", true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(*start) {
		return time.Time{}, time.Time{}, errors.New("end must not be before start")
	}
	return *start, *end, nil
}

func queryID(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New(key + " must be a positive integer")
	}
	return &id, nil
}
