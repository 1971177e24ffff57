package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/granite-erp/granite/internal/testing/guard"
)

func newTestRouter(repo *mockRepository) http.Handler {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	handler := NewHandler(logger, newTestService(repo))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func entryBody(lines string) string {
	return fmt.Sprintf(`{
		"journal_type": "GENERAL",
		"entry_date": "2024-03-15",
		"description": "Office rent",
		"requester_identity": "tester",
		"lines": %s
	}`, lines)
}

func TestHandlerCreateEntry(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	body := entryBody(`[
		{"account_id": 3, "debit_amount": 1200},
		{"account_id": 1, "credit_amount": 1200}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "JE-000001", entry.Number)
	assert.False(t, entry.IsPosted)
}

func TestHandlerCreateEntryUnbalancedReturnsViolations(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	body := entryBody(`[
		{"account_id": 3, "debit_amount": 1200},
		{"account_id": 1, "credit_amount": 1100}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem struct {
		Title  string   `json:"title"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Failed", problem.Title)
	require.Len(t, problem.Errors, 1)
	assert.Contains(t, problem.Errors[0], "does not balance")
}

func TestHandlerCreateEntryRejectsBadDate(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	body := `{
		"journal_type": "GENERAL",
		"entry_date": "15/03/2024",
		"requester_identity": "tester",
		"lines": [
			{"account_id": 3, "debit_amount": 10},
			{"account_id": 1, "credit_amount": 10}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPostEntryConflictOnRepeat(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	create := httptest.NewRequest(http.MethodPost, "/ledger/entries", bytes.NewBufferString(entryBody(`[
		{"account_id": 3, "debit_amount": 500},
		{"account_id": 1, "credit_amount": 500}
	]`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, create)
	require.Equal(t, http.StatusCreated, rec.Code)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/ledger/entries/1/post", bytes.NewBufferString(`{"actor_id":"tester"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := post()
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	second := post()
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestHandlerGetEntryNotFound(t *testing.T) {
	router := newTestRouter(newMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/ledger/entries/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
