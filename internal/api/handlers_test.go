package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailcheck/internal/analytics"
	"github.com/ignite/mailcheck/internal/batch"
	"github.com/ignite/mailcheck/internal/cache"
	"github.com/ignite/mailcheck/internal/checks"
	"github.com/ignite/mailcheck/internal/dedup"
	"github.com/ignite/mailcheck/internal/validator"
)

type recordingRepo struct {
	jobID   string
	results []validator.Result
	saves   int
}

func (r *recordingRepo) SaveBatch(_ context.Context, jobID string, results []validator.Result, _ analytics.Summary) error {
	r.jobID = jobID
	r.results = results
	r.saves++
	return nil
}

func newTestRouter(repo ResultsRepo) http.Handler {
	store := cache.NewMemoryStore(cache.Options{
		Enabled:    true,
		DefaultTTL: time.Hour,
		MaxSize:    100,
	})
	engine := validator.NewEngine(validator.Deps{
		Store:      store,
		Spam:       checks.NewSpamCheck(nil),
		Disposable: checks.NewDisposableCheckWithDomains(map[string]bool{"mailinator.com": true}),
		Typo:       checks.NewTypoCheck(),
	})
	processor := batch.NewProcessor(engine, 10, 2)
	h := NewHandlers(engine, processor, store, dedup.New(0), repo)
	return NewRouter(h)
}

// apiOptions enables only the offline checks so tests never hit the
// network.
var apiOptions = map[string]bool{
	"check_syntax":     true,
	"check_spam":       true,
	"check_disposable": true,
	"check_typos":      true,
}

func postJSON(t *testing.T, router http.Handler, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleValidate(t *testing.T) {
	router := newTestRouter(nil)

	rec := postJSON(t, router, "/api/v1/validate", map[string]interface{}{
		"email":   "jane@example.com",
		"options": apiOptions,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result validator.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "jane@example.com", result.Email)
	assert.True(t, result.IsValid)
	assert.Equal(t, 100, result.Score)
}

func TestHandleValidate_BadRequests(t *testing.T) {
	router := newTestRouter(nil)

	rec := postJSON(t, router, "/api/v1/validate", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", bytes.NewReader([]byte("{not json")))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValidateBatch(t *testing.T) {
	repo := &recordingRepo{}
	router := newTestRouter(repo)

	rec := postJSON(t, router, "/api/v1/validate/batch", map[string]interface{}{
		"emails":  []string{"jane@example.com", "spam@mailinator.com"},
		"options": apiOptions,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		JobID   string             `json:"job_id"`
		Results []validator.Result `json:"results"`
		Summary analytics.Summary  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.JobID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "jane@example.com", resp.Results[0].Email)
	assert.Equal(t, 2, resp.Summary.Total)

	assert.Equal(t, 1, repo.saves, "batch results must be persisted")
	assert.Equal(t, resp.JobID, repo.jobID)
}

func TestHandleValidateBatch_Dedupe(t *testing.T) {
	router := newTestRouter(nil)

	rec := postJSON(t, router, "/api/v1/validate/batch", map[string]interface{}{
		"emails":  []string{"jane@example.com", "Jane@Example.com", "john@example.com"},
		"options": apiOptions,
		"dedupe":  true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []validator.Result `json:"results"`
		Dedup   *dedup.Outcome     `json:"dedup"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotNil(t, resp.Dedup)
	assert.Equal(t, 1, resp.Dedup.Stats.ExactDuplicates)
	assert.Len(t, resp.Results, len(resp.Dedup.UniqueEmails), "only unique addresses are validated")
}

func TestHandleValidateBatch_Limits(t *testing.T) {
	router := newTestRouter(nil)

	rec := postJSON(t, router, "/api/v1/validate/batch", map[string]interface{}{
		"emails": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	oversized := make([]string, maxBatchSize+1)
	for i := range oversized {
		oversized[i] = "user@example.com"
	}
	rec = postJSON(t, router, "/api/v1/validate/batch", map[string]interface{}{
		"emails":  oversized,
		"options": apiOptions,
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleCacheStats(t *testing.T) {
	router := newTestRouter(nil)

	postJSON(t, router, "/api/v1/validate", map[string]interface{}{
		"email":   "jane@example.com",
		"options": apiOptions,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Size)
}

func TestHandleClearExpired(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/clear-expired", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body["removed"])
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
