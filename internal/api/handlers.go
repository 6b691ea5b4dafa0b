// Package api is the thin HTTP front door: request and response
// marshalling around the validation core. No scoring or caching logic
// lives here.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ignite/mailcheck/internal/analytics"
	"github.com/ignite/mailcheck/internal/batch"
	"github.com/ignite/mailcheck/internal/cache"
	"github.com/ignite/mailcheck/internal/dedup"
	"github.com/ignite/mailcheck/internal/pkg/logger"
	"github.com/ignite/mailcheck/internal/validator"
)

const maxBatchSize = 10000

// ResultsRepo persists validation outcomes. Optional: a nil repo means
// nothing is stored.
type ResultsRepo interface {
	SaveBatch(ctx context.Context, jobID string, results []validator.Result, summary analytics.Summary) error
}

// Handlers bundles the core collaborators the HTTP layer exposes.
type Handlers struct {
	engine       *validator.Engine
	processor    *batch.Processor
	store        cache.Store
	deduplicator *dedup.Deduplicator
	repo         ResultsRepo
}

// NewHandlers creates the HTTP handler set. repo may be nil.
func NewHandlers(engine *validator.Engine, processor *batch.Processor, store cache.Store, deduplicator *dedup.Deduplicator, repo ResultsRepo) *Handlers {
	return &Handlers{
		engine:       engine,
		processor:    processor,
		store:        store,
		deduplicator: deduplicator,
		repo:         repo,
	}
}

// NewRouter builds the chi router with CORS and all routes registered.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.HandleHealth)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the v1 API.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/validate", h.HandleValidate)
		r.Post("/validate/batch", h.HandleValidateBatch)
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Post("/cache/clear-expired", h.HandleClearExpired)
	})
}

type validateRequest struct {
	Email   string             `json:"email"`
	Options *validator.Options `json:"options,omitempty"`
}

// HandleValidate validates a single address.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	result := h.engine.Validate(r.Context(), req.Email, req.Options)
	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Emails  []string           `json:"emails"`
	Options *validator.Options `json:"options,omitempty"`
	// Dedupe collapses exact and near duplicates before validation.
	Dedupe bool `json:"dedupe,omitempty"`
}

type batchResponse struct {
	JobID   string             `json:"job_id"`
	Results []validator.Result `json:"results"`
	Summary analytics.Summary  `json:"summary"`
	Dedup   *dedup.Outcome     `json:"dedup,omitempty"`
}

// HandleValidateBatch validates a list of addresses, optionally
// collapsing duplicates first.
func (h *Handlers) HandleValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "emails is required")
		return
	}
	if len(req.Emails) > maxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge, "batch exceeds maximum size")
		return
	}

	emails := req.Emails
	var outcome *dedup.Outcome
	if req.Dedupe {
		out := h.deduplicator.Deduplicate(emails)
		outcome = &out
		emails = out.UniqueEmails
	}

	jobID, results := h.processor.Process(r.Context(), emails, req.Options)
	summary := analytics.Summarize(results)

	if h.repo != nil {
		if err := h.repo.SaveBatch(r.Context(), jobID, results, summary); err != nil {
			logger.Error("failed to persist batch results", "job_id", jobID, "error", err.Error())
		}
	}

	writeJSON(w, http.StatusOK, batchResponse{
		JobID:   jobID,
		Results: results,
		Summary: summary,
		Dedup:   outcome,
	})
}

// HandleCacheStats returns a snapshot of cache metrics.
func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats(r.Context()))
}

// HandleClearExpired sweeps expired cache entries.
func (h *Handlers) HandleClearExpired(w http.ResponseWriter, r *http.Request) {
	removed := h.store.ClearExpired(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
