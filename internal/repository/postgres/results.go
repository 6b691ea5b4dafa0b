// Package postgres persists validation outcomes. Persistence is
// optional: the engine runs fine without a database, and callers that
// want history wire a ResultsRepo behind the server.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/mailcheck/internal/analytics"
	"github.com/ignite/mailcheck/internal/validator"
)

// ResultsRepo stores per-email validation results and batch summaries.
type ResultsRepo struct{ db *sql.DB }

// NewResultsRepo creates a Postgres-backed results repository.
func NewResultsRepo(db *sql.DB) *ResultsRepo { return &ResultsRepo{db: db} }

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SaveResult upserts the latest verdict for an email. The full result is
// stored as JSON alongside the columns callers filter on.
func (r *ResultsRepo) SaveResult(ctx context.Context, jobID string, res validator.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO validation_results (email, job_id, is_valid, score, result, validated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (email) DO UPDATE SET
			job_id = $2, is_valid = $3, score = $4, result = $5, validated_at = NOW()
	`, res.Email, jobID, res.IsValid, res.Score, payload)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// SaveBatch persists every result of a batch run plus its summary, in
// one transaction so a half-written batch never surfaces in queries.
func (r *ResultsRepo) SaveBatch(ctx context.Context, jobID string, results []validator.Result, summary analytics.Summary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO validation_results (email, job_id, is_valid, score, result, validated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (email) DO UPDATE SET
				job_id = $2, is_valid = $3, score = $4, result = $5, validated_at = NOW()
		`, res.Email, jobID, res.IsValid, res.Score, payload); err != nil {
			return fmt.Errorf("save batch result: %w", err)
		}
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batch_summaries (job_id, total, valid, invalid, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, jobID, summary.Total, summary.Valid, summary.Invalid, summaryJSON); err != nil {
		return fmt.Errorf("save batch summary: %w", err)
	}

	return tx.Commit()
}

// LatestResult returns the most recent stored verdict for an email, or
// sql.ErrNoRows when none exists.
func (r *ResultsRepo) LatestResult(ctx context.Context, email string) (validator.Result, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT result FROM validation_results WHERE email = $1`,
		email,
	).Scan(&payload)
	if err != nil {
		return validator.Result{}, err
	}

	var res validator.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return validator.Result{}, fmt.Errorf("unmarshal stored result: %w", err)
	}
	return res, nil
}
