// Package batch fans a list of emails out across a bounded worker pool,
// validating each through the engine and collecting results in input
// order.
package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignite/mailcheck/internal/pkg/logger"
	"github.com/ignite/mailcheck/internal/validator"
)

// ProgressFunc receives (completed, total) after each finished chunk.
// Chunks complete in order, so reported progress is monotonic.
type ProgressFunc func(completed, total int)

// Processor validates email lists chunk by chunk. Chunks are processed
// sequentially; the items inside a chunk run concurrently on a fixed
// worker pool.
type Processor struct {
	engine    *validator.Engine
	chunkSize int
	workers   int
	progress  ProgressFunc
}

// NewProcessor creates a batch processor. chunkSize <= 0 defaults to
// 100, workers <= 0 to 4.
func NewProcessor(engine *validator.Engine, chunkSize, workers int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	if workers <= 0 {
		workers = 4
	}
	return &Processor{
		engine:    engine,
		chunkSize: chunkSize,
		workers:   workers,
	}
}

// SetProgressFunc registers the progress callback.
func (p *Processor) SetProgressFunc(fn ProgressFunc) { p.progress = fn }

// Process validates every email and returns results in input order. A
// chunk where every item fails is not an error: failures surface as
// issues inside each item's result. The returned job ID labels the run
// in logs and persisted summaries.
func (p *Processor) Process(ctx context.Context, emails []string, opts *validator.Options) (jobID string, results []validator.Result) {
	jobID = uuid.New().String()
	total := len(emails)
	results = make([]validator.Result, total)

	chunkSize := p.chunkSize
	if opts != nil && opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}

	logger.Info("batch started", "job_id", jobID, "total", total, "chunk_size", chunkSize, "workers", p.workers)

	completed := 0
	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}

		p.processChunk(ctx, emails, results, start, end, opts)

		completed = end
		if p.progress != nil {
			p.progress(completed, total)
		}
	}

	logger.Info("batch finished", "job_id", jobID, "total", total)
	return jobID, results
}

// processChunk runs one chunk's items concurrently. Each worker writes
// into its own slot of the shared results slice, so output order always
// mirrors input order regardless of completion order.
func (p *Processor) processChunk(ctx context.Context, emails []string, results []validator.Result, start, end int, opts *validator.Options) {
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i := start; i < end; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = p.engine.Validate(ctx, emails[idx], opts)
		}(i)
	}

	wg.Wait()
}
