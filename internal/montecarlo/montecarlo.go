// Package montecarlo fans a batch of independent simulation runs across a
// bounded worker pool and aggregates their outcomes. Parallelism never
// touches the draws: run i always consumes the stream derived from the
// base seed and i, so a batch is reproducible at any worker count.
package montecarlo

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/engine"
	"github.com/nvandessel/venturesim/internal/logging"
	"github.com/nvandessel/venturesim/internal/randx"
)

// BatchResult is the full outcome of a Monte Carlo batch: every run's
// records plus the cross-run aggregate. Runs are indexed by run number
// regardless of completion order.
type BatchResult struct {
	BatchID   string             `json:"batch_id"`
	CreatedAt time.Time          `json:"created_at"`
	Config    *config.Config     `json:"config"`
	Runs      []engine.RunResult `json:"runs"`
	Aggregate Aggregate          `json:"aggregate"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
}

// Runner executes Monte Carlo batches for one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	runLog *logging.RunLogger
}

// NewRunner prepares a batch runner. logger may be nil for silence and
// runLog may be nil to skip the JSONL event stream.
func NewRunner(cfg *config.Config, logger *slog.Logger, runLog *logging.RunLogger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{cfg: cfg, logger: logger, runLog: runLog}
}

// Run executes the configured number of independent runs and aggregates
// them. A run that aborts on an internal violation is kept, counted in
// the aggregate's FailedRuns, and does not stop the batch; cancellation
// stops the batch and returns the context error.
func (r *Runner) Run(ctx context.Context) (*BatchResult, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	numRuns := r.cfg.Simulation.NumRuns
	workers := r.cfg.Simulation.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numRuns {
		workers = numRuns
	}

	batch := &BatchResult{
		BatchID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Config:    r.cfg,
		Runs:      make([]engine.RunResult, numRuns),
	}
	r.logger.Info("batch started",
		"batch_id", batch.BatchID,
		"runs", numRuns,
		"workers", workers,
		"startups", r.cfg.Simulation.NumStartups,
		"horizon", r.cfg.Simulation.TimeHorizon,
		"seed", r.cfg.Simulation.Seed)
	r.runLog.Log(map[string]any{
		"event":    "batch_started",
		"batch_id": batch.BatchID,
		"runs":     numRuns,
		"workers":  workers,
	})

	started := time.Now()
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				seed := randx.DerivedSeed(r.cfg.Simulation.Seed, i)
				res := engine.NewModel(r.cfg, randx.New(seed)).Run(ctx)
				res.Summary.Run = i
				res.Summary.Seed = seed
				batch.Runs[i] = res

				if res.Err != nil {
					r.logger.Warn("run failed",
						"batch_id", batch.BatchID, "run", i, "error", res.Err)
				} else {
					r.logger.Debug("run complete",
						"batch_id", batch.BatchID,
						"run", i,
						"months", res.Summary.MonthsSimulated,
						"failure_rate", res.Summary.FailureRate,
						"success_rate", res.Summary.SuccessRate)
				}
				r.runLog.Log(map[string]any{
					"event":    "run_complete",
					"batch_id": batch.BatchID,
					"run":      i,
					"seed":     seed,
					"summary":  res.Summary,
				})
			}
		}()
	}

feed:
	for i := 0; i < numRuns; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Warn("batch canceled", "batch_id", batch.BatchID, "error", err)
		return nil, err
	}

	batch.Aggregate = aggregate(batch.Runs)
	batch.Elapsed = time.Since(started)
	r.logger.Info("batch complete",
		"batch_id", batch.BatchID,
		"failed_runs", batch.Aggregate.FailedRuns,
		"mean_failure_rate", batch.Aggregate.FailureRate.Mean,
		"elapsed", batch.Elapsed)
	r.runLog.Log(map[string]any{
		"event":       "batch_complete",
		"batch_id":    batch.BatchID,
		"failed_runs": batch.Aggregate.FailedRuns,
	})
	return batch, nil
}
