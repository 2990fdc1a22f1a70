package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/venturesim/internal/engine"
	"github.com/nvandessel/venturesim/internal/montecarlo"
)

// Store is a SQLite-backed archive of completed batches. The engine
// never touches it; only the CLI layer persists and reads results.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// Open opens the batch database at path, creating the file and any
// missing parent directories on first use.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with a single writer

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// BatchInfo is one row of the batch listing.
type BatchInfo struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	NumRuns    int           `json:"num_runs"`
	FailedRuns int           `json:"failed_runs"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// StoredRun is one persisted run: its summary plus the recorded error
// text, empty for clean runs.
type StoredRun struct {
	Summary engine.RunSummary `json:"summary"`
	Error   string            `json:"error,omitempty"`
}

// StoredBatch is a batch read back from the store.
type StoredBatch struct {
	Info       BatchInfo            `json:"info"`
	ConfigYAML string               `json:"config_yaml"`
	Aggregate  montecarlo.Aggregate `json:"aggregate"`
	Runs       []StoredRun          `json:"runs"`
}

// finite maps NaN and infinities to zero. A run aborted on an invariant
// violation carries non-finite floats in its summary and final records;
// SQLite binds those as NULL, which the NOT NULL columns reject, so they
// are zeroed on write and the run's error text carries the diagnosis.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// SaveBatch persists a completed batch atomically: the batch row, every
// run summary, the monthly series and the final agent records. Runs that
// aborted are stored alongside clean ones, with their error text and
// non-finite values zeroed.
func (s *Store) SaveBatch(ctx context.Context, batch *montecarlo.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configYAML, err := yaml.Marshal(batch.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	aggregateJSON, err := json.Marshal(batch.Aggregate)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, created_at, num_runs, failed_runs, elapsed_ns, config_yaml, aggregate_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, batch.BatchID, batch.CreatedAt.UTC().Format(time.RFC3339Nano),
		len(batch.Runs), batch.Aggregate.FailedRuns, int64(batch.Elapsed),
		string(configYAML), string(aggregateJSON)); err != nil {
		return fmt.Errorf("failed to insert batch %s: %w", batch.BatchID, err)
	}

	runStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO runs (batch_id, run, seed, startups, months_simulated,
			failure_rate, success_rate, funded_rate, total_funding,
			mean_final_capital, mean_final_pmf, mean_final_valuation,
			top_valuation, mean_months_survived, median_months_survived,
			final_market_size, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run insert: %w", err)
	}
	defer runStmt.Close()

	monthStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO months (batch_id, run, month, active, funded_now, funded_total,
			failed, exited, mean_capital, mean_pmf, mean_valuation, market_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare month insert: %w", err)
	}
	defer monthStmt.Close()

	agentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO agents (batch_id, run, agent_id, final_status, months_survived,
			funded, funding_received, final_capital, final_pmf, final_revenue, final_valuation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare agent insert: %w", err)
	}
	defer agentStmt.Close()

	for i := range batch.Runs {
		run := &batch.Runs[i]
		sum := run.Summary

		var errText sql.NullString
		if run.Err != nil {
			errText = sql.NullString{String: run.Err.Error(), Valid: true}
		}
		if _, err := runStmt.ExecContext(ctx,
			batch.BatchID, sum.Run, strconv.FormatUint(sum.Seed, 10),
			sum.Startups, sum.MonthsSimulated,
			finite(sum.FailureRate), finite(sum.SuccessRate), finite(sum.FundedRate),
			finite(sum.TotalFunding), finite(sum.MeanFinalCapital), finite(sum.MeanFinalPMF),
			finite(sum.MeanFinalValuation), finite(sum.TopValuation),
			finite(sum.MeanMonthsSurvived), finite(sum.MedianMonthsSurvived),
			finite(sum.FinalMarketSize), errText); err != nil {
			return fmt.Errorf("failed to insert run %d: %w", sum.Run, err)
		}

		for _, m := range run.Months {
			if _, err := monthStmt.ExecContext(ctx,
				batch.BatchID, sum.Run, m.Month, m.Active, m.FundedNow, m.FundedTotal,
				m.Failed, m.Exited, finite(m.MeanCapital), finite(m.MeanPMF),
				finite(m.MeanValuation), finite(m.MarketSize)); err != nil {
				return fmt.Errorf("failed to insert month %d of run %d: %w", m.Month, sum.Run, err)
			}
		}

		for _, a := range run.Agents {
			funded := 0
			if a.Funded {
				funded = 1
			}
			if _, err := agentStmt.ExecContext(ctx,
				batch.BatchID, sum.Run, a.ID, a.FinalStatus.String(), a.MonthsSurvived,
				funded, finite(a.FundingReceived), finite(a.FinalCapital), finite(a.FinalPMF),
				finite(a.FinalRevenue), finite(a.FinalValuation)); err != nil {
				return fmt.Errorf("failed to insert agent %d of run %d: %w", a.ID, sum.Run, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", batch.BatchID, err)
	}
	return nil
}

// ListBatches returns all stored batches, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]BatchInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, num_runs, failed_runs, elapsed_ns
		FROM batches ORDER BY rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var infos []BatchInfo
	for rows.Next() {
		info, err := scanBatchInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batches: %w", err)
	}
	return infos, nil
}

// LatestBatchID returns the most recently saved batch ID.
func (s *Store) LatestBatchID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM batches ORDER BY rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no batches stored")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest batch: %w", err)
	}
	return id, nil
}

// GetBatch reads one batch with its aggregate and per-run summaries.
func (s *Store) GetBatch(ctx context.Context, id string) (*StoredBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, num_runs, failed_runs, elapsed_ns, config_yaml, aggregate_json
		FROM batches WHERE id = ?
	`, id)

	var batch StoredBatch
	var createdAt, aggregateJSON string
	var elapsed int64
	err := row.Scan(&batch.Info.ID, &createdAt, &batch.Info.NumRuns,
		&batch.Info.FailedRuns, &elapsed, &batch.ConfigYAML, &aggregateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("batch %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", id, err)
	}
	batch.Info.Elapsed = time.Duration(elapsed)
	if batch.Info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at of batch %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(aggregateJSON), &batch.Aggregate); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate of batch %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run, seed, startups, months_simulated,
			failure_rate, success_rate, funded_rate, total_funding,
			mean_final_capital, mean_final_pmf, mean_final_valuation,
			top_valuation, mean_months_survived, median_months_survived,
			final_market_size, error
		FROM runs WHERE batch_id = ? ORDER BY run
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs of batch %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r StoredRun
		var seed string
		var errText sql.NullString
		if err := rows.Scan(&r.Summary.Run, &seed, &r.Summary.Startups,
			&r.Summary.MonthsSimulated, &r.Summary.FailureRate, &r.Summary.SuccessRate,
			&r.Summary.FundedRate, &r.Summary.TotalFunding, &r.Summary.MeanFinalCapital,
			&r.Summary.MeanFinalPMF, &r.Summary.MeanFinalValuation, &r.Summary.TopValuation,
			&r.Summary.MeanMonthsSurvived, &r.Summary.MedianMonthsSurvived,
			&r.Summary.FinalMarketSize, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run of batch %s: %w", id, err)
		}
		if r.Summary.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse seed of batch %s: %w", id, err)
		}
		r.Error = errText.String
		batch.Runs = append(batch.Runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs of batch %s: %w", id, err)
	}

	return &batch, nil
}

// RunSeries returns the monthly records of one run, in month order.
func (s *Store) RunSeries(ctx context.Context, batchID string, run int) ([]engine.MonthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT month, active, funded_now, funded_total, failed, exited,
			mean_capital, mean_pmf, mean_valuation, market_size
		FROM months WHERE batch_id = ? AND run = ? ORDER BY month
	`, batchID, run)
	if err != nil {
		return nil, fmt.Errorf("failed to query months of batch %s run %d: %w", batchID, run, err)
	}
	defer rows.Close()

	var months []engine.MonthRecord
	for rows.Next() {
		var m engine.MonthRecord
		if err := rows.Scan(&m.Month, &m.Active, &m.FundedNow, &m.FundedTotal,
			&m.Failed, &m.Exited, &m.MeanCapital, &m.MeanPMF, &m.MeanValuation,
			&m.MarketSize); err != nil {
			return nil, fmt.Errorf("failed to scan month of batch %s run %d: %w", batchID, run, err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate months of batch %s run %d: %w", batchID, run, err)
	}
	if months == nil {
		return nil, fmt.Errorf("no months stored for batch %s run %d", batchID, run)
	}
	return months, nil
}

// scanBatchInfo reads one batch listing row.
func scanBatchInfo(rows *sql.Rows) (BatchInfo, error) {
	var info BatchInfo
	var createdAt string
	var elapsed int64
	if err := rows.Scan(&info.ID, &createdAt, &info.NumRuns, &info.FailedRuns, &elapsed); err != nil {
		return BatchInfo{}, fmt.Errorf("failed to scan batch row: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return BatchInfo{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	info.CreatedAt = parsed
	info.Elapsed = time.Duration(elapsed)
	return info, nil
}
