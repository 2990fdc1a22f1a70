package montecarlo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/logging"
	"github.com/nvandessel/venturesim/internal/randx"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.NumStartups = 60
	cfg.Simulation.TimeHorizon = 24
	cfg.Simulation.NumRuns = 6
	cfg.Simulation.Seed = 42
	cfg.Simulation.Workers = 2
	return cfg
}

func runBatch(t *testing.T, cfg *config.Config) *BatchResult {
	t.Helper()
	res, err := NewRunner(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	return res
}

// resultBytes serializes the reproducible portion of a batch, leaving out
// the batch id and timing.
func resultBytes(t *testing.T, res *BatchResult) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(res.Runs); err != nil {
		t.Fatalf("encode runs: %v", err)
	}
	if err := enc.Encode(res.Aggregate); err != nil {
		t.Fatalf("encode aggregate: %v", err)
	}
	return buf.Bytes()
}

func TestRunner_ReproducibleAcrossWorkerCounts(t *testing.T) {
	serial := testConfig()
	serial.Simulation.Workers = 1
	parallel := testConfig()
	parallel.Simulation.Workers = 4

	first := resultBytes(t, runBatch(t, serial))
	second := resultBytes(t, runBatch(t, parallel))

	if !bytes.Equal(first, second) {
		t.Error("worker count changed batch results")
	}
}

func TestRunner_SeedChangesResults(t *testing.T) {
	cfg1 := testConfig()
	cfg2 := testConfig()
	cfg2.Simulation.Seed = 43

	if bytes.Equal(resultBytes(t, runBatch(t, cfg1)), resultBytes(t, runBatch(t, cfg2))) {
		t.Error("different base seeds produced identical batches")
	}
}

func TestRunner_RunIndexingAndSeeds(t *testing.T) {
	cfg := testConfig()
	res := runBatch(t, cfg)

	if len(res.Runs) != cfg.Simulation.NumRuns {
		t.Fatalf("runs = %d, want %d", len(res.Runs), cfg.Simulation.NumRuns)
	}
	if res.BatchID == "" {
		t.Error("empty batch id")
	}
	for i, run := range res.Runs {
		if run.Summary.Run != i {
			t.Errorf("run %d: Summary.Run = %d", i, run.Summary.Run)
		}
		if want := randx.DerivedSeed(cfg.Simulation.Seed, i); run.Summary.Seed != want {
			t.Errorf("run %d: seed = %d, want %d", i, run.Summary.Seed, want)
		}
	}

	other := runBatch(t, cfg)
	if other.BatchID == res.BatchID {
		t.Error("batch ids not unique")
	}
}

func TestRunner_AggregateMatchesRunSummaries(t *testing.T) {
	res := runBatch(t, testConfig())

	var sum, minRate, maxRate float64
	minRate = math.Inf(1)
	maxRate = math.Inf(-1)
	for _, run := range res.Runs {
		rate := run.Summary.FailureRate
		sum += rate
		minRate = math.Min(minRate, rate)
		maxRate = math.Max(maxRate, rate)
	}
	mean := sum / float64(len(res.Runs))

	agg := res.Aggregate.FailureRate
	if math.Abs(agg.Mean-mean) > 1e-12 {
		t.Errorf("aggregate mean = %v, arithmetic mean of runs = %v", agg.Mean, mean)
	}
	if agg.Min != minRate || agg.Max != maxRate {
		t.Errorf("aggregate min/max = %v/%v, want %v/%v", agg.Min, agg.Max, minRate, maxRate)
	}
	if agg.Std < 0 {
		t.Errorf("negative std %v", agg.Std)
	}
}

func TestRunner_HigherTaxRaisesFailures(t *testing.T) {
	base := config.Default()
	base.Simulation.NumStartups = 300
	base.Simulation.TimeHorizon = 60
	base.Simulation.NumRuns = 16
	base.Simulation.Seed = 42
	base.Simulation.Workers = 4
	base.Policy.CReg = 1e4
	base.Policy.SG = 1e5

	atTax := func(tau float64) float64 {
		t.Helper()
		cfg := base.Clone()
		cfg.Policy.Tau = tau
		return runBatch(t, cfg).Aggregate.FailureRate.Mean
	}

	// Same seed set at every rung: run i of each batch samples the same
	// population and each agent replays the same noise, so the rungs
	// differ only through the tax taken.
	low := atTax(0)
	mid := atTax(0.3)
	high := atTax(0.6)

	if low <= 0 {
		t.Fatalf("zero-tax scenario produced no failures (rate %v); comparison is vacuous", low)
	}
	if !(mid > low) {
		t.Errorf("failure rate at tau 0.3 = %v, want strictly above %v at tau 0", mid, low)
	}
	if !(high > mid) {
		t.Errorf("failure rate at tau 0.6 = %v, want strictly above %v at tau 0.3", high, mid)
	}
}

func TestRunner_TaxScenarioFailureOrdering(t *testing.T) {
	base := config.Default()
	base.Simulation.NumStartups = 200
	base.Simulation.TimeHorizon = 60
	base.Simulation.NumRuns = 10
	base.Simulation.Seed = 42
	base.Simulation.Workers = 4
	base.Policy.CReg = 1e4
	base.Policy.SG = 1e5

	lenient := base.Clone()
	lenient.Policy.Tau = 0.05
	harsh := base.Clone()
	harsh.Policy.Tau = 0.25

	lowRate := runBatch(t, lenient).Aggregate.FailureRate.Mean
	highRate := runBatch(t, harsh).Aggregate.FailureRate.Mean

	if !(lowRate < highRate) {
		t.Errorf("failure rate = %v at tau 0.05, want strictly below %v at tau 0.25",
			lowRate, highRate)
	}
}

func TestRunner_LargerMarketLiftsValuations(t *testing.T) {
	base := config.Default()
	base.Simulation.NumStartups = 200
	base.Simulation.TimeHorizon = 60
	base.Simulation.NumRuns = 4
	base.Simulation.Seed = 42
	base.Simulation.Workers = 4

	atMarket := func(m0 float64) float64 {
		t.Helper()
		cfg := base.Clone()
		cfg.Market.M0Initial = m0
		return runBatch(t, cfg).Aggregate.MeanFinalValuation.Mean
	}

	small := atMarket(1e6)
	large := atMarket(5e8)
	if large < small {
		t.Errorf("mean final valuation in large market = %v, want >= %v from small market", large, small)
	}
}

func TestRunner_InvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.NumStartups = -1
	cfg.Policy.Tau = 1.5

	_, err := NewRunner(cfg, nil, nil).Run(context.Background())
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, field := range []string{"simulation.num_startups", "policy.tau"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}
}

func TestRunner_FailedRunsCountedNotFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Market.M0Initial = 1e308
	cfg.Market.GrowthRate = 1 // overflows on the first tick

	res := runBatch(t, cfg)

	if res.Aggregate.FailedRuns != cfg.Simulation.NumRuns {
		t.Errorf("FailedRuns = %d, want %d", res.Aggregate.FailedRuns, cfg.Simulation.NumRuns)
	}
	for i, run := range res.Runs {
		if run.Err == nil {
			t.Errorf("run %d: expected error", i)
		}
	}
	if res.Aggregate.FailureRate.Mean != 0 {
		t.Errorf("metrics over zero successful runs = %v, want zero value", res.Aggregate.FailureRate.Mean)
	}
}

func TestRunner_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(testConfig(), nil, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunner_WritesRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	rl := logging.NewRunLogger(path)
	cfg := testConfig()
	cfg.Simulation.NumRuns = 3

	if rl == nil {
		t.Fatal("run logger did not open")
	}
	if _, err := NewRunner(cfg, nil, rl).Run(context.Background()); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	rl.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open run log: %v", err)
	}
	defer f.Close()

	events := make(map[string]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		event, _ := entry["event"].(string)
		events[event]++
		if entry["batch_id"] == "" {
			t.Error("event missing batch_id")
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if events["batch_started"] != 1 || events["batch_complete"] != 1 {
		t.Errorf("batch events = %v, want one start and one complete", events)
	}
	if events["run_complete"] != 3 {
		t.Errorf("run_complete events = %d, want 3", events["run_complete"])
	}
}
