package montecarlo

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/venturesim/internal/engine"
)

func TestNewMetric(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want Metric
	}{
		{name: "empty", xs: nil, want: Metric{}},
		{name: "single", xs: []float64{5}, want: Metric{Mean: 5, Std: 0, Min: 5, Max: 5}},
		{name: "spread", xs: []float64{1, 2, 3, 4}, want: Metric{Mean: 2.5, Std: math.Sqrt(1.25), Min: 1, Max: 4}},
		{name: "negative", xs: []float64{-2, 2}, want: Metric{Mean: 0, Std: 2, Min: -2, Max: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newMetric(tt.xs)
			if math.Abs(got.Mean-tt.want.Mean) > 1e-12 ||
				math.Abs(got.Std-tt.want.Std) > 1e-12 ||
				got.Min != tt.want.Min || got.Max != tt.want.Max {
				t.Errorf("newMetric(%v) = %+v, want %+v", tt.xs, got, tt.want)
			}
		})
	}
}

func TestAggregate_SkipsFailedRuns(t *testing.T) {
	runs := []engine.RunResult{
		{Summary: engine.RunSummary{FailureRate: 0.2}},
		{Summary: engine.RunSummary{FailureRate: 0.9}, Err: errors.New("blown up")},
		{Summary: engine.RunSummary{FailureRate: 0.4}},
	}

	agg := aggregate(runs)

	if agg.Runs != 3 || agg.FailedRuns != 1 {
		t.Fatalf("Runs/FailedRuns = %d/%d, want 3/1", agg.Runs, agg.FailedRuns)
	}
	if want := 0.3; math.Abs(agg.FailureRate.Mean-want) > 1e-12 {
		t.Errorf("FailureRate.Mean = %v, want %v", agg.FailureRate.Mean, want)
	}
	if agg.FailureRate.Min != 0.2 || agg.FailureRate.Max != 0.4 {
		t.Errorf("min/max = %v/%v, want 0.2/0.4", agg.FailureRate.Min, agg.FailureRate.Max)
	}
}

func TestAggregate_StatusTotals(t *testing.T) {
	runs := []engine.RunResult{
		{Agents: []engine.AgentRecord{
			{ID: 0, FinalStatus: engine.StatusFailed},
			{ID: 1, FinalStatus: engine.StatusExitedSuccess, Funded: true},
			{ID: 2, FinalStatus: engine.StatusActive, Funded: true},
		}},
		{Agents: []engine.AgentRecord{
			{ID: 0, FinalStatus: engine.StatusFailed, Funded: true},
			{ID: 1, FinalStatus: engine.StatusFailed},
		}},
		// Failed runs contribute nothing, even with agent records attached.
		{Agents: []engine.AgentRecord{
			{ID: 0, FinalStatus: engine.StatusExitedSuccess},
		}, Err: errors.New("nan capital")},
	}

	agg := aggregate(runs)

	want := StatusTotals{Active: 1, Failed: 3, Exited: 1, Funded: 3}
	if agg.Totals != want {
		t.Errorf("Totals = %+v, want %+v", agg.Totals, want)
	}
}

func TestAggregate_AllRunsFailed(t *testing.T) {
	runs := []engine.RunResult{
		{Summary: engine.RunSummary{FailureRate: 0.5}, Err: errors.New("nan capital")},
		{Summary: engine.RunSummary{FailureRate: 0.5}, Err: errors.New("nan capital")},
	}

	agg := aggregate(runs)

	if agg.FailedRuns != 2 {
		t.Fatalf("FailedRuns = %d, want 2", agg.FailedRuns)
	}
	if agg.FailureRate != (Metric{}) {
		t.Errorf("metric over zero good runs = %+v, want zero value", agg.FailureRate)
	}
	if len(agg.Monthly.Active) != 0 {
		t.Errorf("monthly series length = %d, want 0", len(agg.Monthly.Active))
	}
}

func TestMonthlySeries_AveragesAcrossRuns(t *testing.T) {
	a := engine.RunResult{Months: []engine.MonthRecord{
		{Month: 1, Active: 10, MarketSize: 100},
		{Month: 2, Active: 8, MarketSize: 110},
		{Month: 3, Active: 6, MarketSize: 121},
	}}
	b := engine.RunResult{Months: []engine.MonthRecord{
		{Month: 1, Active: 4, MarketSize: 50},
	}}

	series := monthlySeries([]*engine.RunResult{&a, &b})

	if len(series.Active) != 3 {
		t.Fatalf("series length = %d, want 3", len(series.Active))
	}
	// The halted run keeps contributing its final record.
	wantActive := []float64{7, 6, 5}
	wantMarket := []float64{75, 80, 85.5}
	for month := range wantActive {
		if got := series.Active[month]; got != wantActive[month] {
			t.Errorf("Active[%d] = %v, want %v", month, got, wantActive[month])
		}
		if got := series.MarketSize[month]; got != wantMarket[month] {
			t.Errorf("MarketSize[%d] = %v, want %v", month, got, wantMarket[month])
		}
	}
}

func TestMonthlySeries_IgnoresEmptyRuns(t *testing.T) {
	full := engine.RunResult{Months: []engine.MonthRecord{{Month: 1, Active: 12}}}
	empty := engine.RunResult{}

	series := monthlySeries([]*engine.RunResult{&full, &empty})

	if len(series.Active) != 1 {
		t.Fatalf("series length = %d, want 1", len(series.Active))
	}
	if series.Active[0] != 12 {
		t.Errorf("Active[0] = %v, want 12 (empty run must not dilute the mean)", series.Active[0])
	}
}

func TestMonthlySeries_NoRuns(t *testing.T) {
	series := monthlySeries(nil)
	if len(series.Active) != 0 || len(series.MarketSize) != 0 {
		t.Errorf("expected empty series, got %+v", series)
	}
}
