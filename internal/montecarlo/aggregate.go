package montecarlo

import (
	"math"

	"github.com/nvandessel/venturesim/internal/engine"
)

// Metric summarizes one scalar across the successful runs of a batch.
// Std is the population standard deviation.
type Metric struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// MonthlySeries holds cross-run means of the month records, month by
// month up to the longest run. A run that halted early keeps contributing
// its final record, so a dead population stays dead in the series rather
// than dropping out of the denominator.
type MonthlySeries struct {
	Active        []float64 `json:"active"`
	Failed        []float64 `json:"failed"`
	Exited        []float64 `json:"exited"`
	FundedTotal   []float64 `json:"funded_total"`
	MeanCapital   []float64 `json:"mean_capital"`
	MeanPMF       []float64 `json:"mean_pmf"`
	MeanValuation []float64 `json:"mean_valuation"`
	MarketSize    []float64 `json:"market_size"`
}

// StatusTotals counts agent outcomes summed over the successful runs of
// a batch. Active covers agents still operating at their run's end;
// Funded counts agents that closed a round regardless of outcome.
type StatusTotals struct {
	Active int `json:"active"`
	Failed int `json:"failed"`
	Exited int `json:"exited"`
	Funded int `json:"funded"`
}

// Aggregate is the cross-run summary of a batch. Scalar metrics cover the
// successful runs only; failed runs are counted and otherwise excluded.
type Aggregate struct {
	Runs       int          `json:"runs"`
	FailedRuns int          `json:"failed_runs"`
	Totals     StatusTotals `json:"totals"`

	FailureRate          Metric `json:"failure_rate"`
	SuccessRate          Metric `json:"success_rate"`
	FundedRate           Metric `json:"funded_rate"`
	TotalFunding         Metric `json:"total_funding"`
	MeanFinalCapital     Metric `json:"mean_final_capital"`
	MeanFinalPMF         Metric `json:"mean_final_pmf"`
	MeanFinalValuation   Metric `json:"mean_final_valuation"`
	TopValuation         Metric `json:"top_valuation"`
	MeanMonthsSurvived   Metric `json:"mean_months_survived"`
	MedianMonthsSurvived Metric `json:"median_months_survived"`
	FinalMarketSize      Metric `json:"final_market_size"`

	Monthly MonthlySeries `json:"monthly"`
}

func aggregate(runs []engine.RunResult) Aggregate {
	agg := Aggregate{Runs: len(runs)}

	good := make([]engine.RunSummary, 0, len(runs))
	goodRuns := make([]*engine.RunResult, 0, len(runs))
	for i := range runs {
		if runs[i].Err != nil {
			agg.FailedRuns++
			continue
		}
		good = append(good, runs[i].Summary)
		goodRuns = append(goodRuns, &runs[i])
	}

	for _, r := range goodRuns {
		for _, a := range r.Agents {
			switch a.FinalStatus {
			case engine.StatusFailed:
				agg.Totals.Failed++
			case engine.StatusExitedSuccess:
				agg.Totals.Exited++
			default:
				agg.Totals.Active++
			}
			if a.Funded {
				agg.Totals.Funded++
			}
		}
	}

	metric := func(pick func(engine.RunSummary) float64) Metric {
		xs := make([]float64, len(good))
		for i, s := range good {
			xs[i] = pick(s)
		}
		return newMetric(xs)
	}

	agg.FailureRate = metric(func(s engine.RunSummary) float64 { return s.FailureRate })
	agg.SuccessRate = metric(func(s engine.RunSummary) float64 { return s.SuccessRate })
	agg.FundedRate = metric(func(s engine.RunSummary) float64 { return s.FundedRate })
	agg.TotalFunding = metric(func(s engine.RunSummary) float64 { return s.TotalFunding })
	agg.MeanFinalCapital = metric(func(s engine.RunSummary) float64 { return s.MeanFinalCapital })
	agg.MeanFinalPMF = metric(func(s engine.RunSummary) float64 { return s.MeanFinalPMF })
	agg.MeanFinalValuation = metric(func(s engine.RunSummary) float64 { return s.MeanFinalValuation })
	agg.TopValuation = metric(func(s engine.RunSummary) float64 { return s.TopValuation })
	agg.MeanMonthsSurvived = metric(func(s engine.RunSummary) float64 { return s.MeanMonthsSurvived })
	agg.MedianMonthsSurvived = metric(func(s engine.RunSummary) float64 { return s.MedianMonthsSurvived })
	agg.FinalMarketSize = metric(func(s engine.RunSummary) float64 { return s.FinalMarketSize })

	agg.Monthly = monthlySeries(goodRuns)
	return agg
}

func newMetric(xs []float64) Metric {
	if len(xs) == 0 {
		return Metric{}
	}
	m := Metric{Min: xs[0], Max: xs[0]}
	var sum float64
	for _, x := range xs {
		sum += x
		if x < m.Min {
			m.Min = x
		}
		if x > m.Max {
			m.Max = x
		}
	}
	m.Mean = sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - m.Mean
		ss += d * d
	}
	m.Std = math.Sqrt(ss / float64(len(xs)))
	return m
}

func monthlySeries(runs []*engine.RunResult) MonthlySeries {
	longest := 0
	for _, r := range runs {
		if len(r.Months) > longest {
			longest = len(r.Months)
		}
	}
	series := MonthlySeries{
		Active:        make([]float64, longest),
		Failed:        make([]float64, longest),
		Exited:        make([]float64, longest),
		FundedTotal:   make([]float64, longest),
		MeanCapital:   make([]float64, longest),
		MeanPMF:       make([]float64, longest),
		MeanValuation: make([]float64, longest),
		MarketSize:    make([]float64, longest),
	}
	if longest == 0 {
		return series
	}

	counted := 0
	for _, r := range runs {
		if len(r.Months) == 0 {
			continue
		}
		counted++
		for month := 0; month < longest; month++ {
			rec := r.Months[len(r.Months)-1]
			if month < len(r.Months) {
				rec = r.Months[month]
			}
			series.Active[month] += float64(rec.Active)
			series.Failed[month] += float64(rec.Failed)
			series.Exited[month] += float64(rec.Exited)
			series.FundedTotal[month] += float64(rec.FundedTotal)
			series.MeanCapital[month] += rec.MeanCapital
			series.MeanPMF[month] += rec.MeanPMF
			series.MeanValuation[month] += rec.MeanValuation
			series.MarketSize[month] += rec.MarketSize
		}
	}
	if counted == 0 {
		return series
	}
	for month := 0; month < longest; month++ {
		n := float64(counted)
		series.Active[month] /= n
		series.Failed[month] /= n
		series.Exited[month] /= n
		series.FundedTotal[month] /= n
		series.MeanCapital[month] /= n
		series.MeanPMF[month] /= n
		series.MeanValuation[month] /= n
		series.MarketSize[month] /= n
	}
	return series
}
