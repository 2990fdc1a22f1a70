// Package sweep runs one-dimensional parameter sweeps: one Monte Carlo
// batch per value of a single flat-named parameter, all other settings
// and the base seed held fixed, plus a least-squares sensitivity fit of
// each response metric against the swept value.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sajari/regression"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/montecarlo"
)

// Point is the outcome of the sweep at a single parameter value.
type Point struct {
	Value     float64              `json:"value"`
	BatchID   string               `json:"batch_id"`
	Aggregate montecarlo.Aggregate `json:"aggregate"`
}

// Fit is the least-squares line of one response metric over the swept
// parameter. An R2 near 1 means the metric moved almost linearly across
// the swept range.
type Fit struct {
	Metric    string  `json:"metric"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// Result is a completed sweep: one point per value plus the fits.
type Result struct {
	Field  string  `json:"field"`
	Points []Point `json:"points"`
	Fits   []Fit   `json:"fits"`
}

// responseMetrics are the cross-run means regressed against the swept
// parameter.
var responseMetrics = []struct {
	name string
	pick func(montecarlo.Aggregate) float64
}{
	{"failure_rate", func(a montecarlo.Aggregate) float64 { return a.FailureRate.Mean }},
	{"success_rate", func(a montecarlo.Aggregate) float64 { return a.SuccessRate.Mean }},
	{"funded_rate", func(a montecarlo.Aggregate) float64 { return a.FundedRate.Mean }},
	{"total_funding", func(a montecarlo.Aggregate) float64 { return a.TotalFunding.Mean }},
	{"mean_final_capital", func(a montecarlo.Aggregate) float64 { return a.MeanFinalCapital.Mean }},
	{"mean_final_valuation", func(a montecarlo.Aggregate) float64 { return a.MeanFinalValuation.Mean }},
	{"top_valuation", func(a montecarlo.Aggregate) float64 { return a.TopValuation.Mean }},
	{"mean_months_survived", func(a montecarlo.Aggregate) float64 { return a.MeanMonthsSurvived.Mean }},
}

// Sweeper sweeps one parameter of a base configuration.
type Sweeper struct {
	base   *config.Config
	logger *slog.Logger
}

// New prepares a sweeper over base. logger may be nil for silence.
func New(base *config.Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{base: base, logger: logger}
}

// Run executes one batch per value of field. Points share the base seed,
// so they differ only through the swept parameter.
func (s *Sweeper) Run(ctx context.Context, field string, values []float64) (*Result, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("sweep of %s: no values given", field)
	}
	// Reject an unknown field before paying for any batch.
	if err := s.base.Clone().Set(field, values[0]); err != nil {
		return nil, err
	}

	res := &Result{Field: field, Points: make([]Point, 0, len(values))}
	for _, v := range values {
		cfg := s.base.Clone()
		if err := cfg.Set(field, v); err != nil {
			return nil, err
		}
		s.logger.Info("sweep point", "field", field, "value", v)
		batch, err := montecarlo.NewRunner(cfg, s.logger, nil).Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("sweep of %s at %v: %w", field, v, err)
		}
		res.Points = append(res.Points, Point{
			Value:     v,
			BatchID:   batch.BatchID,
			Aggregate: batch.Aggregate,
		})
	}
	res.Fits = fitAll(field, res.Points)
	return res, nil
}

// fitAll regresses each response metric on the swept value. A fit needs
// at least three points; with fewer the result carries points only.
func fitAll(field string, points []Point) []Fit {
	if len(points) < 3 {
		return nil
	}
	fits := make([]Fit, 0, len(responseMetrics))
	for _, m := range responseMetrics {
		r := new(regression.Regression)
		r.SetObserved(m.name)
		r.SetVar(0, field)
		for _, p := range points {
			r.Train(regression.DataPoint(m.pick(p.Aggregate), []float64{p.Value}))
		}
		if err := r.Run(); err != nil {
			continue
		}
		fit := Fit{
			Metric:    m.name,
			Slope:     r.Coeff(1),
			Intercept: r.Coeff(0),
			R2:        r.R2,
		}
		// A response with no variance across the sweep has no finite fit.
		if !finite(fit.Slope) || !finite(fit.Intercept) || !finite(fit.R2) {
			continue
		}
		fits = append(fits, fit)
	}
	return fits
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
