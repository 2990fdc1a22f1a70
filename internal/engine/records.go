package engine

import (
	"math"
	"sort"
)

// Agent is the full state of one startup. Agents are plain records held in
// the model's arena slice; all behavior lives in free functions and Model
// methods that mutate them in place.
type Agent struct {
	// ID is the agent's index in the arena, stable for the whole run.
	ID int `json:"id"`

	// Capital is cash on hand (K).
	Capital float64 `json:"capital"`

	// BurnRate is the fraction of capital spent per month (B).
	BurnRate float64 `json:"burn_rate"`

	// PMF is product-market fit in [0, 1] (P).
	PMF float64 `json:"pmf"`

	// Revenue is the most recent monthly revenue (R).
	Revenue float64 `json:"revenue"`

	// FundingReceived is the cumulative funding taken in (F).
	FundingReceived float64 `json:"funding_received"`

	// Funded reports whether the agent has ever closed a round. An agent
	// raises at most once per run.
	Funded bool `json:"funded"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// MonthsAlive counts months the agent entered in a non-terminal state.
	MonthsAlive int `json:"months_alive"`
}

// MonthRecord is the population snapshot taken at the end of each month.
// Active counts all non-terminal agents, including the FundedNow subset
// that closed a round this month, so Active+Failed+Exited equals the
// initial population. Means are computed over the non-terminal agents and
// are zero when none remain.
type MonthRecord struct {
	Month         int     `json:"month"`
	Active        int     `json:"active"`
	FundedNow     int     `json:"funded_now"`
	FundedTotal   int     `json:"funded_total"`
	Failed        int     `json:"failed"`
	Exited        int     `json:"exited"`
	MeanCapital   float64 `json:"mean_capital"`
	MeanPMF       float64 `json:"mean_pmf"`
	MeanValuation float64 `json:"mean_valuation"`
	MarketSize    float64 `json:"market_size"`
}

// AgentRecord is the per-agent outcome captured when a run finishes.
type AgentRecord struct {
	ID              int     `json:"id"`
	FinalStatus     Status  `json:"final_status"`
	MonthsSurvived  int     `json:"months_survived"`
	Funded          bool    `json:"funded"`
	FundingReceived float64 `json:"funding_received"`
	FinalCapital    float64 `json:"final_capital"`
	FinalPMF        float64 `json:"final_pmf"`
	FinalRevenue    float64 `json:"final_revenue"`
	FinalValuation  float64 `json:"final_valuation"`
}

// RunSummary is the scalar outcome of one run. Rates are fractions of the
// initial population and are zero for an empty population.
type RunSummary struct {
	Run                  int     `json:"run"`
	Seed                 uint64  `json:"seed"`
	Startups             int     `json:"startups"`
	MonthsSimulated      int     `json:"months_simulated"`
	FailureRate          float64 `json:"failure_rate"`
	SuccessRate          float64 `json:"success_rate"`
	FundedRate           float64 `json:"funded_rate"`
	TotalFunding         float64 `json:"total_funding"`
	MeanFinalCapital     float64 `json:"mean_final_capital"`
	MeanFinalPMF         float64 `json:"mean_final_pmf"`
	MeanFinalValuation   float64 `json:"mean_final_valuation"`
	TopValuation         float64 `json:"top_valuation"`
	MeanMonthsSurvived   float64 `json:"mean_months_survived"`
	MedianMonthsSurvived float64 `json:"median_months_survived"`
	FinalMarketSize      float64 `json:"final_market_size"`
}

// RunResult bundles everything a single run produced. Err is set when the
// run aborted on an internal consistency violation; partial records up to
// the failing month are retained for inspection.
type RunResult struct {
	Summary RunSummary    `json:"summary"`
	Months  []MonthRecord `json:"months"`
	Agents  []AgentRecord `json:"agents"`
	Err     error         `json:"-"`
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// percentile returns the value at fraction p of the sorted sample, using
// the nearest-rank rule. p=0.90 over 200 values picks the 180th smallest.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
