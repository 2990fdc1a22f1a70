package engine

import (
	"math"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/randx"
)

// Valuation scores a startup as a weighted blend of traction, fit, and
// cash: V = lambda1*R + lambda2*P + lambda3*K.
func Valuation(revenue, pmf, capital float64, cfg config.ValuationConfig) float64 {
	return cfg.LambdaRevenue*revenue + cfg.LambdaPMF*pmf + cfg.LambdaCapital*capital
}

// monthEnv carries the per-month context shared by every agent update. It
// is built once per tick from the previous month's end state, so the order
// agents are visited in cannot change what any of them observes.
type monthEnv struct {
	cfg          *config.Config
	month        int     // 1-based month being simulated
	addressable  float64 // market demand available to one active startup
	fundedShare  float64 // funded share of the initial population
	policyMonth  bool
	fundingMonth bool
	subsidized   bool
}

// shockReport is one agent's contribution to the month's aggregated
// market shock.
type shockReport struct {
	magnitude float64
	hit       bool
}

// advance runs one month of life for a single non-terminal agent,
// mutating it in place. The stage order is fixed: revenue, spending, tax,
// fit drift, shock, funding, terminal checks. rng is the agent's own
// stream; nothing here draws from any other agent's. The returned report
// carries the agent's market shock draw for the scheduler to aggregate;
// the shock is never applied to the market here.
func advance(a *Agent, env *monthEnv, rng *randx.Stream) shockReport {
	cfg := env.cfg
	a.MonthsAlive++

	// Revenue: adoption share of the agent's market slice, plus noise.
	// Fit takes adoption_ramp months to reach half strength, and the
	// price barrier shifts the curve and thins the margin.
	ramp := float64(env.month) / (float64(env.month) + cfg.Adoption.RampMonths)
	barrier := cfg.Adoption.EpsilonPrice * cfg.Adoption.BasePrice
	share := logistic(cfg.Adoption.Gamma * (a.PMF*ramp - barrier))
	margin := 1 - barrier
	if margin < 0 {
		margin = 0
	}
	revenue := env.addressable*share*cfg.Adoption.Quantity*cfg.Adoption.BasePrice*margin + rng.Norm(0, cfg.Adoption.SigmaR)
	if revenue < 0 {
		revenue = 0
	}
	a.Revenue = revenue

	// Spending: operational burn, plus compliance and subsidy on policy
	// months while the subsidy window is open.
	spend := a.Capital * a.BurnRate
	if env.policyMonth {
		spend += cfg.Policy.CReg
	}
	a.Capital += revenue - spend
	if env.policyMonth && env.subsidized {
		a.Capital += cfg.Policy.SG
	}

	// Tax on positive operating profit only; losses carry no credit.
	if env.policyMonth {
		if profit := revenue - spend; profit > 0 {
			a.Capital -= cfg.Policy.Tau * profit
		}
	}

	// Fit drift: traction compounds fit, noise perturbs it.
	a.PMF = clamp01(a.PMF + cfg.PMF.Eta*math.Log1p(revenue) + rng.Norm(0, cfg.PMF.SigmaPMF))

	// Shock check: the fit hit lands immediately, the market magnitude
	// goes into the report.
	var report shockReport
	if rng.Bool(cfg.Shocks.PShock) {
		a.PMF = clamp01(a.PMF + rng.Range(cfg.Shocks.PMFShockMin, cfg.Shocks.PMFShockMax))
		report = shockReport{magnitude: rng.Range(cfg.Shocks.MarketShockMin, cfg.Shocks.MarketShockMax), hit: true}
	}

	// Funding: one attempt per funding month, at most one round per run.
	// The acceptance draw comes before the gate: every attempt consumes
	// exactly one uniform whichever side of the gate the agent lands on,
	// keeping its later draws aligned across parameter changes. Anyone
	// left unfunded trims burn when runway is short.
	funded := false
	if env.fundingMonth && !a.Funded {
		draw := rng.Float64()
		in := DecisionInput{
			PMF:         a.PMF,
			Revenue:     a.Revenue,
			Burn:        spend,
			Capital:     a.Capital,
			Competition: env.fundedShare,
		}
		if Eligible(in, cfg.Investor) {
			if dec := Decide(in, cfg.Investor, draw); dec.Accepted {
				a.Capital += dec.Amount
				a.FundingReceived += dec.Amount
				a.Funded = true
				a.Status = StatusFundedThisMonth
				a.BurnRate *= 1 + cfg.Burn.DeltaGrowth
				funded = true
			}
		}
	}
	if !funded {
		// Runway treats compliance as a recurring monthly cost.
		if next := a.Capital*a.BurnRate + cfg.Policy.CReg; next > 0 && a.Capital/next < cfg.Burn.RunwayLowThreshold {
			a.BurnRate *= 1 - cfg.Burn.DeltaCut
		}
	}

	// Terminal checks: capital exhaustion wins over exit.
	if a.Capital <= 0 {
		a.Status = StatusFailed
		return report
	}
	if Valuation(a.Revenue, a.PMF, a.Capital, cfg.Valuation) >= cfg.Valuation.VExit {
		a.Status = StatusExitedSuccess
	}
	return report
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
