package engine

import (
	"math"

	"github.com/nvandessel/venturesim/internal/config"
)

// DecisionInput is everything the investor model sees about a startup.
// Burn is the startup's total monthly outflow and Competition is the share
// of the initial population currently operating on raised capital.
type DecisionInput struct {
	PMF         float64
	Revenue     float64
	Burn        float64
	Capital     float64
	Competition float64
}

// Decision is the outcome of one funding evaluation.
type Decision struct {
	Eligible bool
	Score    float64
	Accepted bool
	Amount   float64
}

// Eligible applies the hard screening gate. A startup with no positive
// burn cannot present a runway ratio and is screened out rather than
// treated as infinitely efficient; one already underwater is screened out
// so a round can never be a withdrawal.
func Eligible(in DecisionInput, cfg config.InvestorConfig) bool {
	if in.Burn <= 0 || in.Capital <= 0 {
		return false
	}
	if in.Revenue/in.Burn < cfg.AlphaRevenueBurn {
		return false
	}
	return in.PMF >= cfg.PMFMin
}

// Decide evaluates one funding attempt. It is a pure function of its
// inputs: draw must be a single uniform variate in [0, 1), drawn once per
// attempt whether or not the gate passes, so that a gate flip never
// changes how many draws an attempt costs.
func Decide(in DecisionInput, cfg config.InvestorConfig, draw float64) Decision {
	if !Eligible(in, cfg) {
		return Decision{}
	}
	score := logistic(cfg.BetaPMF*in.PMF + cfg.BetaRevenue*math.Log1p(in.Revenue) - cfg.BetaCompetition*in.Competition)
	dec := Decision{Eligible: true, Score: score}
	if draw < score {
		dec.Accepted = true
		dec.Amount = cfg.Kappa * in.Capital
	}
	return dec
}

// logistic is the standard sigmoid 1/(1+e^-x).
func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
