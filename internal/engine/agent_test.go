package engine

import (
	"math"
	"testing"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/randx"
)

// quietConfig disables every noise source so stage arithmetic can be
// checked exactly. Draw counts are unchanged: zero-sigma normals still
// consume uniforms, so streams stay comparable across variants.
func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.Adoption.SigmaR = 0
	cfg.PMF.SigmaPMF = 0
	cfg.Shocks.PShock = 0
	return cfg
}

func TestAdvance_RevenueFormula(t *testing.T) {
	cfg := quietConfig()
	a := Agent{Capital: 1e6, BurnRate: 0.05, PMF: 0.5, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 12, addressable: 1000}

	advance(&a, &env, randx.New(1))

	// ramp 12/(12+12)=0.5 puts pmf*ramp exactly at the 0.25 barrier, so
	// the share is sigma(0)=0.5 and the margin is 0.75:
	// revenue = 1000*0.5*10*100*0.75.
	if want := 375000.0; math.Abs(a.Revenue-want) > 1 {
		t.Errorf("Revenue = %v, want about %v", a.Revenue, want)
	}
}

func TestAdvance_RevenueNeverNegative(t *testing.T) {
	cfg := quietConfig()
	cfg.Adoption.SigmaR = 1e6
	rng := randx.New(5)

	for i := 0; i < 100; i++ {
		a := Agent{Capital: 1e8, BurnRate: 0.01, PMF: 0.5, Status: StatusActive}
		env := monthEnv{cfg: cfg, month: 1, addressable: 0}
		advance(&a, &env, rng)
		if a.Revenue < 0 {
			t.Fatalf("iteration %d: Revenue = %v, want >= 0", i, a.Revenue)
		}
	}
}

func TestAdvance_SpendingAndSubsidy(t *testing.T) {
	cfg := quietConfig()
	cfg.Policy.CReg = 1000
	cfg.Policy.SG = 500

	tests := []struct {
		name        string
		subsidized  bool
		wantCapital float64
	}{
		{"inside subsidy window", true, 74500},
		{"window closed", false, 74000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Agent{Capital: 100000, BurnRate: 0.25, PMF: 0.2, Status: StatusActive}
			env := monthEnv{
				cfg:         cfg,
				month:       1,
				addressable: 0,
				policyMonth: true,
				subsidized:  tt.subsidized,
			}

			advance(&a, &env, randx.New(9))

			// Zero revenue: capital moves by exactly burn, compliance
			// and subsidy, and the loss is never taxed.
			if a.Capital != tt.wantCapital {
				t.Errorf("Capital = %v, want %v", a.Capital, tt.wantCapital)
			}
			if a.Status != StatusActive {
				t.Errorf("Status = %v, want active", a.Status)
			}
			if a.MonthsAlive != 1 {
				t.Errorf("MonthsAlive = %d, want 1", a.MonthsAlive)
			}
		})
	}
}

func TestAdvance_TaxOnPositiveProfitOnly(t *testing.T) {
	low := quietConfig()
	low.Policy.Tau = 0
	high := quietConfig()
	high.Policy.Tau = 0.5

	newAgent := func() Agent {
		return Agent{Capital: 1e6, BurnRate: 0.05, PMF: 0.9, Status: StatusActive}
	}
	newEnv := func(cfg *config.Config) monthEnv {
		return monthEnv{cfg: cfg, month: 24, addressable: 5000, policyMonth: true}
	}

	aLow := newAgent()
	envLow := newEnv(low)
	advance(&aLow, &envLow, randx.New(3))

	aHigh := newAgent()
	envHigh := newEnv(high)
	advance(&aHigh, &envHigh, randx.New(3))

	if aLow.Revenue != aHigh.Revenue {
		t.Fatalf("revenues diverged: %v vs %v", aLow.Revenue, aHigh.Revenue)
	}
	spend := 1e6*0.05 + low.Policy.CReg
	profit := aLow.Revenue - spend
	if profit <= 0 {
		t.Fatalf("setup produced profit %v, want positive", profit)
	}
	wantTax := 0.5 * profit
	if got := aLow.Capital - aHigh.Capital; math.Abs(got-wantTax) > 1e-6 {
		t.Errorf("tax taken = %v, want %v", got, wantTax)
	}
}

func TestAdvance_PMFClamped(t *testing.T) {
	t.Run("upper", func(t *testing.T) {
		cfg := quietConfig()
		cfg.PMF.Eta = 1
		cfg.Valuation.VExit = 1e18
		a := Agent{Capital: 1e7, BurnRate: 0.05, PMF: 0.9, Status: StatusActive}
		env := monthEnv{cfg: cfg, month: 12, addressable: 1000}

		advance(&a, &env, randx.New(2))
		if a.PMF != 1 {
			t.Errorf("PMF = %v, want clamped to 1", a.PMF)
		}
	})

	t.Run("lower", func(t *testing.T) {
		cfg := quietConfig()
		cfg.Shocks.PShock = 1
		cfg.Shocks.PMFShockMin = -5
		cfg.Shocks.PMFShockMax = -5
		cfg.Shocks.MarketShockMin = 0
		cfg.Shocks.MarketShockMax = 0
		a := Agent{Capital: 1e7, BurnRate: 0.05, PMF: 0.3, Status: StatusActive}
		env := monthEnv{cfg: cfg, month: 6, addressable: 100}

		advance(&a, &env, randx.New(2))
		if a.PMF != 0 {
			t.Errorf("PMF = %v, want clamped to 0", a.PMF)
		}
	})
}

func TestAdvance_FundingAccepted(t *testing.T) {
	cfg := quietConfig()
	cfg.Investor.AlphaRevenueBurn = 0
	cfg.Investor.PMFMin = 0
	cfg.Investor.BetaPMF = 1000 // acceptance certain

	a := Agent{Capital: 100000, BurnRate: 0.25, PMF: 0.5, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 1, addressable: 0, fundingMonth: true}

	advance(&a, &env, randx.New(4))

	// spend 25000 leaves 75000; the round injects kappa*75000.
	if want := 75000 + 0.25*75000; a.Capital != want {
		t.Errorf("Capital = %v, want %v", a.Capital, want)
	}
	if a.FundingReceived != 18750 {
		t.Errorf("FundingReceived = %v, want 18750", a.FundingReceived)
	}
	if !a.Funded {
		t.Error("Funded = false, want true")
	}
	if a.Status != StatusFundedThisMonth {
		t.Errorf("Status = %v, want funded_this_month", a.Status)
	}
	if math.Abs(a.BurnRate-0.3) > 1e-12 {
		t.Errorf("BurnRate = %v, want 0.25*1.2", a.BurnRate)
	}
}

func TestAdvance_FundingAttemptConsumesOneDraw(t *testing.T) {
	cfg := quietConfig()
	cfg.Investor.PMFMin = 0.9 // agent pmf stays well below

	a1 := Agent{Capital: 1e6, BurnRate: 0.05, PMF: 0.5, Status: StatusActive}
	a2 := a1
	s1 := randx.New(11)
	s2 := randx.New(11)

	env1 := monthEnv{cfg: cfg, month: 3, addressable: 1000, fundingMonth: true}
	env2 := monthEnv{cfg: cfg, month: 3, addressable: 1000, fundingMonth: false}
	advance(&a1, &env1, s1)
	advance(&a2, &env2, s2)

	// A gate-rejected attempt still takes its acceptance draw; the agent
	// itself is untouched.
	if a1 != a2 {
		t.Errorf("agents diverged: %+v vs %+v", a1, a2)
	}
	s2.Float64() // absorb the attempt draw the second stream never made
	if d1, d2 := s1.Float64(), s2.Float64(); d1 != d2 {
		t.Errorf("streams off by more than the attempt draw: %v vs %v", d1, d2)
	}
}

func TestAdvance_GateOutcomeDoesNotShiftDraws(t *testing.T) {
	rejected := quietConfig()
	rejected.Investor.PMFMin = 0.9 // gate rejects at pmf 0.5
	eligible := quietConfig()
	eligible.Investor.AlphaRevenueBurn = 0
	eligible.Investor.PMFMin = 0
	eligible.Investor.BetaCompetition = 1e6 // scored but never accepted

	a1 := Agent{Capital: 1e6, BurnRate: 0.05, PMF: 0.5, Status: StatusActive}
	a2 := a1
	s1 := randx.New(11)
	s2 := randx.New(11)

	env1 := monthEnv{cfg: rejected, month: 3, addressable: 1000, fundingMonth: true}
	env2 := monthEnv{cfg: eligible, month: 3, addressable: 1000, fundingMonth: true, fundedShare: 1}
	advance(&a1, &env1, s1)
	advance(&a2, &env2, s2)

	if a1.Funded || a2.Funded {
		t.Fatalf("setup funded an agent: %v / %v", a1.Funded, a2.Funded)
	}
	if a1 != a2 {
		t.Errorf("agents diverged: %+v vs %+v", a1, a2)
	}
	// Both attempts consumed exactly one draw, so the streams remain in
	// lockstep whichever side of the gate was taken.
	if d1, d2 := s1.Float64(), s2.Float64(); d1 != d2 {
		t.Errorf("streams diverged across the gate: %v vs %v", d1, d2)
	}
}

func TestAdvance_FundedOnceSkipsLaterRounds(t *testing.T) {
	cfg := quietConfig()
	cfg.Investor.AlphaRevenueBurn = 0
	cfg.Investor.PMFMin = 0
	cfg.Investor.BetaPMF = 1000

	a1 := Agent{Capital: 1e6, BurnRate: 0.05, PMF: 0.5, Funded: true, Status: StatusActive}
	a2 := a1
	s1 := randx.New(11)
	s2 := randx.New(11)

	env1 := monthEnv{cfg: cfg, month: 3, addressable: 1000, fundingMonth: true}
	env2 := monthEnv{cfg: cfg, month: 3, addressable: 1000, fundingMonth: false}
	advance(&a1, &env1, s1)
	advance(&a2, &env2, s2)

	if a1.FundingReceived != 0 {
		t.Errorf("FundingReceived = %v, want 0 for already-funded agent", a1.FundingReceived)
	}
	if a1 != a2 {
		t.Errorf("agents diverged: %+v vs %+v", a1, a2)
	}
	if d1, d2 := s1.Float64(), s2.Float64(); d1 != d2 {
		t.Errorf("streams diverged: %v vs %v", d1, d2)
	}
}

func TestAdvance_BurnCutOnLowRunway(t *testing.T) {
	cfg := quietConfig()
	a := Agent{Capital: 200000, BurnRate: 0.25, PMF: 0.1, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 1, addressable: 0}

	advance(&a, &env, randx.New(6))

	// 150000 left against a 87500 monthly outflow is under three months
	// of runway.
	if want := 0.25 * 0.85; math.Abs(a.BurnRate-want) > 1e-12 {
		t.Errorf("BurnRate = %v, want %v", a.BurnRate, want)
	}
	if a.Status != StatusActive {
		t.Errorf("Status = %v, want active", a.Status)
	}
}

func TestAdvance_FailsOnExhaustedCapital(t *testing.T) {
	cfg := quietConfig()
	a := Agent{Capital: 100, BurnRate: 0.5, PMF: 0.2, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 1, addressable: 0, policyMonth: true}

	advance(&a, &env, randx.New(8))

	if a.Status != StatusFailed {
		t.Errorf("Status = %v, want failed", a.Status)
	}
	if a.Capital > 0 {
		t.Errorf("Capital = %v, want non-positive", a.Capital)
	}
}

func TestAdvance_ExhaustionWinsOverExit(t *testing.T) {
	cfg := quietConfig()
	cfg.Valuation.VExit = 1 // any surviving agent would exit
	a := Agent{Capital: 100, BurnRate: 0.5, PMF: 1, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 1, addressable: 0, policyMonth: true}

	advance(&a, &env, randx.New(8))

	if a.Status != StatusFailed {
		t.Errorf("Status = %v, want failed even at high valuation", a.Status)
	}
}

func TestAdvance_ExitOnValuationThreshold(t *testing.T) {
	cfg := quietConfig()
	cfg.Valuation.VExit = 1e6
	a := Agent{Capital: 600000, BurnRate: 0.05, PMF: 0.2, Status: StatusActive}
	env := monthEnv{cfg: cfg, month: 1, addressable: 0}

	advance(&a, &env, randx.New(8))

	if a.Status != StatusExitedSuccess {
		t.Errorf("Status = %v, want exited_success", a.Status)
	}
}
