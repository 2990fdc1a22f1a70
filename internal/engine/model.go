// Package engine implements the agent-based funding simulation: a
// population of startup records advancing month by month against a
// shared market, with investor funding decisions and policy costs
// applied along the way. One Model is one run; the run stream seeds the
// population sample and one derived stream per agent, so equal seeds
// give equal runs and an agent's draws never depend on another agent's
// branches.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/nvandessel/venturesim/internal/config"
	"github.com/nvandessel/venturesim/internal/randx"
)

// Model holds one run's complete state: the market, the agent arena, and
// the month records accumulated so far. A Model is not safe for
// concurrent use; parallelism happens across runs, each with its own
// Model and random stream.
type Model struct {
	cfg    *config.Config
	market Market
	agents []Agent

	// One stream per agent, all seeded from the run stream. An agent
	// taking a different branch shifts only its own later draws.
	streams []*randx.Stream

	months []MonthRecord

	// End state of the previous month, read by every agent in the
	// current one so visit order cannot leak between agents.
	prevActive int
	prevFunded int
}

// NewModel samples a fresh population from the configured initial
// distributions and seeds each agent's stream from the run stream.
// Agents are visited in arena index order every tick.
func NewModel(cfg *config.Config, rng *randx.Stream) *Model {
	n := cfg.Simulation.NumStartups
	m := &Model{
		cfg:        cfg,
		market:     Market{Size: cfg.Market.M0Initial},
		agents:     make([]Agent, n),
		streams:    make([]*randx.Stream, n),
		prevActive: n,
	}
	for i := range m.agents {
		a := &m.agents[i]
		a.ID = i
		a.Capital = rng.Range(cfg.Initial.K0Min, cfg.Initial.K0Max)
		a.BurnRate = rng.Range(cfg.Initial.B0MinRatio, cfg.Initial.B0MaxRatio)
		a.PMF = rng.Beta(cfg.Initial.PMFAlpha, cfg.Initial.PMFBeta)
		a.Status = StatusActive
	}
	for i := range m.streams {
		m.streams[i] = randx.New(rng.Uint64())
	}
	return m
}

// Tick advances the whole population by one month. The order is fixed:
// funded statuses reset, the market grows, agents update in index order,
// the single aggregated market shock lands, and the month record is
// taken. Shock draws are averaged so the market takes at most one hit per
// month no matter how many agents were struck.
func (m *Model) Tick() {
	month := m.market.Month + 1

	for i := range m.agents {
		if m.agents[i].Status == StatusFundedThisMonth {
			m.agents[i].Status = StatusActive
		}
	}

	m.market.Grow(m.cfg.Market)

	denom := m.prevActive
	if denom < 1 {
		denom = 1
	}
	env := monthEnv{
		cfg:          m.cfg,
		month:        month,
		addressable:  m.market.Size / float64(denom),
		policyMonth:  month%m.cfg.Policy.PolicyInterval == 0,
		fundingMonth: month%m.cfg.Investor.FundingInterval == 0,
		subsidized:   month <= m.cfg.Policy.SubsidyMonths,
	}
	if n := len(m.agents); n > 0 {
		env.fundedShare = float64(m.prevFunded) / float64(n)
	}

	var shockSum float64
	var shockCount int
	for i := range m.agents {
		a := &m.agents[i]
		if a.Status.Terminal() {
			continue
		}
		if rep := advance(a, &env, m.streams[i]); rep.hit {
			shockSum += rep.magnitude
			shockCount++
		}
	}
	if shockCount > 0 {
		m.market.ApplyShock(shockSum / float64(shockCount))
	}

	m.market.Month = month
	rec := m.record()
	m.months = append(m.months, rec)

	m.prevActive = rec.Active
	m.prevFunded = 0
	for i := range m.agents {
		a := &m.agents[i]
		if a.Funded && !a.Status.Terminal() {
			m.prevFunded++
		}
	}
}

// Run executes the schedule to the time horizon, stopping early when the
// whole population is terminal or ctx is canceled. Cancellation is
// honored between months, never inside one. Invariant violations abort
// the run and surface in RunResult.Err with the partial record retained.
func (m *Model) Run(ctx context.Context) RunResult {
	var runErr error
	for m.market.Month < m.cfg.Simulation.TimeHorizon {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if m.countLiving() == 0 {
			break
		}
		m.Tick()
		if err := m.checkInvariants(); err != nil {
			runErr = err
			break
		}
	}
	return RunResult{
		Summary: m.summary(),
		Months:  m.months,
		Agents:  m.agentRecords(),
		Err:     runErr,
	}
}

func (m *Model) countLiving() int {
	living := 0
	for i := range m.agents {
		if !m.agents[i].Status.Terminal() {
			living++
		}
	}
	return living
}

// checkInvariants verifies the state bounds that every month must
// preserve. A violation means the parameterization drove the arithmetic
// out of range, and the run is reported failed rather than trusted.
func (m *Model) checkInvariants() error {
	if !(m.market.Size > 0) || math.IsInf(m.market.Size, 0) {
		return fmt.Errorf("month %d: market size %v out of range", m.market.Month, m.market.Size)
	}
	for i := range m.agents {
		a := &m.agents[i]
		if math.IsNaN(a.PMF) || a.PMF < 0 || a.PMF > 1 {
			return fmt.Errorf("month %d: agent %d pmf %v outside [0,1]", m.market.Month, a.ID, a.PMF)
		}
		if math.IsNaN(a.Capital) || math.IsInf(a.Capital, 0) {
			return fmt.Errorf("month %d: agent %d capital %v not finite", m.market.Month, a.ID, a.Capital)
		}
	}
	return nil
}

// record snapshots the population at the current month's end. Active
// counts every non-terminal agent, including those funded this month.
func (m *Model) record() MonthRecord {
	rec := MonthRecord{Month: m.market.Month, MarketSize: m.market.Size}
	var sumCapital, sumPMF, sumValuation float64
	for i := range m.agents {
		a := &m.agents[i]
		if a.Funded {
			rec.FundedTotal++
		}
		switch a.Status {
		case StatusFailed:
			rec.Failed++
			continue
		case StatusExitedSuccess:
			rec.Exited++
			continue
		case StatusFundedThisMonth:
			rec.FundedNow++
		}
		rec.Active++
		sumCapital += a.Capital
		sumPMF += a.PMF
		sumValuation += Valuation(a.Revenue, a.PMF, a.Capital, m.cfg.Valuation)
	}
	if rec.Active > 0 {
		rec.MeanCapital = sumCapital / float64(rec.Active)
		rec.MeanPMF = sumPMF / float64(rec.Active)
		rec.MeanValuation = sumValuation / float64(rec.Active)
	}
	return rec
}

func (m *Model) summary() RunSummary {
	s := RunSummary{
		Startups:        len(m.agents),
		MonthsSimulated: m.market.Month,
		FinalMarketSize: m.market.Size,
	}
	n := len(m.agents)
	if n == 0 {
		return s
	}
	capitals := make([]float64, 0, n)
	pmfs := make([]float64, 0, n)
	valuations := make([]float64, 0, n)
	survived := make([]float64, 0, n)
	var failed, exited, funded int
	for i := range m.agents {
		a := &m.agents[i]
		switch a.Status {
		case StatusFailed:
			failed++
		case StatusExitedSuccess:
			exited++
		}
		if a.Funded {
			funded++
			s.TotalFunding += a.FundingReceived
		}
		capitals = append(capitals, a.Capital)
		pmfs = append(pmfs, a.PMF)
		valuations = append(valuations, Valuation(a.Revenue, a.PMF, a.Capital, m.cfg.Valuation))
		survived = append(survived, float64(a.MonthsAlive))
	}
	s.FailureRate = float64(failed) / float64(n)
	s.SuccessRate = float64(exited) / float64(n)
	s.FundedRate = float64(funded) / float64(n)
	s.MeanFinalCapital = mean(capitals)
	s.MeanFinalPMF = mean(pmfs)
	s.MeanFinalValuation = mean(valuations)
	s.TopValuation = percentile(valuations, m.cfg.Valuation.SuccessPercentile)
	s.MeanMonthsSurvived = mean(survived)
	s.MedianMonthsSurvived = median(survived)
	return s
}

func (m *Model) agentRecords() []AgentRecord {
	recs := make([]AgentRecord, len(m.agents))
	for i := range m.agents {
		a := &m.agents[i]
		recs[i] = AgentRecord{
			ID:              a.ID,
			FinalStatus:     a.Status,
			MonthsSurvived:  a.MonthsAlive,
			Funded:          a.Funded,
			FundingReceived: a.FundingReceived,
			FinalCapital:    a.Capital,
			FinalPMF:        a.PMF,
			FinalRevenue:    a.Revenue,
			FinalValuation:  Valuation(a.Revenue, a.PMF, a.Capital, m.cfg.Valuation),
		}
	}
	return recs
}
