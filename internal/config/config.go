// Package config defines the simulation parameter set. A Config is loaded
// once, validated once, and treated as immutable for the lifetime of a
// batch; every component receives it by value or pointer rather than
// reading any global.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config contains every numeric knob of the simulation, grouped the way
// the model consumes them. Defaults are calibrated so that the baseline
// population produces failures, fundings, and exits within a 60-month
// horizon; they are documented choices, not measured constants.
type Config struct {
	// Initial controls how the starting population is sampled.
	Initial InitialConfig `json:"initial" yaml:"initial"`

	// Adoption controls the revenue model.
	Adoption AdoptionConfig `json:"adoption" yaml:"adoption"`

	// Burn controls burn-rate adjustment dynamics.
	Burn BurnConfig `json:"burn" yaml:"burn"`

	// PMF controls product-market-fit drift.
	PMF PMFConfig `json:"pmf" yaml:"pmf"`

	// Investor controls the funding decision function.
	Investor InvestorConfig `json:"investor" yaml:"investor"`

	// Market controls the shared market state.
	Market MarketConfig `json:"market" yaml:"market"`

	// Policy controls taxation, compliance cost and subsidies.
	Policy PolicyConfig `json:"policy" yaml:"policy"`

	// Shocks controls exogenous shock frequency and magnitudes.
	Shocks ShockConfig `json:"shocks" yaml:"shocks"`

	// Valuation controls the valuation formula and the exit test.
	Valuation ValuationConfig `json:"valuation" yaml:"valuation"`

	// Simulation controls population size, horizon and the Monte Carlo batch.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

// InitialConfig samples the starting population.
type InitialConfig struct {
	// K0Min is the minimum starting capital. Default: 2e6.
	K0Min float64 `json:"k0_min" yaml:"k0_min"`

	// K0Max is the maximum starting capital. Default: 2e7.
	K0Max float64 `json:"k0_max" yaml:"k0_max"`

	// B0MinRatio is the minimum initial burn-rate fraction of capital
	// consumed per month. Default: 0.15.
	B0MinRatio float64 `json:"b0_min_ratio" yaml:"b0_min_ratio"`

	// B0MaxRatio is the maximum initial burn-rate fraction. Default: 0.35.
	B0MaxRatio float64 `json:"b0_max_ratio" yaml:"b0_max_ratio"`

	// PMFAlpha is the alpha shape of the Beta prior for initial
	// product-market fit. Default: 2.
	PMFAlpha float64 `json:"pmf_alpha" yaml:"pmf_alpha"`

	// PMFBeta is the beta shape of the Beta prior. Default: 5.
	PMFBeta float64 `json:"pmf_beta" yaml:"pmf_beta"`
}

// AdoptionConfig parameterizes the revenue model.
type AdoptionConfig struct {
	// Gamma is the adoption curve steepness (gamma). Higher values make
	// adoption switch-like in product-market fit. Default: 60.
	Gamma float64 `json:"gamma" yaml:"gamma"`

	// EpsilonPrice is the per-currency-unit price sensitivity (epsilon).
	// The product epsilon*base_price acts as the adoption barrier and
	// discounts the effective price. Default: 0.0025.
	EpsilonPrice float64 `json:"epsilon_price" yaml:"epsilon_price"`

	// BasePrice is the product's list price per unit. Default: 100.
	BasePrice float64 `json:"base_price" yaml:"base_price"`

	// Quantity is the units purchased per adopter per month (q). Default: 10.
	Quantity float64 `json:"quantity" yaml:"quantity"`

	// SigmaR is the standard deviation of monthly revenue noise. Default: 1e4.
	SigmaR float64 `json:"sigma_r" yaml:"sigma_r"`

	// RampMonths is the time scale of the adoption maturity ramp; a
	// product reaches half of its long-run adoption after this many
	// months. Default: 12.
	RampMonths float64 `json:"adoption_ramp" yaml:"adoption_ramp"`
}

// BurnConfig controls burn-rate adjustments.
type BurnConfig struct {
	// DeltaGrowth is the burn-rate increase applied after a funding round
	// (delta_g). Default: 0.2.
	DeltaGrowth float64 `json:"delta_growth" yaml:"delta_growth"`

	// DeltaCut is the burn-rate cut applied on low runway (delta_c).
	// Default: 0.15.
	DeltaCut float64 `json:"delta_cut" yaml:"delta_cut"`

	// RunwayLowThreshold is the runway in months below which the agent
	// cuts burn. Default: 3.
	RunwayLowThreshold float64 `json:"runway_low_threshold" yaml:"runway_low_threshold"`
}

// PMFConfig controls product-market-fit drift.
type PMFConfig struct {
	// Eta is the learning rate coupling revenue to PMF improvement (eta).
	// Default: 5e-4.
	Eta float64 `json:"eta" yaml:"eta"`

	// SigmaPMF is the standard deviation of monthly PMF noise. Default: 0.02.
	SigmaPMF float64 `json:"sigma_pmf" yaml:"sigma_pmf"`
}

// InvestorConfig controls the funding decision.
type InvestorConfig struct {
	// AlphaRevenueBurn is the minimum revenue/burn ratio for funding
	// eligibility (alpha). Default: 0.3.
	AlphaRevenueBurn float64 `json:"alpha_revenue_burn" yaml:"alpha_revenue_burn"`

	// PMFMin is the minimum PMF for funding eligibility. Default: 0.3.
	PMFMin float64 `json:"pmf_min" yaml:"pmf_min"`

	// BetaPMF is the PMF coefficient in the acceptance score (beta_1).
	// Default: 5.
	BetaPMF float64 `json:"beta_pmf" yaml:"beta_pmf"`

	// BetaRevenue is the log-revenue coefficient (beta_2). Default: 0.5.
	BetaRevenue float64 `json:"beta_revenue" yaml:"beta_revenue"`

	// BetaCompetition is the penalty coefficient on the funded-peer share
	// (beta_3). Default: 2.
	BetaCompetition float64 `json:"beta_competition" yaml:"beta_competition"`

	// Kappa is the funding multiplier; an accepted round injects
	// kappa*capital. Default: 0.25.
	Kappa float64 `json:"kappa" yaml:"kappa"`

	// FundingInterval is the number of months between funding
	// evaluations for an unfunded agent. 1 evaluates every month.
	// Default: 1.
	FundingInterval int `json:"funding_interval" yaml:"funding_interval"`
}

// MarketConfig controls the shared market state.
type MarketConfig struct {
	// M0Initial is the initial market size in addressable customer units.
	// Default: 2e6.
	M0Initial float64 `json:"m0_initial" yaml:"m0_initial"`

	// GrowthRate is the monthly market growth rate (g). Default: 0.05.
	GrowthRate float64 `json:"growth_rate" yaml:"growth_rate"`
}

// PolicyConfig controls taxation, compliance and subsidies.
type PolicyConfig struct {
	// CReg is the monthly regulatory compliance cost. Default: 5e4.
	CReg float64 `json:"c_reg" yaml:"c_reg"`

	// SG is the monthly government subsidy paid while the agent is inside
	// the subsidy window. Default: 3e4.
	SG float64 `json:"s_g" yaml:"s_g"`

	// SubsidyMonths is the length of the subsidy eligibility window in
	// months from company start. Default: 12.
	SubsidyMonths int `json:"subsidy_months" yaml:"subsidy_months"`

	// Tau is the tax rate applied to positive monthly profit (tau).
	// Default: 0.18.
	Tau float64 `json:"tau" yaml:"tau"`

	// PolicyInterval is the number of months between policy applications
	// (compliance, subsidy, tax). 1 applies them every month. Default: 1.
	PolicyInterval int `json:"policy_interval" yaml:"policy_interval"`
}

// ShockConfig controls exogenous shocks.
type ShockConfig struct {
	// PShock is the per-agent monthly probability of an exogenous shock.
	// Default: 0.05.
	PShock float64 `json:"p_shock" yaml:"p_shock"`

	// PMFShockMin is the lower bound of the PMF shock magnitude. Default: -0.10.
	PMFShockMin float64 `json:"pmf_shock_min" yaml:"pmf_shock_min"`

	// PMFShockMax is the upper bound of the PMF shock magnitude. Default: 0.15.
	PMFShockMax float64 `json:"pmf_shock_max" yaml:"pmf_shock_max"`

	// MarketShockMin is the lower bound of the market shock magnitude.
	// Default: -0.05.
	MarketShockMin float64 `json:"market_shock_min" yaml:"market_shock_min"`

	// MarketShockMax is the upper bound of the market shock magnitude.
	// Default: 0.10.
	MarketShockMax float64 `json:"market_shock_max" yaml:"market_shock_max"`
}

// ValuationConfig controls the valuation formula and exit classification.
type ValuationConfig struct {
	// LambdaRevenue weights revenue in the valuation (lambda_1). Default: 10.
	LambdaRevenue float64 `json:"lambda_revenue" yaml:"lambda_revenue"`

	// LambdaPMF weights PMF in the valuation (lambda_2). Default: 1e7.
	LambdaPMF float64 `json:"lambda_pmf" yaml:"lambda_pmf"`

	// LambdaCapital weights capital in the valuation (lambda_3). Default: 2.
	LambdaCapital float64 `json:"lambda_capital" yaml:"lambda_capital"`

	// VExit is the valuation threshold for a successful exit. Default: 1e8.
	VExit float64 `json:"v_exit" yaml:"v_exit"`

	// SuccessPercentile is the quantile of final valuations reported in
	// each run summary. Default: 0.90.
	SuccessPercentile float64 `json:"success_percentile" yaml:"success_percentile"`
}

// SimulationConfig controls the population and Monte Carlo batch.
type SimulationConfig struct {
	// NumStartups is the number of agents per run. Default: 1000.
	NumStartups int `json:"num_startups" yaml:"num_startups"`

	// TimeHorizon is the run length in months. Default: 60.
	TimeHorizon int `json:"time_horizon" yaml:"time_horizon"`

	// NumRuns is the number of independent Monte Carlo runs. Default: 30.
	NumRuns int `json:"num_runs" yaml:"num_runs"`

	// Seed is the base seed; run i draws from a stream derived from
	// (seed, i). Default: 42.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Workers bounds parallel run execution; 0 uses all CPUs. Default: 0.
	Workers int `json:"workers" yaml:"workers"`
}

// Default returns the calibrated baseline configuration.
func Default() *Config {
	return &Config{
		Initial: InitialConfig{
			K0Min:      2e6,
			K0Max:      2e7,
			B0MinRatio: 0.15,
			B0MaxRatio: 0.35,
			PMFAlpha:   2,
			PMFBeta:    5,
		},
		Adoption: AdoptionConfig{
			Gamma:        60,
			EpsilonPrice: 0.0025,
			BasePrice:    100,
			Quantity:     10,
			SigmaR:       1e4,
			RampMonths:   12,
		},
		Burn: BurnConfig{
			DeltaGrowth:        0.2,
			DeltaCut:           0.15,
			RunwayLowThreshold: 3,
		},
		PMF: PMFConfig{
			Eta:      5e-4,
			SigmaPMF: 0.02,
		},
		Investor: InvestorConfig{
			AlphaRevenueBurn: 0.3,
			PMFMin:           0.3,
			BetaPMF:          5,
			BetaRevenue:      0.5,
			BetaCompetition:  2,
			Kappa:            0.25,
			FundingInterval:  1,
		},
		Market: MarketConfig{
			M0Initial:  2e6,
			GrowthRate: 0.05,
		},
		Policy: PolicyConfig{
			CReg:           5e4,
			SG:             3e4,
			SubsidyMonths:  12,
			Tau:            0.18,
			PolicyInterval: 1,
		},
		Shocks: ShockConfig{
			PShock:         0.05,
			PMFShockMin:    -0.10,
			PMFShockMax:    0.15,
			MarketShockMin: -0.05,
			MarketShockMax: 0.10,
		},
		Valuation: ValuationConfig{
			LambdaRevenue:     10,
			LambdaPMF:         1e7,
			LambdaCapital:     2,
			VExit:             1e8,
			SuccessPercentile: 0.90,
		},
		Simulation: SimulationConfig{
			NumStartups: 1000,
			TimeHorizon: 60,
			NumRuns:     30,
			Seed:        42,
			Workers:     0,
		},
	}
}

// LoadFromFile loads a configuration from a YAML file. Missing fields keep
// their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// WriteFile writes the configuration as YAML.
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks every documented bound and reports all violations at
// once, naming the offending fields. No run may start on a config that
// fails validation.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Initial.K0Min <= 0 {
		bad("initial.k0_min must be positive, got %v", c.Initial.K0Min)
	}
	if c.Initial.K0Max < c.Initial.K0Min {
		bad("initial.k0_max must be >= initial.k0_min, got %v < %v", c.Initial.K0Max, c.Initial.K0Min)
	}
	if c.Initial.B0MinRatio < 0 || c.Initial.B0MinRatio > 1 {
		bad("initial.b0_min_ratio must be in [0,1], got %v", c.Initial.B0MinRatio)
	}
	if c.Initial.B0MaxRatio < c.Initial.B0MinRatio || c.Initial.B0MaxRatio > 1 {
		bad("initial.b0_max_ratio must be in [b0_min_ratio,1], got %v", c.Initial.B0MaxRatio)
	}
	if c.Initial.PMFAlpha <= 0 {
		bad("initial.pmf_alpha must be positive, got %v", c.Initial.PMFAlpha)
	}
	if c.Initial.PMFBeta <= 0 {
		bad("initial.pmf_beta must be positive, got %v", c.Initial.PMFBeta)
	}

	if c.Adoption.Gamma <= 0 {
		bad("adoption.gamma must be positive, got %v", c.Adoption.Gamma)
	}
	if c.Adoption.EpsilonPrice < 0 {
		bad("adoption.epsilon_price must be non-negative, got %v", c.Adoption.EpsilonPrice)
	}
	if c.Adoption.BasePrice <= 0 {
		bad("adoption.base_price must be positive, got %v", c.Adoption.BasePrice)
	}
	if c.Adoption.Quantity <= 0 {
		bad("adoption.quantity must be positive, got %v", c.Adoption.Quantity)
	}
	if c.Adoption.SigmaR < 0 {
		bad("adoption.sigma_r must be non-negative, got %v", c.Adoption.SigmaR)
	}
	if c.Adoption.RampMonths <= 0 {
		bad("adoption.adoption_ramp must be positive, got %v", c.Adoption.RampMonths)
	}

	if c.Burn.DeltaGrowth < 0 {
		bad("burn.delta_growth must be non-negative, got %v", c.Burn.DeltaGrowth)
	}
	if c.Burn.DeltaCut < 0 || c.Burn.DeltaCut >= 1 {
		bad("burn.delta_cut must be in [0,1), got %v", c.Burn.DeltaCut)
	}
	if c.Burn.RunwayLowThreshold < 0 {
		bad("burn.runway_low_threshold must be non-negative, got %v", c.Burn.RunwayLowThreshold)
	}

	if c.PMF.Eta < 0 {
		bad("pmf.eta must be non-negative, got %v", c.PMF.Eta)
	}
	if c.PMF.SigmaPMF < 0 {
		bad("pmf.sigma_pmf must be non-negative, got %v", c.PMF.SigmaPMF)
	}

	if c.Investor.AlphaRevenueBurn < 0 {
		bad("investor.alpha_revenue_burn must be non-negative, got %v", c.Investor.AlphaRevenueBurn)
	}
	if c.Investor.PMFMin < 0 || c.Investor.PMFMin > 1 {
		bad("investor.pmf_min must be in [0,1], got %v", c.Investor.PMFMin)
	}
	if c.Investor.BetaPMF < 0 {
		bad("investor.beta_pmf must be non-negative, got %v", c.Investor.BetaPMF)
	}
	if c.Investor.BetaRevenue < 0 {
		bad("investor.beta_revenue must be non-negative, got %v", c.Investor.BetaRevenue)
	}
	if c.Investor.BetaCompetition < 0 {
		bad("investor.beta_competition must be non-negative, got %v", c.Investor.BetaCompetition)
	}
	if c.Investor.Kappa < 0 {
		bad("investor.kappa must be non-negative, got %v", c.Investor.Kappa)
	}
	if c.Investor.FundingInterval < 1 {
		bad("investor.funding_interval must be at least 1, got %v", c.Investor.FundingInterval)
	}

	if c.Market.M0Initial <= 0 {
		bad("market.m0_initial must be positive, got %v", c.Market.M0Initial)
	}
	if c.Market.GrowthRate < -1 {
		bad("market.growth_rate must be >= -1, got %v", c.Market.GrowthRate)
	}

	if c.Policy.CReg < 0 {
		bad("policy.c_reg must be non-negative, got %v", c.Policy.CReg)
	}
	if c.Policy.SG < 0 {
		bad("policy.s_g must be non-negative, got %v", c.Policy.SG)
	}
	if c.Policy.SubsidyMonths < 0 {
		bad("policy.subsidy_months must be non-negative, got %v", c.Policy.SubsidyMonths)
	}
	if c.Policy.Tau < 0 || c.Policy.Tau > 1 {
		bad("policy.tau must be in [0,1], got %v", c.Policy.Tau)
	}
	if c.Policy.PolicyInterval < 1 {
		bad("policy.policy_interval must be at least 1, got %v", c.Policy.PolicyInterval)
	}

	if c.Shocks.PShock < 0 || c.Shocks.PShock > 1 {
		bad("shocks.p_shock must be in [0,1], got %v", c.Shocks.PShock)
	}
	if c.Shocks.PMFShockMax < c.Shocks.PMFShockMin {
		bad("shocks.pmf_shock_max must be >= shocks.pmf_shock_min, got %v < %v",
			c.Shocks.PMFShockMax, c.Shocks.PMFShockMin)
	}
	if c.Shocks.MarketShockMin < -1 {
		bad("shocks.market_shock_min must be >= -1, got %v", c.Shocks.MarketShockMin)
	}
	if c.Shocks.MarketShockMax < c.Shocks.MarketShockMin {
		bad("shocks.market_shock_max must be >= shocks.market_shock_min, got %v < %v",
			c.Shocks.MarketShockMax, c.Shocks.MarketShockMin)
	}

	if c.Valuation.LambdaRevenue < 0 {
		bad("valuation.lambda_revenue must be non-negative, got %v", c.Valuation.LambdaRevenue)
	}
	if c.Valuation.LambdaPMF < 0 {
		bad("valuation.lambda_pmf must be non-negative, got %v", c.Valuation.LambdaPMF)
	}
	if c.Valuation.LambdaCapital < 0 {
		bad("valuation.lambda_capital must be non-negative, got %v", c.Valuation.LambdaCapital)
	}
	if c.Valuation.VExit <= 0 {
		bad("valuation.v_exit must be positive, got %v", c.Valuation.VExit)
	}
	if c.Valuation.SuccessPercentile < 0 || c.Valuation.SuccessPercentile > 1 {
		bad("valuation.success_percentile must be in [0,1], got %v", c.Valuation.SuccessPercentile)
	}

	if c.Simulation.NumStartups < 0 {
		bad("simulation.num_startups must be non-negative, got %v", c.Simulation.NumStartups)
	}
	if c.Simulation.TimeHorizon < 0 {
		bad("simulation.time_horizon must be non-negative, got %v", c.Simulation.TimeHorizon)
	}
	if c.Simulation.NumRuns < 1 {
		bad("simulation.num_runs must be at least 1, got %v", c.Simulation.NumRuns)
	}
	if c.Simulation.Workers < 0 {
		bad("simulation.workers must be non-negative, got %v", c.Simulation.Workers)
	}

	for name, v := range c.floatParams() {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			bad("%s must be finite, got %v", name, *v)
		}
	}

	return errors.Join(errs...)
}

// floatParams maps flat parameter names to their float fields.
func (c *Config) floatParams() map[string]*float64 {
	return map[string]*float64{
		"initial.k0_min":               &c.Initial.K0Min,
		"initial.k0_max":               &c.Initial.K0Max,
		"initial.b0_min_ratio":         &c.Initial.B0MinRatio,
		"initial.b0_max_ratio":         &c.Initial.B0MaxRatio,
		"initial.pmf_alpha":            &c.Initial.PMFAlpha,
		"initial.pmf_beta":             &c.Initial.PMFBeta,
		"adoption.gamma":               &c.Adoption.Gamma,
		"adoption.epsilon_price":       &c.Adoption.EpsilonPrice,
		"adoption.base_price":          &c.Adoption.BasePrice,
		"adoption.quantity":            &c.Adoption.Quantity,
		"adoption.sigma_r":             &c.Adoption.SigmaR,
		"adoption.adoption_ramp":       &c.Adoption.RampMonths,
		"burn.delta_growth":            &c.Burn.DeltaGrowth,
		"burn.delta_cut":               &c.Burn.DeltaCut,
		"burn.runway_low_threshold":    &c.Burn.RunwayLowThreshold,
		"pmf.eta":                      &c.PMF.Eta,
		"pmf.sigma_pmf":                &c.PMF.SigmaPMF,
		"investor.alpha_revenue_burn":  &c.Investor.AlphaRevenueBurn,
		"investor.pmf_min":             &c.Investor.PMFMin,
		"investor.beta_pmf":            &c.Investor.BetaPMF,
		"investor.beta_revenue":        &c.Investor.BetaRevenue,
		"investor.beta_competition":    &c.Investor.BetaCompetition,
		"investor.kappa":               &c.Investor.Kappa,
		"market.m0_initial":            &c.Market.M0Initial,
		"market.growth_rate":           &c.Market.GrowthRate,
		"policy.c_reg":                 &c.Policy.CReg,
		"policy.s_g":                   &c.Policy.SG,
		"policy.tau":                   &c.Policy.Tau,
		"shocks.p_shock":               &c.Shocks.PShock,
		"shocks.pmf_shock_min":         &c.Shocks.PMFShockMin,
		"shocks.pmf_shock_max":         &c.Shocks.PMFShockMax,
		"shocks.market_shock_min":      &c.Shocks.MarketShockMin,
		"shocks.market_shock_max":      &c.Shocks.MarketShockMax,
		"valuation.lambda_revenue":     &c.Valuation.LambdaRevenue,
		"valuation.lambda_pmf":         &c.Valuation.LambdaPMF,
		"valuation.lambda_capital":     &c.Valuation.LambdaCapital,
		"valuation.v_exit":             &c.Valuation.VExit,
		"valuation.success_percentile": &c.Valuation.SuccessPercentile,
	}
}

// intParams maps flat parameter names to their integer fields.
func (c *Config) intParams() map[string]*int {
	return map[string]*int{
		"investor.funding_interval": &c.Investor.FundingInterval,
		"policy.subsidy_months":     &c.Policy.SubsidyMonths,
		"policy.policy_interval":    &c.Policy.PolicyInterval,
		"simulation.num_startups":   &c.Simulation.NumStartups,
		"simulation.time_horizon":   &c.Simulation.TimeHorizon,
		"simulation.num_runs":       &c.Simulation.NumRuns,
		"simulation.workers":        &c.Simulation.Workers,
	}
}

// Flat returns the flat parameter-name to value mapping external
// collaborators consume. The seed is excluded; it selects randomness
// rather than parameterizing the model.
func (c *Config) Flat() map[string]float64 {
	out := make(map[string]float64)
	for name, v := range c.floatParams() {
		out[name] = *v
	}
	for name, v := range c.intParams() {
		out[name] = float64(*v)
	}
	return out
}

// ParamNames returns every settable flat parameter name, sorted.
func (c *Config) ParamNames() []string {
	names := make([]string, 0)
	for name := range c.floatParams() {
		names = append(names, name)
	}
	for name := range c.intParams() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set assigns a parameter by flat name. Integer parameters are rounded.
// Used by sweeps and the compare command; the result still has to pass
// Validate before running.
func (c *Config) Set(name string, value float64) error {
	if f, ok := c.floatParams()[name]; ok {
		*f = value
		return nil
	}
	if i, ok := c.intParams()[name]; ok {
		*i = int(math.Round(value))
		return nil
	}
	return fmt.Errorf("unknown parameter %q", name)
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	dup := *c
	return &dup
}
