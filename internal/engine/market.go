package engine

import "github.com/nvandessel/venturesim/internal/config"

// shockFloor bounds a single month's aggregated market shock: one shock
// cannot erase more than 99% of the market, which keeps the size strictly
// positive under any configured shock range.
const shockFloor = 0.01

// Market is the shared environment all agents sell into.
type Market struct {
	// Size is the addressable market in units of demand (M).
	Size float64 `json:"size"`

	// Month is the last completed month, starting at 0.
	Month int `json:"month"`
}

// Grow applies the deterministic baseline growth for one month.
func (m *Market) Grow(cfg config.MarketConfig) {
	m.Size *= 1 + cfg.GrowthRate
}

// ApplyShock applies a single aggregated shock magnitude. Per-agent shock
// draws are averaged by the scheduler and applied here exactly once per
// month, never once per draw.
func (m *Market) ApplyShock(magnitude float64) {
	factor := 1 + magnitude
	if factor < shockFloor {
		factor = shockFloor
	}
	m.Size *= factor
}
