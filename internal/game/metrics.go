package game

import "math"

// Game-balance constants. Not derived and not adjustable by tech effects.
const (
	// BaseAgentLocPerSec is each agent's unmodified output.
	BaseAgentLocPerSec = 0.5
	// DebtCeiling is the tech-debt level that fully zeroes shipping.
	DebtCeiling = 1000.0
	// DebtAccrualPerSec is the base tech-debt growth rate before the
	// tech_debt_growth multiplier.
	DebtAccrualPerSec = 0.1
	// RefactorConversionRatio is the LoC yielded per point of debt converted.
	RefactorConversionRatio = 0.5
	// DebtPaydownRatio is the LoC spent per point of debt paid down.
	DebtPaydownRatio = 2.0
	// uiRateAlpha is the EMA smoothing factor for display rates.
	uiRateAlpha = 0.2
)

// Metrics is the derived-rates record consumed by the tick loop, offline
// catch-up, and the UI surface. It is re-derivable at any time without side
// effects.
type Metrics struct {
	DebtPenalty           float64
	EffectiveShipFraction float64
	SynergyBonus          float64
	IdleLocPerSec         float64
	AgentLocPerSec        float64
	TotalLocPerSec        float64
	RevPerLoc             float64
	LocPerClick           float64
	PassiveRevPerSec      float64
}

// SynergyBonus is the tiered team-size multiplier on agent output.
func SynergyBonus(activeAgents int) float64 {
	switch {
	case activeAgents >= 60:
		return 2.0
	case activeAgents >= 30:
		return 1.7
	case activeAgents >= 15:
		return 1.4
	case activeAgents >= 5:
		return 1.2
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Compute derives the current metrics from stats, systems, and resources.
func Compute(st *State) Metrics {
	var m Metrics
	stats := st.Stats
	global := stats.Get(StatGlobalMultiplier)

	m.DebtPenalty = math.Max(0, 1-st.Resources.TechDebt/DebtCeiling)
	m.EffectiveShipFraction = clamp01(stats.Get(StatShipFraction) * m.DebtPenalty * stats.Get(StatTestCoverage))

	agents := st.Agents.ActiveAgents
	m.SynergyBonus = SynergyBonus(agents)
	m.AgentLocPerSec = float64(agents) * BaseAgentLocPerSec * st.Agents.AgentProductivity * global * m.SynergyBonus

	m.IdleLocPerSec = stats.Get(StatIdleLocPerSec) * stats.Get(StatFocusMultiplier)
	m.TotalLocPerSec = m.IdleLocPerSec*global + m.AgentLocPerSec

	// bug_rate is a defect rate: 1.0 (worst) yields a 1.0x term, 0.0 yields 2.0x.
	m.RevPerLoc = stats.Get(StatRevenuePerLoc) *
		stats.Get(StatCodeQuality) *
		(2 - stats.Get(StatBugRate)) *
		stats.Get(StatRevenueMultiplier) *
		stats.Get(StatFeaturesMultiplier) *
		stats.Get(StatPricePremium) *
		stats.Get(StatMarketExpansion) *
		global

	m.LocPerClick = stats.Get(StatLocPerClick) * global * stats.Get(StatCompileSpeed) *
		(1 + stats.Get(StatRefactorBonus)*0.1)

	m.PassiveRevPerSec = stats.Get(StatPassiveRevPerSec)
	return m
}
