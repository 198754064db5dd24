// Package game implements the live progression core: the stat registry, the
// single-writer state container, the derived-metrics calculator, the tick
// loop, and milestone detection.
package game

import "math"

// StatID names one stat in the canonical registry. The set is closed: effects
// referencing names outside the registry (and outside the explicit system
// routing table in effects.go) are silently ignored, so newer data documents
// load against older code.
type StatID string

const (
	StatLocPerClick        StatID = "loc_per_click"
	StatIdleLocPerSec      StatID = "idle_loc_per_sec"
	StatShipFraction       StatID = "ship_fraction"
	StatRevenuePerLoc      StatID = "revenue_per_loc"
	StatGlobalMultiplier   StatID = "global_multiplier"
	StatFeaturesMultiplier StatID = "features_multiplier"
	StatRevenueMultiplier  StatID = "revenue_multiplier"
	StatPricePremium       StatID = "price_premium"
	StatMarketExpansion    StatID = "market_expansion"
	StatFocusMultiplier    StatID = "focus_multiplier"
	StatPassiveRevPerSec   StatID = "passive_rev_per_sec"
	StatBugRate            StatID = "bug_rate"
	StatCodeQuality        StatID = "code_quality"
	StatTestCoverage       StatID = "test_coverage"
	StatCompileSpeed       StatID = "compile_speed"
	StatRefactorBonus      StatID = "refactor_bonus"
	StatTechDebtGrowth     StatID = "tech_debt_growth"
	StatQAAgents           StatID = "qa_agents"
	StatDevOpsAgents       StatID = "devops_agents"
)

// statDefaults is the registry: every known stat with its documented default.
// Additive stats default to 0, multiplicative stats to 1. bug_rate is a
// defect rate (lower is better) and starts at the worst value.
var statDefaults = map[StatID]float64{
	StatLocPerClick:        1,
	StatIdleLocPerSec:      0.1,
	StatShipFraction:       0.2,
	StatRevenuePerLoc:      0.05,
	StatGlobalMultiplier:   1,
	StatFeaturesMultiplier: 1,
	StatRevenueMultiplier:  1,
	StatPricePremium:       1,
	StatMarketExpansion:    1,
	StatFocusMultiplier:    1,
	StatPassiveRevPerSec:   0,
	StatBugRate:            1,
	StatCodeQuality:        1,
	StatTestCoverage:       1,
	StatCompileSpeed:       1,
	StatRefactorBonus:      0,
	StatTechDebtGrowth:     1,
	StatQAAgents:           0,
	StatDevOpsAgents:       0,
}

// StatBlock maps registered stats to their current values.
type StatBlock map[StatID]float64

// DefaultStats returns a fully populated stat block at registry defaults.
func DefaultStats() StatBlock {
	b := make(StatBlock, len(statDefaults))
	for id, v := range statDefaults {
		b[id] = v
	}
	return b
}

// KnownStat reports whether id is in the registry.
func KnownStat(id StatID) bool {
	_, ok := statDefaults[id]
	return ok
}

// StatDefault returns the registry default for id (0 for unknown stats).
func StatDefault(id StatID) float64 {
	return statDefaults[id]
}

// Get returns the current value, falling back to the registry default when
// the entry is absent (old saves predating a stat).
func (b StatBlock) Get(id StatID) float64 {
	if v, ok := b[id]; ok {
		return v
	}
	return statDefaults[id]
}

// Sanitize resets any NaN/Inf entry to its registry default and fills in
// missing registered stats, so numeric drift never propagates through
// subsequent multiplications.
func (b StatBlock) Sanitize() {
	for id, def := range statDefaults {
		v, ok := b[id]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			b[id] = def
		}
	}
}

// Clone copies the stat block.
func (b StatBlock) Clone() StatBlock {
	c := make(StatBlock, len(b))
	for id, v := range b {
		c[id] = v
	}
	return c
}
