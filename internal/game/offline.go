package game

import (
	"math"
	"time"
)

// DefaultOfflineCapHours caps how much absent time is credited on load.
const DefaultOfflineCapHours = 8.0

// OfflineReport summarizes one catch-up batch for logging and the UI.
type OfflineReport struct {
	Seconds    float64
	Loc        float64
	Revenue    float64
	Milestones int
}

// CatchUp replays elapsed wall-clock time as a single closed-form batch: the
// production, debt, and passive-revenue steps of a tick computed as
// rate x elapsed, then, if auto-shipping was active, exactly one lump
// shipping pass over the offline-accumulated buffer. It never iterates
// tick-by-tick, so long absences are constant work; milestone crossings
// mid-interval are detected only at the end, in one ascending-order scan.
func (s *Session) CatchUp(elapsed time.Duration, capHours float64, now time.Time) OfflineReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if capHours <= 0 {
		capHours = DefaultOfflineCapHours
	}
	dt := math.Min(elapsed.Seconds(), capHours*3600)
	if dt <= 0 {
		return OfflineReport{}
	}

	st := s.st
	st.Agents.ActiveAgents = int(st.Caps.AgentConcurrencyCap)
	m := Compute(st)

	locDelta := m.TotalLocPerSec * dt
	st.addLoc(locDelta)

	st.Resources.TechDebt += st.Stats.Get(StatTechDebtGrowth) * dt * DebtAccrualPerSec
	if rb := st.Stats.Get(StatRefactorBonus); rb > 0 && st.Resources.TechDebt > 0 {
		conv := math.Min(st.Resources.TechDebt, rb*dt)
		st.Resources.TechDebt -= conv
		st.Resources.Loc += conv * RefactorConversionRatio
	}

	var revDelta float64
	if passive := m.PassiveRevPerSec * dt; passive > 0 {
		st.addRevenue(passive)
		revDelta += passive
	}

	if st.Shipping.Auto || st.Shipping.AutomationLevel > 0 {
		gain := s.ship(now)
		st.Shipping.LastAutoShipAt = now
		revDelta += gain
	}

	applied := s.checkMilestones(now)
	s.markDirty()

	return OfflineReport{Seconds: dt, Loc: locDelta, Revenue: revDelta, Milestones: applied}
}
