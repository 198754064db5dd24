package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"programaxis/internal/tech"
)

func TestCatchUpCreditsProduction(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()

	report := s.CatchUp(time.Hour, 8, now)
	assert.InDelta(t, 3600.0, report.Seconds, 1e-9)
	assert.InDelta(t, 360.0, report.Loc, 1e-9, "idle 0.1/s over an hour")

	st := s.CloneState()
	assert.InDelta(t, 360.0, st.Resources.Loc, 1e-9)
	assert.InDelta(t, 360.0, st.Shipping.BufferedLoc, 1e-9, "no auto-ship, buffer keeps everything")
	assert.InDelta(t, 360.0, st.Resources.TechDebt, 1e-9)
	assert.Equal(t, 0.0, st.Resources.Revenue)
}

func TestCatchUpCapsElapsedTime(t *testing.T) {
	s := newTestSession(t)
	report := s.CatchUp(48*time.Hour, 8, time.Now())
	assert.InDelta(t, 8*3600.0, report.Seconds, 1e-9)
}

func TestCatchUpZeroElapsed(t *testing.T) {
	s := newTestSession(t)
	report := s.CatchUp(0, 8, time.Now())
	assert.Equal(t, OfflineReport{}, report)
}

func TestCatchUpAutoShipsOnce(t *testing.T) {
	s := newTestSession(t)
	s.SetAutoShip(true)
	now := time.Now()

	report := s.CatchUp(time.Hour, 8, now)
	assert.Greater(t, report.Revenue, 0.0)

	st := s.CloneState()
	// One lump ship over the full offline buffer at the post-accrual debt
	// penalty: 360 debt => penalty 0.64, shipped = 360 * 0.2*0.64.
	wantShipped := 360.0 * 0.2 * (1 - 360.0/DebtCeiling)
	assert.InDelta(t, 360.0-wantShipped, st.Shipping.BufferedLoc, 1e-6)
	assert.InDelta(t, wantShipped*0.05, st.Resources.Revenue, 1e-6)
	assert.Equal(t, now, st.Shipping.LastAutoShipAt)
}

func TestCatchUpDetectsMilestonesAtEnd(t *testing.T) {
	milestones := []Milestone{
		{ID: "m1", Threshold: 1, Title: "First",
			Effects: []tech.Effect{{Stat: "passive_rev_per_sec", Type: tech.EffectAdd, Value: 1}}},
	}
	s := NewSession("test", effectsTestGraph(t), milestones)
	s.SetAutoShip(true)

	report := s.CatchUp(time.Hour, 8, time.Now())
	assert.Equal(t, 1, report.Milestones)

	st := s.CloneState()
	assert.Len(t, st.Reached, 1)
	// The milestone's passive income applies from now on, not retroactively
	// to the offline interval.
	assert.Equal(t, 1.0, st.Stats.Get(StatPassiveRevPerSec))
	assert.Less(t, st.Resources.Revenue, 10.0)
}

// TestCatchUpMatchesTicking verifies the closed-form batch equals tick-by-tick
// simulation for the linear case (no auto-ship, no refactor conversion). Those
// two features intentionally batch differently offline.
func TestCatchUpMatchesTicking(t *testing.T) {
	g := effectsTestGraph(t)

	batch := NewSession("batch", g, nil)
	ticked := NewSession("ticked", g, nil)
	for _, s := range []*Session{batch, ticked} {
		s.mu.Lock()
		s.st.Caps.AgentConcurrencyCap = 2
		s.st.Stats[StatPassiveRevPerSec] = 0.5
		s.mu.Unlock()
	}

	now := time.Now()
	batch.CatchUp(60*time.Second, 8, now.Add(60*time.Second))

	ticked.Tick(now)
	for i := 1; i <= 240; i++ {
		ticked.Tick(now.Add(time.Duration(i) * 250 * time.Millisecond))
	}

	bst := batch.CloneState()
	tst := ticked.CloneState()
	assert.InDelta(t, tst.Resources.Loc, bst.Resources.Loc, 1e-6)
	assert.InDelta(t, tst.Resources.TechDebt, bst.Resources.TechDebt, 1e-6)
	assert.InDelta(t, tst.Resources.Revenue, bst.Resources.Revenue, 1e-6)
	assert.InDelta(t, tst.Shipping.BufferedLoc, bst.Shipping.BufferedLoc, 1e-6)
}
