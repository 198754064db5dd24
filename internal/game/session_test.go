package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programaxis/internal/tech"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession("test", effectsTestGraph(t), nil)
}

func TestClickThenShip(t *testing.T) {
	s := newTestSession(t)

	s.Click()
	st := s.CloneState()
	assert.Equal(t, 1.0, st.Resources.Loc)
	assert.Equal(t, 1.0, st.Shipping.BufferedLoc)

	// Fresh game: effective ship fraction 0.2, revenue per LoC 0.05.
	gain := s.ShipNow()
	assert.InDelta(t, 0.01, gain, 1e-9)

	st = s.CloneState()
	assert.InDelta(t, 0.8, st.Shipping.BufferedLoc, 1e-9, "unshipped remainder stays buffered")
	assert.InDelta(t, 0.01, st.Resources.Revenue, 1e-9)
	assert.InDelta(t, 0.01, st.Resources.LifetimeRevenue, 1e-9)
	assert.Equal(t, 1.0, st.Resources.Loc, "total LoC is not consumed by shipping")
}

func TestShipNowEmptyBuffer(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, 0.0, s.ShipNow())
}

func TestBuyNodeDebitsAndAppliesEffects(t *testing.T) {
	g, err := tech.Build(tech.TreeDoc{
		Version: 1,
		Curves:  map[string]tech.CurveDef{"standard": {Kind: tech.CurveExponential, K: 1.5}},
		Branches: []tech.BranchDoc{{Key: "A", Name: "A", Nodes: []tech.NodeDoc{
			{ID: "A0", Tier: 0, BaseCost: 0,
				Effects: []tech.Effect{{Stat: "loc_per_click", Type: tech.EffectAdd, Value: 1}}},
			{ID: "A1", Tier: 1, BaseCost: 100, CostCurve: "standard",
				Effects: []tech.Effect{{Stat: "loc_per_click", Type: tech.EffectMul, Value: 2}}},
		}}},
	})
	require.NoError(t, err)

	s := NewSession("test", g, nil)
	require.True(t, s.BuyNode("A0"), "tier-0 nodes are free")

	st := s.CloneState()
	assert.Equal(t, 2.0, st.Stats.Get(StatLocPerClick))
	assert.True(t, st.Tech.IsUnlocked("A1"))

	// A1 costs 150; not affordable yet.
	assert.False(t, s.CanBuy("A1"))
	assert.False(t, s.BuyNode("A1"), "invalid purchase is a silent no-op")

	s.mu.Lock()
	s.st.Resources.Revenue = 200
	s.mu.Unlock()

	require.True(t, s.BuyNode("A1"))
	st = s.CloneState()
	assert.InDelta(t, 50.0, st.Resources.Revenue, 1e-9, "cost debited from spendable revenue")
	assert.Equal(t, 4.0, st.Stats.Get(StatLocPerClick), "effects applied after purchase")
	assert.Equal(t, 0.0, st.Resources.LifetimeRevenue, "spending never touches lifetime revenue")
}

func TestPayDownTechDebt(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.st.Resources.Loc = 100
	s.st.Resources.TechDebt = 30
	s.mu.Unlock()

	paid := s.PayDownTechDebt(20)
	assert.Equal(t, 20.0, paid)
	st := s.CloneState()
	assert.Equal(t, 60.0, st.Resources.Loc, "2x LoC spent per point of debt")
	assert.Equal(t, 10.0, st.Resources.TechDebt)

	// Clamped to remaining debt.
	paid = s.PayDownTechDebt(50)
	assert.Equal(t, 10.0, paid)
	assert.Equal(t, 0.0, s.CloneState().Resources.TechDebt)

	assert.Equal(t, 0.0, s.PayDownTechDebt(5), "no debt left to pay")
	assert.Equal(t, 0.0, s.PayDownTechDebt(-1), "negative amounts are rejected")
}

func TestPayDownTechDebtClampsToAvailableLoc(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.st.Resources.Loc = 10
	s.st.Resources.TechDebt = 100
	s.mu.Unlock()

	// Only 10 LoC on hand funds at most 5 points of paydown.
	paid := s.PayDownTechDebt(50)
	assert.Equal(t, 5.0, paid)
	st := s.CloneState()
	assert.Equal(t, 0.0, st.Resources.Loc)
	assert.Equal(t, 95.0, st.Resources.TechDebt)
}

func TestAutoShipInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), AutoShipInterval(0))
	assert.Equal(t, 20*time.Second, AutoShipInterval(1))
	assert.Equal(t, 10*time.Second, AutoShipInterval(2))
	assert.Equal(t, 5*time.Second, AutoShipInterval(3))
	assert.Equal(t, time.Second, AutoShipInterval(10), "interval floors at one second")
}

func TestTickProducesAndAccruesDebt(t *testing.T) {
	s := newTestSession(t)

	t0 := time.Now()
	s.Tick(t0)
	s.Tick(t0.Add(10 * time.Second))

	st := s.CloneState()
	// Idle 0.1/s for 10s.
	assert.InDelta(t, 1.0, st.Resources.Loc, 1e-9)
	assert.InDelta(t, 1.0, st.Shipping.BufferedLoc, 1e-9)
	// tech_debt_growth 1 * 10s * 0.1.
	assert.InDelta(t, 1.0, st.Resources.TechDebt, 1e-9)
	assert.Equal(t, 0.0, st.Resources.Revenue, "no auto-ship, no passive income")
}

func TestTickStaffsAgentsToCap(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.st.Caps.AgentConcurrencyCap = 3
	s.mu.Unlock()

	t0 := time.Now()
	s.Tick(t0)
	s.Tick(t0.Add(time.Second))

	st := s.CloneState()
	assert.Equal(t, 3, st.Agents.ActiveAgents)
	// Idle 0.1 + agents 3*0.5 = 1.6 LoC over one second.
	assert.InDelta(t, 1.6, st.Resources.Loc, 1e-9)
}

func TestTickRefactorConvertsDebt(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.st.Resources.TechDebt = 100
	s.st.Stats[StatRefactorBonus] = 2
	s.st.Stats[StatIdleLocPerSec] = 0
	s.st.Stats[StatTechDebtGrowth] = 0
	s.mu.Unlock()

	t0 := time.Now()
	s.Tick(t0)
	s.Tick(t0.Add(time.Second))

	st := s.CloneState()
	// 2 debt converted, yielding 1 LoC; converted LoC is not shippable.
	assert.InDelta(t, 98.0, st.Resources.TechDebt, 1e-9)
	assert.InDelta(t, 1.0, st.Resources.Loc, 1e-9)
	assert.Equal(t, 0.0, st.Shipping.BufferedLoc)
}

func TestTickAutoShipFlag(t *testing.T) {
	s := newTestSession(t)
	s.SetAutoShip(true)

	t0 := time.Now()
	s.Tick(t0)
	s.Tick(t0.Add(10 * time.Second))

	st := s.CloneState()
	assert.Greater(t, st.Resources.Revenue, 0.0, "auto flag ships every tick")
	assert.Less(t, st.Shipping.BufferedLoc, 1.0)
}

func TestTickAutomationLevelInterval(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.st.Shipping.AutomationLevel = 1
	s.mu.Unlock()

	t0 := time.Now()
	s.Tick(t0)
	// First eligible tick ships immediately (no prior auto-ship timestamp).
	s.Tick(t0.Add(time.Second))
	rev1 := s.CloneState().Resources.Revenue
	assert.Greater(t, rev1, 0.0)

	// Within the 20s interval nothing ships.
	s.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, rev1, s.CloneState().Resources.Revenue)

	// Past the interval it ships again.
	s.Tick(t0.Add(22 * time.Second))
	assert.Greater(t, s.CloneState().Resources.Revenue, rev1)
}

func TestTickFirstCallOnlySetsBaseline(t *testing.T) {
	s := newTestSession(t)
	s.Tick(time.Now())
	st := s.CloneState()
	assert.Equal(t, 0.0, st.Resources.Loc)
}

func TestRestoreSanitizes(t *testing.T) {
	s := newTestSession(t)
	st := NewState(s.Graph())
	st.Resources.TechDebt = -50
	st.Flags = nil
	s.Restore(st)

	got := s.CloneState()
	assert.Equal(t, 0.0, got.Resources.TechDebt)
	assert.NotNil(t, got.Flags)
}

func TestDirtySignalCoalesces(t *testing.T) {
	s := newTestSession(t)
	s.markDirty()
	s.markDirty()
	s.markDirty()

	select {
	case <-s.Dirty():
	default:
		t.Fatal("expected a pending dirty signal")
	}
	select {
	case <-s.Dirty():
		t.Fatal("dirty signals should coalesce to one")
	default:
	}
}
