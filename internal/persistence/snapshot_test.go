package persistence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programaxis/internal/game"
	"programaxis/internal/tech"
)

func snapshotTestGraph(t *testing.T) *tech.Graph {
	t.Helper()
	g, err := tech.Build(tech.TreeDoc{
		Version: 1,
		Curves:  map[string]tech.CurveDef{"standard": {Kind: tech.CurveExponential, K: 1.5}},
		Branches: []tech.BranchDoc{
			{Key: "A", Name: "A", Nodes: []tech.NodeDoc{
				{ID: "A0", Tier: 0, BaseCost: 0},
				{ID: "A1", Tier: 1, BaseCost: 100, CostCurve: "standard"},
			}},
			{Key: "B", Name: "B", Nodes: []tech.NodeDoc{
				{ID: "B0", Tier: 0, BaseCost: 0},
			}},
		},
	})
	require.NoError(t, err)
	return g
}

func playedState(g *tech.Graph) *game.State {
	st := game.NewState(g)
	st.Resources.Loc = 500
	st.Resources.Revenue = 120
	st.Resources.LifetimeRevenue = 900
	st.Resources.TechDebt = 42
	st.Shipping.Auto = true
	st.Shipping.BufferedLoc = 33
	st.Shipping.AutomationLevel = 2
	st.Agents.ActiveAgents = 3
	st.Caps.AgentConcurrencyCap = 4
	st.Stats[game.StatLocPerClick] = 8
	st.Flags["superintelligence_gate"] = true
	st.Insight = 1
	st.Tech.Purchased["A0"] = 1
	st.Tech.Unlocked["A1"] = true
	st.Tech.Discounts["A"] = 0.95
	st.Reached = []game.ReachedMilestone{{ID: "m1", At: time.UnixMilli(1700000000000)}}
	return st
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := snapshotTestGraph(t)
	now := time.Now()

	snap := FromState(playedState(g), now)
	assert.Equal(t, SchemaVersion, snap.Header.SchemaVersion)
	assert.Equal(t, now.UnixMilli(), snap.Header.SavedAtUnixMs)

	st, err := snap.RestoreState(g)
	require.NoError(t, err)

	assert.Equal(t, 500.0, st.Resources.Loc)
	assert.Equal(t, 120.0, st.Resources.Revenue)
	assert.Equal(t, 900.0, st.Resources.LifetimeRevenue)
	assert.Equal(t, 42.0, st.Resources.TechDebt)
	assert.True(t, st.Shipping.Auto)
	assert.Equal(t, 33.0, st.Shipping.BufferedLoc)
	assert.Equal(t, 2, st.Shipping.AutomationLevel)
	assert.Equal(t, 4.0, st.Caps.AgentConcurrencyCap)
	assert.Equal(t, 8.0, st.Stats.Get(game.StatLocPerClick))
	assert.True(t, st.Flags["superintelligence_gate"])
	assert.Equal(t, 1, st.Insight)
	assert.True(t, st.Tech.IsPurchased("A0"))
	assert.True(t, st.Tech.IsUnlocked("A1"))
	assert.InDelta(t, 0.95, st.Tech.Discount("A"), 1e-9)
	require.Len(t, st.Reached, 1)
	assert.Equal(t, "m1", st.Reached[0].ID)
}

func TestRestoreDropsUnknownStatsAndNodes(t *testing.T) {
	g := snapshotTestGraph(t)
	snap := FromState(game.NewState(g), time.Now())
	snap.Stats["warp_drive"] = 99
	snap.Purchased["Z9"] = 1
	snap.Unlocked = append(snap.Unlocked, "Z9")
	snap.Resources.LifetimeRevenue = 1000

	st, err := snap.RestoreState(g)
	require.NoError(t, err)
	assert.False(t, st.Tech.IsPurchased("Z9"))
	assert.False(t, st.Tech.IsUnlocked("Z9"))
	// Unknown stat names never enter the registry-backed block.
	assert.Equal(t, 0.0, st.Stats[game.StatID("warp_drive")])
}

func TestRestoreRejectsInvalidDiscounts(t *testing.T) {
	g := snapshotTestGraph(t)
	snap := FromState(game.NewState(g), time.Now())
	snap.Discounts = map[string]float64{"A": -0.5, "B": 1.5}

	st, err := snap.RestoreState(g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, st.Tech.Discount("A"))
	assert.Equal(t, 1.0, st.Tech.Discount("B"))
}

func TestRestoreSweepsImpliedUnlocks(t *testing.T) {
	g := snapshotTestGraph(t)
	snap := FromState(game.NewState(g), time.Now())
	// Truncated unlock list: A0 purchased but its successor missing.
	snap.Purchased = map[string]int{"A0": 1}
	snap.Unlocked = nil
	snap.Resources.LifetimeRevenue = 50

	st, err := snap.RestoreState(g)
	require.NoError(t, err)
	assert.True(t, st.Tech.IsUnlocked("A1"), "sweep recovers tier unlock")
	assert.True(t, st.Tech.IsUnlocked("B0"), "free tier is always unlocked")
}

func TestRestoreSanitizesNumericDrift(t *testing.T) {
	g := snapshotTestGraph(t)
	snap := FromState(game.NewState(g), time.Now())
	snap.Resources.Loc = math.NaN()
	snap.Resources.TechDebt = -7
	snap.Stats["loc_per_click"] = math.Inf(1)

	st, err := snap.RestoreState(g)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Resources.Loc)
	assert.Equal(t, 0.0, st.Resources.TechDebt)
	assert.Equal(t, 1.0, st.Stats.Get(game.StatLocPerClick))
}

func TestCorruptHeuristic(t *testing.T) {
	g := snapshotTestGraph(t)

	// All free-tier nodes purchased but lifetime revenue near zero.
	snap := FromState(game.NewState(g), time.Now())
	snap.Purchased = map[string]int{"A0": 1, "B0": 1}
	snap.Resources.LifetimeRevenue = 0

	_, err := snap.RestoreState(g)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Same purchases with real lifetime revenue is a legitimate save.
	snap.Resources.LifetimeRevenue = 10
	_, err = snap.RestoreState(g)
	assert.NoError(t, err)

	// A partially-purchased free tier is an ordinary early game.
	snap.Purchased = map[string]int{"A0": 1}
	snap.Resources.LifetimeRevenue = 0
	_, err = snap.RestoreState(g)
	assert.NoError(t, err)
}

func TestRestoreDefaultsAgentProductivity(t *testing.T) {
	g := snapshotTestGraph(t)
	snap := FromState(game.NewState(g), time.Now())
	snap.Agents.AgentProductivity = 0 // absent in a hand-edited or ancient save

	st, err := snap.RestoreState(g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, st.Agents.AgentProductivity)
}

func TestSavedAt(t *testing.T) {
	var snap SnapshotV1
	assert.True(t, snap.SavedAt().IsZero())

	now := time.Now()
	snap.Header.SavedAtUnixMs = now.UnixMilli()
	assert.Equal(t, now.UnixMilli(), snap.SavedAt().UnixMilli())
}
