// Package persistence serializes game state as versioned snapshots and keeps
// them in a local SQLite store, zstd-compressed. Every field defaults when
// absent on load (additive schema evolution), and a heuristic corruption
// signature resets to a fresh game rather than attempting repair.
package persistence

import (
	"errors"
	"time"

	"programaxis/internal/game"
	"programaxis/internal/tech"
)

// Schema/game version pair for forward migration of saves.
const (
	SchemaVersion = 1
	GameVersion   = 1
)

// ErrCorrupt marks a save whose contents fail the integrity heuristic.
// Callers treat it as "no save exists".
var ErrCorrupt = errors.New("persistence: corrupt save data")

type HeaderV1 struct {
	SchemaVersion int   `json:"schema_version"`
	GameVersion   int   `json:"game_version"`
	SavedAtUnixMs int64 `json:"saved_at_unix_ms"`
}

type ResourcesV1 struct {
	Loc             float64 `json:"loc"`
	Revenue         float64 `json:"revenue"`
	LifetimeRevenue float64 `json:"lifetime_revenue"`
	TechDebt        float64 `json:"tech_debt"`
	UILocPerSec     float64 `json:"ui_loc_per_sec,omitempty"`
	UIRevPerSec     float64 `json:"ui_rev_per_sec,omitempty"`
}

type ShippingV1 struct {
	Auto             bool    `json:"auto"`
	BufferedLoc      float64 `json:"buffered_loc"`
	AutomationLevel  int     `json:"automation_level"`
	LastShipAtMs     int64   `json:"last_ship_at_ms,omitempty"`
	LastAutoShipAtMs int64   `json:"last_auto_ship_at_ms,omitempty"`
}

type AgentsV1 struct {
	ActiveAgents      int     `json:"active_agents"`
	AgentProductivity float64 `json:"agent_productivity"`
}

type CapsV1 struct {
	AgentConcurrencyCap float64 `json:"agent_concurrency_cap"`
	ParallelismCap      float64 `json:"parallelism_cap"`
}

type ReachedV1 struct {
	ID       string `json:"id"`
	AtUnixMs int64  `json:"at_unix_ms"`
}

// SnapshotV1 is the complete persisted state of one save slot.
type SnapshotV1 struct {
	Header HeaderV1 `json:"header"`

	Resources ResourcesV1        `json:"resources"`
	Shipping  ShippingV1         `json:"shipping"`
	Agents    AgentsV1           `json:"agents"`
	Caps      CapsV1             `json:"caps"`
	Stats     map[string]float64 `json:"stats"`
	Flags     map[string]bool    `json:"flags,omitempty"`
	Insight   int                `json:"insight,omitempty"`

	Purchased map[string]int     `json:"purchased"`
	Unlocked  []string           `json:"unlocked"`
	Discounts map[string]float64 `json:"discounts,omitempty"`

	Milestones []ReachedV1 `json:"milestones,omitempty"`
}

func msOf(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timeOf(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FromState captures a snapshot from a consistent state copy.
func FromState(st *game.State, now time.Time) SnapshotV1 {
	snap := SnapshotV1{
		Header: HeaderV1{
			SchemaVersion: SchemaVersion,
			GameVersion:   GameVersion,
			SavedAtUnixMs: now.UnixMilli(),
		},
		Resources: ResourcesV1{
			Loc:             st.Resources.Loc,
			Revenue:         st.Resources.Revenue,
			LifetimeRevenue: st.Resources.LifetimeRevenue,
			TechDebt:        st.Resources.TechDebt,
			UILocPerSec:     st.Resources.UILocPerSec,
			UIRevPerSec:     st.Resources.UIRevPerSec,
		},
		Shipping: ShippingV1{
			Auto:             st.Shipping.Auto,
			BufferedLoc:      st.Shipping.BufferedLoc,
			AutomationLevel:  st.Shipping.AutomationLevel,
			LastShipAtMs:     msOf(st.Shipping.LastShipAt),
			LastAutoShipAtMs: msOf(st.Shipping.LastAutoShipAt),
		},
		Agents: AgentsV1{
			ActiveAgents:      st.Agents.ActiveAgents,
			AgentProductivity: st.Agents.AgentProductivity,
		},
		Caps: CapsV1{
			AgentConcurrencyCap: st.Caps.AgentConcurrencyCap,
			ParallelismCap:      st.Caps.ParallelismCap,
		},
		Stats:     make(map[string]float64, len(st.Stats)),
		Flags:     make(map[string]bool, len(st.Flags)),
		Insight:   st.Insight,
		Purchased: make(map[string]int, len(st.Tech.Purchased)),
		Discounts: make(map[string]float64, len(st.Tech.Discounts)),
	}
	for id, v := range st.Stats {
		snap.Stats[string(id)] = v
	}
	for k, v := range st.Flags {
		snap.Flags[k] = v
	}
	for id, n := range st.Tech.Purchased {
		snap.Purchased[string(id)] = n
	}
	for id, ok := range st.Tech.Unlocked {
		if ok {
			snap.Unlocked = append(snap.Unlocked, string(id))
		}
	}
	for b, d := range st.Tech.Discounts {
		snap.Discounts[string(b)] = d
	}
	for _, r := range st.Reached {
		snap.Milestones = append(snap.Milestones, ReachedV1{ID: r.ID, AtUnixMs: msOf(r.At)})
	}
	return snap
}

// corrupt is the detect-and-reset heuristic: every free tier-0 node is
// purchased yet lifetime revenue is implausibly near zero. That combination
// only arises from partial/interrupted writes, which are not structurally
// diagnosable, so the whole save is discarded.
func (snap SnapshotV1) corrupt(g *tech.Graph) bool {
	tierZero := g.TierZero()
	if len(tierZero) == 0 {
		return false
	}
	for _, n := range tierZero {
		if snap.Purchased[string(n.ID)] == 0 {
			return false
		}
	}
	return snap.Resources.LifetimeRevenue < 10
}

// RestoreState rebuilds a game state from the snapshot against the current
// graph, defaulting every absent field and sanitizing numeric drift. Returns
// ErrCorrupt when the integrity heuristic trips.
func (snap SnapshotV1) RestoreState(g *tech.Graph) (*game.State, error) {
	if snap.corrupt(g) {
		return nil, ErrCorrupt
	}

	st := game.NewState(g)
	st.Resources = game.Resources{
		Loc:             snap.Resources.Loc,
		Revenue:         snap.Resources.Revenue,
		LifetimeRevenue: snap.Resources.LifetimeRevenue,
		TechDebt:        snap.Resources.TechDebt,
		UILocPerSec:     snap.Resources.UILocPerSec,
		UIRevPerSec:     snap.Resources.UIRevPerSec,
	}
	st.Shipping = game.Shipping{
		Auto:            snap.Shipping.Auto,
		BufferedLoc:     snap.Shipping.BufferedLoc,
		AutomationLevel: snap.Shipping.AutomationLevel,
		LastShipAt:      timeOf(snap.Shipping.LastShipAtMs),
		LastAutoShipAt:  timeOf(snap.Shipping.LastAutoShipAtMs),
	}
	st.Agents.ActiveAgents = snap.Agents.ActiveAgents
	if snap.Agents.AgentProductivity != 0 {
		st.Agents.AgentProductivity = snap.Agents.AgentProductivity
	}
	st.Caps = game.Caps{
		AgentConcurrencyCap: snap.Caps.AgentConcurrencyCap,
		ParallelismCap:      snap.Caps.ParallelismCap,
	}
	st.Insight = snap.Insight

	// Saved stats overlay the registry defaults; stats unknown to this build
	// are dropped, stats added since the save keep their defaults.
	for name, v := range snap.Stats {
		if game.KnownStat(game.StatID(name)) {
			st.Stats[game.StatID(name)] = v
		}
	}
	for name, v := range snap.Flags {
		st.Flags[name] = v
	}

	for id, n := range snap.Purchased {
		if g.Node(tech.NodeID(id)) != nil && n > 0 {
			st.Tech.Purchased[tech.NodeID(id)] = 1
		}
	}
	for _, id := range snap.Unlocked {
		if g.Node(tech.NodeID(id)) != nil {
			st.Tech.Unlocked[tech.NodeID(id)] = true
		}
	}
	for key, d := range snap.Discounts {
		if d > 0 && d <= 1 {
			st.Tech.Discounts[tech.BranchKey(key)] = d
		}
	}
	// Unlocks implied by the purchased set (nodes added to the tree since the
	// save, or truncated unlock lists) are recovered by a sweep.
	st.Tech.Sweep(g)

	for _, r := range snap.Milestones {
		st.Reached = append(st.Reached, game.ReachedMilestone{ID: r.ID, At: timeOf(r.AtUnixMs)})
	}

	st.Sanitize()
	return st, nil
}

// SavedAt returns the snapshot's save timestamp.
func (snap SnapshotV1) SavedAt() time.Time {
	return timeOf(snap.Header.SavedAtUnixMs)
}
