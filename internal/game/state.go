package game

import (
	"math"
	"time"

	"programaxis/internal/tech"
)

// Resources are the spendable/accumulating currencies. LifetimeRevenue is
// monotonically non-decreasing and drives milestones; it is never decremented
// when revenue is spent. TechDebt is bounded below at 0, unbounded above.
type Resources struct {
	Loc             float64
	Revenue         float64
	LifetimeRevenue float64
	TechDebt        float64

	// EMA-smoothed display rates, cosmetic only.
	UILocPerSec float64
	UIRevPerSec float64
}

// Shipping holds the buffered-LoC conversion system. AutomationLevel is a
// monotonic integer; Auto is the manual always-auto flag. The two are
// independent eligibility checks combined by OR.
type Shipping struct {
	Auto            bool
	BufferedLoc     float64
	AutomationLevel int
	LastShipAt      time.Time
	LastAutoShipAt  time.Time
}

// Agents holds the agent-labor system. ActiveAgents is always fully staffed
// up to the concurrency cap; AgentProductivity accumulates multiplicatively.
type Agents struct {
	ActiveAgents      int
	AgentProductivity float64
	LastAgentUpdate   time.Time
}

// Caps are monotonic capacity ratchets, updated only via max.
type Caps struct {
	AgentConcurrencyCap float64
	ParallelismCap      float64
}

// ReachedMilestone is one append-only ledger entry.
type ReachedMilestone struct {
	ID string
	At time.Time
}

// State is the process-wide game state container. All mutation goes through
// Session transition methods; nothing reads-then-writes around them.
type State struct {
	Resources Resources
	Shipping  Shipping
	Agents    Agents
	Caps      Caps
	Stats     StatBlock
	Flags     map[string]bool
	Insight   int
	Tech      *tech.State
	Reached   []ReachedMilestone
}

// NewState returns a fresh-game state with registry defaults and the tech
// tree's free tier unlocked.
func NewState(g *tech.Graph) *State {
	return &State{
		Agents: Agents{AgentProductivity: 1.0},
		Stats:  DefaultStats(),
		Flags:  make(map[string]bool),
		Tech:   tech.NewState(g),
	}
}

// Sanitize repairs numeric drift after a load or computation: NaN/Inf fields
// reset to their type-appropriate defaults instead of propagating.
func (st *State) Sanitize() {
	st.Stats.Sanitize()
	fix := func(v *float64, def float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fix(&st.Resources.Loc, 0)
	fix(&st.Resources.Revenue, 0)
	fix(&st.Resources.LifetimeRevenue, 0)
	fix(&st.Resources.TechDebt, 0)
	fix(&st.Resources.UILocPerSec, 0)
	fix(&st.Resources.UIRevPerSec, 0)
	fix(&st.Shipping.BufferedLoc, 0)
	fix(&st.Agents.AgentProductivity, 1.0)
	fix(&st.Caps.AgentConcurrencyCap, 0)
	fix(&st.Caps.ParallelismCap, 0)
	if st.Resources.TechDebt < 0 {
		st.Resources.TechDebt = 0
	}
	if st.Flags == nil {
		st.Flags = make(map[string]bool)
	}
}

// Clone deep-copies the state for consistent-snapshot serialization.
func (st *State) Clone() *State {
	c := *st
	c.Stats = st.Stats.Clone()
	c.Flags = make(map[string]bool, len(st.Flags))
	for k, v := range st.Flags {
		c.Flags[k] = v
	}
	c.Tech = st.Tech.Clone()
	c.Reached = append([]ReachedMilestone(nil), st.Reached...)
	return &c
}

func (st *State) addLoc(amount float64) {
	st.Resources.Loc += amount
	st.Shipping.BufferedLoc += amount
}

func (st *State) addRevenue(amount float64) {
	st.Resources.Revenue += amount
	st.Resources.LifetimeRevenue += amount
}
