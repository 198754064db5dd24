package game

import (
	"math"
	"sync"
	"time"

	"programaxis/internal/tech"
)

// Session owns one player's complete game state behind a single mutex. Every
// state transition (tick, user command, snapshot capture) is a synchronous,
// non-yielding method, so a purchase never observes a half-completed tick and
// serialization always reads a consistent copy.
type Session struct {
	ID string

	mu         sync.Mutex
	st         *State
	graph      *tech.Graph
	milestones []Milestone
	lastTick   time.Time

	dirty chan struct{}
}

// NewSession creates a session with a fresh-game state.
func NewSession(id string, g *tech.Graph, milestones []Milestone) *Session {
	return &Session{
		ID:         id,
		st:         NewState(g),
		graph:      g,
		milestones: milestones,
		dirty:      make(chan struct{}, 1),
	}
}

// Restore replaces the session state wholesale (load path). The state is
// sanitized before use.
func (s *Session) Restore(st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Sanitize()
	s.st = st
}

// Graph returns the immutable tech graph this session plays against.
func (s *Session) Graph() *tech.Graph {
	return s.graph
}

// Dirty signals that a high-value transition (purchase, milestone, ship gain,
// debt payoff) happened and an opportunistic save is worthwhile.
func (s *Session) Dirty() <-chan struct{} {
	return s.dirty
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// CloneState returns a deep copy taken under the lock, for serialization or
// DTO building against a consistent snapshot.
func (s *Session) CloneState() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// MetricsNow derives the current metrics record.
func (s *Session) MetricsNow() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.st)
}

// Click performs one manual production action.
func (s *Session) Click() {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Compute(s.st)
	s.st.addLoc(m.LocPerClick)
}

// ShipNow converts the buffered LoC through the effective ship fraction and
// returns the revenue gained. The unshipped remainder stays buffered.
func (s *Session) ShipNow() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gain := s.ship(time.Now())
	if gain > 0 {
		s.markDirty()
	}
	return gain
}

// ship assumes the lock is held.
func (s *Session) ship(now time.Time) float64 {
	buf := s.st.Shipping.BufferedLoc
	if buf <= 0 {
		return 0
	}
	m := Compute(s.st)
	shipped := buf * m.EffectiveShipFraction
	gain := shipped * m.RevPerLoc
	s.st.Shipping.BufferedLoc -= shipped
	s.st.Shipping.LastShipAt = now
	s.st.addRevenue(gain)
	return gain
}

// CanBuy is the pure purchasability query exposed to the UI.
func (s *Session) CanBuy(id tech.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Tech.CanPurchase(s.graph, id, s.st.Resources.Revenue)
}

// BuyNode re-validates and executes a purchase: debit revenue, mark
// purchased, apply the node's effects in declaration order, and cascade
// unlocks. Invalid attempts (stale UI state, races) are silent no-ops.
func (s *Session) BuyNode(id tech.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cost, ok := s.st.Tech.Purchase(s.graph, id, s.st.Resources.Revenue)
	if !ok {
		return false
	}
	s.st.Resources.Revenue -= cost
	if n := s.graph.Node(id); n != nil {
		s.st.ApplyEffects(n.Effects)
	}
	s.markDirty()
	return true
}

// SetAutoShip sets the manual always-auto shipping flag.
func (s *Session) SetAutoShip(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Shipping.Auto = on
}

// PayDownTechDebt converts 2x amount LoC into amount debt reduction, clamped
// to available LoC and available debt. Returns the debt actually paid.
func (s *Session) PayDownTechDebt(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount <= 0 {
		return 0
	}
	amount = math.Min(amount, s.st.Resources.TechDebt)
	amount = math.Min(amount, s.st.Resources.Loc/DebtPaydownRatio)
	if amount <= 0 {
		return 0
	}
	s.st.Resources.Loc -= amount * DebtPaydownRatio
	s.st.Resources.TechDebt -= amount
	s.markDirty()
	return amount
}

// AutoShipInterval is the automation-level-driven shipping interval: 20s at
// level 1, halving per level, floored at 1s. Level 0 means no automation.
func AutoShipInterval(level int) time.Duration {
	if level <= 0 {
		return 0
	}
	ms := 20000.0 / math.Pow(2, float64(level-1))
	if ms < 1000 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

// Tick advances the session by the wall-clock time since the previous tick.
// The first call only establishes the baseline.
func (s *Session) Tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastTick.IsZero() {
		s.lastTick = now
		return
	}
	dt := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	if dt <= 0 {
		return
	}
	s.tick(now, dt)
}

// tick runs one progression step. Assumes the lock is held and dt > 0.
func (s *Session) tick(now time.Time, dt float64) {
	st := s.st

	// Agents are always fully staffed up to the concurrency cap.
	st.Agents.ActiveAgents = int(st.Caps.AgentConcurrencyCap)
	st.Agents.LastAgentUpdate = now

	m := Compute(st)

	locDelta := m.TotalLocPerSec * dt
	st.addLoc(locDelta)

	st.Resources.TechDebt += st.Stats.Get(StatTechDebtGrowth) * dt * DebtAccrualPerSec

	if rb := st.Stats.Get(StatRefactorBonus); rb > 0 && st.Resources.TechDebt > 0 {
		conv := math.Min(st.Resources.TechDebt, rb*dt)
		st.Resources.TechDebt -= conv
		st.Resources.Loc += conv * RefactorConversionRatio
	}

	// Passive revenue bypasses shipping and debt penalties entirely.
	passive := m.PassiveRevPerSec * dt
	if passive > 0 {
		st.addRevenue(passive)
	}

	var shipRev float64
	if st.Shipping.Auto {
		shipRev = s.ship(now)
		st.Shipping.LastAutoShipAt = now
	} else if lvl := st.Shipping.AutomationLevel; lvl > 0 {
		if st.Shipping.LastAutoShipAt.IsZero() || now.Sub(st.Shipping.LastAutoShipAt) >= AutoShipInterval(lvl) {
			shipRev = s.ship(now)
			st.Shipping.LastAutoShipAt = now
		}
	}

	st.Resources.UILocPerSec = st.Resources.UILocPerSec*(1-uiRateAlpha) + (locDelta/dt)*uiRateAlpha
	st.Resources.UIRevPerSec = st.Resources.UIRevPerSec*(1-uiRateAlpha) + ((passive+shipRev)/dt)*uiRateAlpha

	if s.checkMilestones(now) > 0 || shipRev > 0 {
		s.markDirty()
	}
}
