package tech

// State holds the mutable membership sets of the tech tree: which nodes are
// purchased, which are unlocked (eligible for purchase), and the per-branch
// discount multipliers. Node definitions themselves never change.
//
// State transitions are strictly forward: Locked -> Unlocked -> Purchased.
// There is no un-purchase or re-lock in normal play.
type State struct {
	Purchased map[NodeID]int
	Unlocked  map[NodeID]bool
	Discounts map[BranchKey]float64
}

// NewState creates a fresh state with every branch's tier-0 node unlocked
// unconditionally (the tech tree's free tier).
func NewState(g *Graph) *State {
	s := &State{
		Purchased: make(map[NodeID]int),
		Unlocked:  make(map[NodeID]bool),
		Discounts: make(map[BranchKey]float64),
	}
	for _, n := range g.TierZero() {
		s.Unlocked[n.ID] = true
	}
	return s
}

// IsPurchased reports whether the node has been purchased.
func (s *State) IsPurchased(id NodeID) bool {
	return s.Purchased[id] > 0
}

// IsUnlocked reports whether the node is eligible for purchase. Unlock is
// necessary but not sufficient: affordability is checked at purchase time.
func (s *State) IsUnlocked(id NodeID) bool {
	return s.Unlocked[id]
}

// Unlock adds a node to the unlocked set directly (milestone unlock effects).
func (s *State) Unlock(id NodeID) {
	s.Unlocked[id] = true
}

// Discount returns the branch's cost multiplier, defaulting to 1.0.
func (s *State) Discount(b BranchKey) float64 {
	if d, ok := s.Discounts[b]; ok {
		return d
	}
	return 1.0
}

// ApplyDiscount stacks a discount multiplier onto a branch. Discounts only
// ever decrease prices: two 5%-off effects yield 0.95*0.95.
func (s *State) ApplyDiscount(b BranchKey, mult float64) {
	s.Discounts[b] = s.Discount(b) * mult
}

// Clone creates a deep copy of the state for serialization.
func (s *State) Clone() *State {
	clone := &State{
		Purchased: make(map[NodeID]int, len(s.Purchased)),
		Unlocked:  make(map[NodeID]bool, len(s.Unlocked)),
		Discounts: make(map[BranchKey]float64, len(s.Discounts)),
	}
	for id, n := range s.Purchased {
		clone.Purchased[id] = n
	}
	for id, v := range s.Unlocked {
		clone.Unlocked[id] = v
	}
	for b, d := range s.Discounts {
		clone.Discounts[b] = d
	}
	return clone
}
