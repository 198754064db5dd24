package tech

// gatingMet reports whether n's purchase gate is satisfied: the same-branch
// previous tier (if any) is purchased AND every explicit prerequisite is
// purchased. Affordability is not part of the gate.
func (s *State) gatingMet(g *Graph, n *Node) bool {
	if pred := g.Predecessor(n); pred != nil && !s.IsPurchased(pred.ID) {
		return false
	}
	for _, reqID := range n.Requires {
		if !s.IsPurchased(reqID) {
			return false
		}
	}
	return true
}

// CanPurchase is a pure query: false for unknown, purchased, or locked nodes;
// otherwise true iff the gate is met and revenue covers the discounted cost.
func (s *State) CanPurchase(g *Graph, id NodeID, revenue float64) bool {
	n := g.Node(id)
	if n == nil || s.IsPurchased(id) || !s.IsUnlocked(id) {
		return false
	}
	if !s.gatingMet(g, n) {
		return false
	}
	return revenue >= g.Cost(n, s.Discount(n.Branch))
}

// Purchase re-validates and marks the node purchased, returning the price the
// caller must debit. Invalid purchases (stale checks, UI races) are silent
// no-ops returning ok=false.
//
// On success the same-branch next-tier node is unconditionally unlocked, then
// a global unlock sweep runs so one purchase can cascade-unlock nodes across
// branches. Effect application is the caller's responsibility: effects target
// the stat/system namespace, which lives outside this package.
func (s *State) Purchase(g *Graph, id NodeID, revenue float64) (cost float64, ok bool) {
	if !s.CanPurchase(g, id, revenue) {
		return 0, false
	}
	n := g.Node(id)
	cost = g.Cost(n, s.Discount(n.Branch))
	s.Purchased[id] = 1
	if next := g.NextTier(n); next != nil {
		s.Unlocked[next.ID] = true
	}
	s.Sweep(g)
	return cost, true
}

// Sweep re-evaluates unlock eligibility for every node not yet purchased and
// returns the newly unlocked IDs. O(total nodes); runs after every purchase
// rather than batched, because prerequisites span branches.
func (s *State) Sweep(g *Graph) []NodeID {
	var newly []NodeID
	for _, br := range g.Branches {
		for _, n := range br.Tiers {
			if s.IsPurchased(n.ID) || s.IsUnlocked(n.ID) {
				continue
			}
			if s.gatingMet(g, n) {
				s.Unlocked[n.ID] = true
				newly = append(newly, n.ID)
			}
		}
	}
	return newly
}
