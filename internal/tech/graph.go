// Package tech implements the tech-tree progression engine: the static node
// graph, the cost engine, and the unlock/purchase state machine.
//
// The graph is loaded once from a static document and validated at boot time;
// only the purchased and unlocked membership sets mutate afterwards.
package tech

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// NodeID uniquely identifies a node in the graph.
type NodeID string

// BranchKey identifies a branch (a named ordered sequence of tiers).
type BranchKey string

// Node is a single purchasable tech. Tier N (N>0) is implicitly gated by its
// tier-(N-1) sibling in addition to any explicit cross-branch prerequisites.
type Node struct {
	ID       NodeID
	Branch   BranchKey
	Tier     int
	Name     string
	BaseCost float64
	Curve    string
	Requires []NodeID
	Effects  []Effect
}

// Branch holds a branch's nodes indexed by tier.
type Branch struct {
	Key   BranchKey
	Name  string
	Tiers []*Node
}

// Graph is the immutable runtime form of the tech-tree document.
type Graph struct {
	Version    int
	Branches   []*Branch
	ByID       map[NodeID]*Node
	Curves     map[string]CurveDef
	RequiredBy map[NodeID][]NodeID
}

var (
	// ErrDuplicateNode is returned when two nodes share an ID.
	ErrDuplicateNode = errors.New("tech: duplicate node id")
	// ErrUnknownRequirement is returned when a prerequisite references a missing node.
	ErrUnknownRequirement = errors.New("tech: requirement references unknown node")
	// ErrTierGap is returned when a branch's tiers are not sequential from 0.
	ErrTierGap = errors.New("tech: branch tiers not sequential from 0")
	// ErrCycleDetected is returned when the dependency graph has a cycle.
	ErrCycleDetected = errors.New("tech: cycle detected in graph")
	// ErrNegativeCost is returned when a node declares a negative base cost.
	ErrNegativeCost = errors.New("tech: negative base cost")
)

// Load parses and validates a tech-tree document.
func Load(data []byte) (*Graph, error) {
	var doc TreeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tech: parse tree document: %w", err)
	}
	return Build(doc)
}

// Build constructs and validates the runtime graph from a parsed document.
func Build(doc TreeDoc) (*Graph, error) {
	g := &Graph{
		Version:    doc.Version,
		ByID:       make(map[NodeID]*Node),
		Curves:     make(map[string]CurveDef, len(doc.Curves)),
		RequiredBy: make(map[NodeID][]NodeID),
	}
	for name, c := range doc.Curves {
		g.Curves[name] = c
	}

	for _, bd := range doc.Branches {
		br := &Branch{Key: BranchKey(bd.Key), Name: bd.Name}
		nodes := make([]*Node, 0, len(bd.Nodes))
		for _, nd := range bd.Nodes {
			if nd.BaseCost < 0 {
				return nil, fmt.Errorf("%w: node %s has base cost %.2f", ErrNegativeCost, nd.ID, nd.BaseCost)
			}
			n := &Node{
				ID:       NodeID(nd.ID),
				Branch:   br.Key,
				Tier:     nd.Tier,
				Name:     nd.Name,
				BaseCost: nd.BaseCost,
				Curve:    nd.CostCurve,
				Effects:  nd.Effects,
			}
			for _, r := range nd.Requires {
				n.Requires = append(n.Requires, NodeID(r.Node))
			}
			if _, exists := g.ByID[n.ID]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
			}
			g.ByID[n.ID] = n
			nodes = append(nodes, n)
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Tier < nodes[j].Tier })
		for i, n := range nodes {
			if n.Tier != i {
				return nil, fmt.Errorf("%w: branch %s node %s at tier %d (expected %d)",
					ErrTierGap, br.Key, n.ID, n.Tier, i)
			}
		}
		br.Tiers = nodes
		g.Branches = append(g.Branches, br)
	}

	// Resolve explicit requirements and build the reverse index.
	for _, n := range g.ByID {
		for _, reqID := range n.Requires {
			if _, exists := g.ByID[reqID]; !exists {
				return nil, fmt.Errorf("%w: node %s requires %s", ErrUnknownRequirement, n.ID, reqID)
			}
			g.RequiredBy[reqID] = append(g.RequiredBy[reqID], n.ID)
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// Node returns a node by ID, or nil if not found.
func (g *Graph) Node(id NodeID) *Node {
	return g.ByID[id]
}

// Branch returns a branch by key, or nil if not found.
func (g *Graph) Branch(key BranchKey) *Branch {
	for _, br := range g.Branches {
		if br.Key == key {
			return br
		}
	}
	return nil
}

// Predecessor returns the same-branch previous-tier sibling of n, or nil for
// tier-0 nodes.
func (g *Graph) Predecessor(n *Node) *Node {
	if n == nil || n.Tier == 0 {
		return nil
	}
	br := g.Branch(n.Branch)
	if br == nil || n.Tier-1 >= len(br.Tiers) {
		return nil
	}
	return br.Tiers[n.Tier-1]
}

// NextTier returns the same-branch next-tier sibling of n, or nil if n is the
// last tier of its branch.
func (g *Graph) NextTier(n *Node) *Node {
	if n == nil {
		return nil
	}
	br := g.Branch(n.Branch)
	if br == nil || n.Tier+1 >= len(br.Tiers) {
		return nil
	}
	return br.Tiers[n.Tier+1]
}

// TierZero returns the tier-0 node of every branch (the free tier).
func (g *Graph) TierZero() []*Node {
	var out []*Node
	for _, br := range g.Branches {
		if len(br.Tiers) > 0 {
			out = append(out, br.Tiers[0])
		}
	}
	return out
}

// checkAcyclic validates the full gating graph (explicit prerequisites plus
// implicit same-branch predecessor edges) via Kahn's algorithm.
func (g *Graph) checkAcyclic() error {
	deps := make(map[NodeID][]NodeID, len(g.ByID))
	for id, n := range g.ByID {
		deps[id] = append(deps[id], n.Requires...)
		if pred := g.Predecessor(n); pred != nil {
			deps[id] = append(deps[id], pred.ID)
		}
	}

	inDegree := make(map[NodeID]int, len(g.ByID))
	dependents := make(map[NodeID][]NodeID, len(g.ByID))
	for id := range g.ByID {
		inDegree[id] = len(deps[id])
		for _, d := range deps[id] {
			dependents[d] = append(dependents[d], id)
		}
	}

	var queue []NodeID
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[curr] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited != len(g.ByID) {
		return ErrCycleDetected
	}
	return nil
}
