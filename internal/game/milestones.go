package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"programaxis/internal/tech"
)

// Milestone is a one-time bonus triggered by cumulative lifetime revenue,
// independent of the tech tree's purchase mechanism but sharing its effect
// vocabulary.
type Milestone struct {
	ID        string        `json:"id"`
	Threshold float64       `json:"threshold"`
	Title     string        `json:"title"`
	Short     string        `json:"short,omitempty"`
	Effects   []tech.Effect `json:"effects,omitempty"`
}

// LoadMilestones parses the milestone document and returns the list in
// threshold-ascending order. Later milestones may assume earlier discounts
// and unlocks are already applied, so the order is load-time guaranteed.
func LoadMilestones(data []byte) ([]Milestone, error) {
	var list []Milestone
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("game: parse milestone document: %w", err)
	}
	seen := make(map[string]bool, len(list))
	for _, m := range list {
		if m.ID == "" {
			return nil, fmt.Errorf("game: milestone with empty id")
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("game: duplicate milestone id %s", m.ID)
		}
		seen[m.ID] = true
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Threshold < list[j].Threshold })
	return list, nil
}

// checkMilestones scans the list in threshold-ascending order and applies
// every not-yet-reached milestone whose threshold is covered by lifetime
// revenue. Applied at most once each; multiple crossings in a single tick
// (offline catch-up) are processed in ascending order within this one call.
// Caller holds the session lock.
func (s *Session) checkMilestones(now time.Time) int {
	reached := make(map[string]bool, len(s.st.Reached))
	for _, r := range s.st.Reached {
		reached[r.ID] = true
	}
	applied := 0
	for _, m := range s.milestones {
		if reached[m.ID] || s.st.Resources.LifetimeRevenue < m.Threshold {
			continue
		}
		s.st.ApplyEffects(m.Effects)
		s.st.Reached = append(s.st.Reached, ReachedMilestone{ID: m.ID, At: now})
		applied++
	}
	return applied
}
