package server

import (
	"sort"
	"time"

	"programaxis/internal/game"
)

// JSON DTOs for the state push. The UI layer reads derived state and emits
// intents; it never mutates core state directly.

type stateMsg struct {
	Type       string         `json:"type"`
	Now        int64          `json:"now_ms"`
	Player     string         `json:"player"`
	Resources  resourcesDTO   `json:"resources"`
	Shipping   shippingDTO    `json:"shipping"`
	Agents     agentsDTO      `json:"agents"`
	Caps       capsDTO        `json:"caps"`
	Stats      map[string]float64 `json:"stats"`
	Flags      map[string]bool    `json:"flags,omitempty"`
	Insight    int            `json:"insight,omitempty"`
	Metrics    metricsDTO     `json:"metrics"`
	Tech       []nodeDTO      `json:"tech"`
	Milestones []milestoneDTO `json:"milestones"`
}

type resourcesDTO struct {
	Loc             float64 `json:"loc"`
	Revenue         float64 `json:"revenue"`
	LifetimeRevenue float64 `json:"lifetime_revenue"`
	TechDebt        float64 `json:"tech_debt"`
	UILocPerSec     float64 `json:"ui_loc_per_sec"`
	UIRevPerSec     float64 `json:"ui_rev_per_sec"`
}

type shippingDTO struct {
	Auto            bool    `json:"auto"`
	BufferedLoc     float64 `json:"buffered_loc"`
	AutomationLevel int     `json:"automation_level"`
}

type agentsDTO struct {
	ActiveAgents      int     `json:"active_agents"`
	AgentProductivity float64 `json:"agent_productivity"`
}

type capsDTO struct {
	AgentConcurrencyCap float64 `json:"agent_concurrency_cap"`
	ParallelismCap      float64 `json:"parallelism_cap"`
}

type metricsDTO struct {
	EffectiveShipFraction float64 `json:"effective_ship_fraction"`
	DebtPenalty           float64 `json:"debt_penalty"`
	TotalLocPerSec        float64 `json:"total_loc_per_sec"`
	AgentLocPerSec        float64 `json:"agent_loc_per_sec"`
	RevPerLoc             float64 `json:"rev_per_loc"`
	LocPerClick           float64 `json:"loc_per_click"`
	PassiveRevPerSec      float64 `json:"passive_rev_per_sec"`
	SynergyBonus          float64 `json:"synergy_bonus"`
}

type nodeDTO struct {
	ID        string  `json:"id"`
	Branch    string  `json:"branch"`
	Tier      int     `json:"tier"`
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	Purchased bool    `json:"purchased"`
	Unlocked  bool    `json:"unlocked"`
	CanBuy    bool    `json:"can_buy"`
}

type milestoneDTO struct {
	ID        string  `json:"id"`
	Threshold float64 `json:"threshold"`
	Title     string  `json:"title"`
	Reached   bool    `json:"reached"`
	AtMs      int64   `json:"at_ms,omitempty"`
}

// buildState assembles the full outbound state message from a consistent
// state clone.
func buildState(player string, sess *game.Session, milestones []game.Milestone, now time.Time) stateMsg {
	st := sess.CloneState()
	g := sess.Graph()
	m := game.Compute(st)

	msg := stateMsg{
		Type:   "state",
		Now:    now.UnixMilli(),
		Player: player,
		Resources: resourcesDTO{
			Loc:             st.Resources.Loc,
			Revenue:         st.Resources.Revenue,
			LifetimeRevenue: st.Resources.LifetimeRevenue,
			TechDebt:        st.Resources.TechDebt,
			UILocPerSec:     st.Resources.UILocPerSec,
			UIRevPerSec:     st.Resources.UIRevPerSec,
		},
		Shipping: shippingDTO{
			Auto:            st.Shipping.Auto,
			BufferedLoc:     st.Shipping.BufferedLoc,
			AutomationLevel: st.Shipping.AutomationLevel,
		},
		Agents: agentsDTO{
			ActiveAgents:      st.Agents.ActiveAgents,
			AgentProductivity: st.Agents.AgentProductivity,
		},
		Caps: capsDTO{
			AgentConcurrencyCap: st.Caps.AgentConcurrencyCap,
			ParallelismCap:      st.Caps.ParallelismCap,
		},
		Stats:   make(map[string]float64, len(st.Stats)),
		Flags:   st.Flags,
		Insight: st.Insight,
		Metrics: metricsDTO{
			EffectiveShipFraction: m.EffectiveShipFraction,
			DebtPenalty:           m.DebtPenalty,
			TotalLocPerSec:        m.TotalLocPerSec,
			AgentLocPerSec:        m.AgentLocPerSec,
			RevPerLoc:             m.RevPerLoc,
			LocPerClick:           m.LocPerClick,
			PassiveRevPerSec:      m.PassiveRevPerSec,
			SynergyBonus:          m.SynergyBonus,
		},
	}
	for id, v := range st.Stats {
		msg.Stats[string(id)] = v
	}

	for _, br := range g.Branches {
		for _, n := range br.Tiers {
			msg.Tech = append(msg.Tech, nodeDTO{
				ID:        string(n.ID),
				Branch:    string(n.Branch),
				Tier:      n.Tier,
				Name:      n.Name,
				Cost:      g.Cost(n, st.Tech.Discount(n.Branch)),
				Purchased: st.Tech.IsPurchased(n.ID),
				Unlocked:  st.Tech.IsUnlocked(n.ID),
				CanBuy:    st.Tech.CanPurchase(g, n.ID, st.Resources.Revenue),
			})
		}
	}
	sort.Slice(msg.Tech, func(i, j int) bool {
		if msg.Tech[i].Branch != msg.Tech[j].Branch {
			return msg.Tech[i].Branch < msg.Tech[j].Branch
		}
		return msg.Tech[i].Tier < msg.Tech[j].Tier
	})

	reached := make(map[string]time.Time, len(st.Reached))
	for _, r := range st.Reached {
		reached[r.ID] = r.At
	}
	for _, ms := range milestones {
		dto := milestoneDTO{ID: ms.ID, Threshold: ms.Threshold, Title: ms.Title}
		if at, ok := reached[ms.ID]; ok {
			dto.Reached = true
			if !at.IsZero() {
				dto.AtMs = at.UnixMilli()
			}
		}
		msg.Milestones = append(msg.Milestones, dto)
	}
	return msg
}
