package game

import (
	"math"
	"strings"

	"programaxis/internal/tech"
)

// Effect routing. A small number of targets route to system fields or
// tech-tree state instead of the generic stat block. The table is an explicit
// exception list, not a naming convention; everything else either resolves to
// a registered stat or is ignored.

type targetKind int

const (
	targetIgnored targetKind = iota
	targetStat
	targetSystem
	targetDiscount
	targetNodeUnlock
	targetFlag
)

type systemField int

const (
	fieldAutomationLevel systemField = iota
	fieldAgentProductivity
	fieldAgentConcurrencyCap
	fieldParallelismCap
	fieldShipAuto
	fieldInsight
)

type effectTarget struct {
	kind   targetKind
	stat   StatID
	field  systemField
	branch tech.BranchKey
	node   tech.NodeID
	flag   string
}

const (
	discountPrefix = "branch_discount."
	unlockPrefix   = "node."
)

func resolveTarget(stat string) effectTarget {
	switch stat {
	case "automation_level", "ship_automation":
		return effectTarget{kind: targetSystem, field: fieldAutomationLevel}
	case "agent_productivity":
		return effectTarget{kind: targetSystem, field: fieldAgentProductivity}
	case "agent_concurrency_cap":
		return effectTarget{kind: targetSystem, field: fieldAgentConcurrencyCap}
	case "parallelism_cap":
		return effectTarget{kind: targetSystem, field: fieldParallelismCap}
	case "ship_auto":
		return effectTarget{kind: targetSystem, field: fieldShipAuto}
	case "insight":
		return effectTarget{kind: targetSystem, field: fieldInsight}
	}
	if key, ok := strings.CutPrefix(stat, discountPrefix); ok && key != "" {
		return effectTarget{kind: targetDiscount, branch: tech.BranchKey(key)}
	}
	if id, ok := strings.CutPrefix(stat, unlockPrefix); ok && id != "" {
		return effectTarget{kind: targetNodeUnlock, node: tech.NodeID(id)}
	}
	if KnownStat(StatID(stat)) {
		return effectTarget{kind: targetStat, stat: StatID(stat)}
	}
	return effectTarget{kind: targetIgnored}
}

// TargetKnown reports whether an effect's stat name resolves to anything.
// Content tests use it to catch typos in authored data.
func TargetKnown(stat string) bool {
	t := resolveTarget(stat)
	if t.kind == targetIgnored {
		// Flag assignment via unlock/toggle is open-ended, so a bare name is
		// still addressable; it just does nothing under add/mul/cap.
		return false
	}
	return true
}

// ApplyEffect applies one effect per the algebra: add accumulates, mul
// accumulates multiplicatively, cap is a monotonic max ratchet, unlock and
// toggle assign flag-like values. Unknown targets are ignored, never errors.
func (st *State) ApplyEffect(ef tech.Effect) {
	t := resolveTarget(ef.Stat)
	switch t.kind {
	case targetStat:
		st.applyStat(t.stat, ef)
	case targetSystem:
		st.applySystem(t.field, ef)
	case targetDiscount:
		if ef.Type == tech.EffectMul {
			st.Tech.ApplyDiscount(t.branch, ef.Value)
		}
	case targetNodeUnlock:
		if ef.Type == tech.EffectUnlock {
			st.Tech.Unlock(t.node)
		}
	case targetIgnored:
		if ef.Type == tech.EffectUnlock || ef.Type == tech.EffectToggle {
			// Narrative/gating flags live in an open namespace.
			st.Flags[ef.Stat] = ef.Value != 0
		}
	}
}

// ApplyEffects applies a node's effect list in declaration order.
func (st *State) ApplyEffects(effects []tech.Effect) {
	for _, ef := range effects {
		st.ApplyEffect(ef)
	}
}

func (st *State) applyStat(id StatID, ef tech.Effect) {
	switch ef.Type {
	case tech.EffectAdd:
		st.Stats[id] = st.Stats.Get(id) + ef.Value
	case tech.EffectMul:
		st.Stats[id] = st.Stats.Get(id) * ef.Value
	case tech.EffectCap:
		st.Stats[id] = math.Max(st.Stats.Get(id), ef.Value)
	case tech.EffectUnlock, tech.EffectToggle:
		st.Flags[string(id)] = ef.Value != 0
	}
}

func (st *State) applySystem(field systemField, ef tech.Effect) {
	switch field {
	case fieldAutomationLevel:
		if ef.Type == tech.EffectAdd {
			st.Shipping.AutomationLevel += int(ef.Value)
		}
	case fieldAgentProductivity:
		if ef.Type == tech.EffectMul {
			st.Agents.AgentProductivity *= ef.Value
		}
	case fieldAgentConcurrencyCap:
		// Cap-only field: a monotonic ratchet, never decreases.
		if ef.Type == tech.EffectCap {
			st.Caps.AgentConcurrencyCap = math.Max(st.Caps.AgentConcurrencyCap, ef.Value)
		}
	case fieldParallelismCap:
		switch ef.Type {
		case tech.EffectAdd:
			st.Caps.ParallelismCap += ef.Value
		case tech.EffectCap:
			st.Caps.ParallelismCap = math.Max(st.Caps.ParallelismCap, ef.Value)
		}
	case fieldShipAuto:
		if ef.Type == tech.EffectUnlock || ef.Type == tech.EffectToggle {
			st.Shipping.Auto = ef.Value != 0
		}
	case fieldInsight:
		if ef.Type == tech.EffectAdd {
			st.Insight += int(ef.Value)
		}
	}
}
