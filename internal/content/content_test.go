package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programaxis/internal/game"
)

func TestEmbeddedTechTreeValidates(t *testing.T) {
	require.NoError(t, ValidateTechTree(TechTreeJSON()))
}

func TestEmbeddedMilestonesValidate(t *testing.T) {
	require.NoError(t, ValidateMilestones(MilestonesJSON()))
}

func TestLoadGraph(t *testing.T) {
	g, err := LoadGraph()
	require.NoError(t, err)

	assert.Len(t, g.Branches, 8)
	for _, br := range g.Branches {
		require.NotEmpty(t, br.Tiers, "branch %s has no nodes", br.Key)
		assert.Equal(t, 0.0, br.Tiers[0].BaseCost, "branch %s tier 0 must be free", br.Key)
	}
}

func TestLoadMilestonesAscending(t *testing.T) {
	list, err := LoadMilestones()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	prev := -1.0
	for _, m := range list {
		assert.GreaterOrEqual(t, m.Threshold, prev, "milestone %s out of order", m.ID)
		prev = m.Threshold
	}
}

// TestAuthoredEffectTargetsResolve catches typos in authored stat names: every
// effect in the shipped content must route somewhere, except flag-like effects
// which may address the open flag namespace.
func TestAuthoredEffectTargetsResolve(t *testing.T) {
	g, err := LoadGraph()
	require.NoError(t, err)
	for _, n := range g.ByID {
		for _, ef := range n.Effects {
			if ef.Type == "unlock" || ef.Type == "toggle" {
				continue
			}
			assert.True(t, game.TargetKnown(ef.Stat),
				"node %s effect targets unknown stat %q", n.ID, ef.Stat)
		}
	}

	milestones, err := LoadMilestones()
	require.NoError(t, err)
	for _, m := range milestones {
		for _, ef := range m.Effects {
			if ef.Type == "unlock" || ef.Type == "toggle" {
				continue
			}
			assert.True(t, game.TargetKnown(ef.Stat),
				"milestone %s effect targets unknown stat %q", m.ID, ef.Stat)
		}
	}
}

func TestAuthoredRequirementsReferToEarlierContent(t *testing.T) {
	g, err := LoadGraph()
	require.NoError(t, err)
	for _, n := range g.ByID {
		for _, req := range n.Requires {
			require.NotNil(t, g.Node(req), "node %s requires missing %s", n.ID, req)
		}
	}
}

func TestValidateRejectsMalformedDocs(t *testing.T) {
	assert.Error(t, ValidateTechTree([]byte(`{"version": "one"}`)))
	assert.Error(t, ValidateTechTree([]byte(`not json`)))
	assert.Error(t, ValidateMilestones([]byte(`[{"threshold": 10}]`)))
	assert.Error(t, ValidateMilestones([]byte(`[{"id": "m", "threshold": 10, "title": "X",
		"effects": [{"stat": "x", "type": "divide", "value": 2}]}]`)))
}
