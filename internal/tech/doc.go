package tech

// Document types mirror the tech-tree JSON loaded once at startup. The
// document is authored data, not user input: loaders validate structure while
// gameplay code tolerates unknown stat names and curve kinds.

// CurveKind names a cost-curve family in the shared curve table.
type CurveKind string

// CurveExponential is the only curve kind currently defined. Unrecognized
// kinds degrade to a flat base cost rather than erroring.
const CurveExponential CurveKind = "exponential"

// CurveDef is one entry in the shared cost-curve table.
type CurveDef struct {
	Kind CurveKind `json:"kind"`
	K    float64   `json:"k"`
}

// EffectType describes how an effect combines with its target.
type EffectType string

const (
	EffectAdd    EffectType = "add"
	EffectMul    EffectType = "mul"
	EffectCap    EffectType = "cap"
	EffectUnlock EffectType = "unlock"
	EffectToggle EffectType = "toggle"
)

// Effect is one stat/system mutation carried by a tech node or milestone.
// Flag-like effects (unlock/toggle) treat any nonzero value as true.
type Effect struct {
	Stat  string     `json:"stat"`
	Type  EffectType `json:"type"`
	Value float64    `json:"value"`
}

// RequireDoc is a single explicit prerequisite reference.
type RequireDoc struct {
	Node string `json:"node"`
}

// NodeDoc is the on-disk form of one tech node.
type NodeDoc struct {
	ID        string       `json:"id"`
	Tier      int          `json:"tier"`
	Name      string       `json:"name"`
	BaseCost  float64      `json:"baseCost"`
	CostCurve string       `json:"costCurve,omitempty"`
	Requires  []RequireDoc `json:"requires,omitempty"`
	Effects   []Effect     `json:"effects,omitempty"`
}

// BranchDoc is a named ordered sequence of tiers.
type BranchDoc struct {
	Key   string    `json:"key"`
	Name  string    `json:"name"`
	Nodes []NodeDoc `json:"nodes"`
}

// TreeDoc is the complete versioned tech-tree document.
type TreeDoc struct {
	Version  int                 `json:"version"`
	Curves   map[string]CurveDef `json:"curves"`
	Branches []BranchDoc         `json:"branches"`
}
