// Package content holds the embedded static game data: the tech-tree and
// milestone documents plus the JSON Schemas they are validated against.
// Documents are loaded once at startup and treated as read-only thereafter.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"programaxis/internal/game"
	"programaxis/internal/tech"
)

//go:embed tech_tree.json
var techTreeJSON []byte

//go:embed milestones.json
var milestonesJSON []byte

//go:embed schemas/tech-tree.schema.json
var techTreeSchema []byte

//go:embed schemas/milestones.schema.json
var milestonesSchema []byte

// TechTreeJSON returns the embedded tech-tree document.
func TechTreeJSON() []byte { return techTreeJSON }

// MilestonesJSON returns the embedded milestone document.
func MilestonesJSON() []byte { return milestonesJSON }

func validate(schemaName string, schema, doc []byte) error {
	s, err := jsonschema.CompileString(schemaName, string(schema))
	if err != nil {
		return fmt.Errorf("content: compile %s: %w", schemaName, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("content: parse document for %s: %w", schemaName, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("content: validate against %s: %w", schemaName, err)
	}
	return nil
}

// ValidateTechTree checks a tech-tree document against the schema.
func ValidateTechTree(doc []byte) error {
	return validate("tech-tree.schema.json", techTreeSchema, doc)
}

// ValidateMilestones checks a milestone document against the schema.
func ValidateMilestones(doc []byte) error {
	return validate("milestones.schema.json", milestonesSchema, doc)
}

// LoadGraph validates and builds the embedded tech graph.
func LoadGraph() (*tech.Graph, error) {
	if err := ValidateTechTree(techTreeJSON); err != nil {
		return nil, err
	}
	return tech.Load(techTreeJSON)
}

// LoadMilestones validates and parses the embedded milestone list.
func LoadMilestones() ([]game.Milestone, error) {
	if err := ValidateMilestones(milestonesJSON); err != nil {
		return nil, err
	}
	return game.LoadMilestones(milestonesJSON)
}
