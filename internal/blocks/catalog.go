package blocks

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #region type

// Type identifies one family of attunement moves.
type Type string

const (
	Containment     Type = "CONTAINMENT"
	Validation      Type = "VALIDATION"
	Pacing          Type = "PACING"
	Acknowledgment  Type = "ACKNOWLEDGMENT"
	Ambivalence     Type = "AMBIVALENCE"
	Trust           Type = "TRUST"
	IdentityInjury  Type = "IDENTITY_INJURY"
	GentleDirection Type = "GENTLE_DIRECTION"
)

// EmissionOrder is the fixed tie-break ordering of block types. Lower index
// emits earlier when priority levels tie.
var EmissionOrder = []Type{
	Containment, Pacing, Ambivalence, IdentityInjury,
	Validation, Acknowledgment, Trust, GentleDirection,
}

// OrderIndex returns the tie-break rank of t (len(EmissionOrder) for unknown).
func OrderIndex(t Type) int {
	for i, v := range EmissionOrder {
		if v == t {
			return i
		}
	}
	return len(EmissionOrder)
}

// #endregion

// #region block

// Block is one named prose variant within a type. Names are stable IDs.
type Block struct {
	Type          Type   `yaml:"type"`
	Name          string `yaml:"name"`
	Content       string `yaml:"content"`
	Trigger       string `yaml:"trigger"`
	OrderPriority int    `yaml:"order_priority"`
	ForbiddenWith []Type `yaml:"forbidden_with"`
}

// Forbids reports whether t may not co-occur after this block.
func (b Block) Forbids(t Type) bool {
	for _, f := range b.ForbiddenWith {
		if f == t {
			return true
		}
	}
	return false
}

// #endregion

// #region catalog

// Catalog is the read-only block library, loaded at startup.
type Catalog struct {
	byType map[Type][]Block
}

// NewCatalog builds a catalog from a flat block list and validates it.
func NewCatalog(list []Block) (*Catalog, error) {
	c := &Catalog{byType: make(map[Type][]Block)}
	for _, b := range list {
		c.byType[b.Type] = append(c.byType[b.Type], b)
	}
	for t := range c.byType {
		sort.Slice(c.byType[t], func(i, j int) bool {
			a, b := c.byType[t][i], c.byType[t][j]
			if a.OrderPriority != b.OrderPriority {
				return a.OrderPriority < b.OrderPriority
			}
			return a.Name < b.Name
		})
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Variants returns the variants for a type, ordered by priority then name.
func (c *Catalog) Variants(t Type) []Block {
	return c.byType[t]
}

// validate enforces catalog invariants: unique names per type and the
// GENTLE_DIRECTION / PACING exclusion.
func (c *Catalog) validate() error {
	for t, list := range c.byType {
		seen := make(map[string]bool)
		for _, b := range list {
			if seen[b.Name] {
				return fmt.Errorf("catalog: duplicate name %q in type %s", b.Name, t)
			}
			seen[b.Name] = true
			if b.Type == GentleDirection && !b.Forbids(Pacing) {
				return fmt.Errorf("catalog: %s/%s must be forbidden with PACING", t, b.Name)
			}
		}
	}
	return nil
}

// #endregion

// #region yaml-loading

// catalogFile is the YAML layout of a catalog file.
type catalogFile struct {
	Blocks []Block `yaml:"blocks"`
}

// LoadCatalog reads a YAML catalog file and validates it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewCatalog(f.Blocks)
}

// #endregion

// #region default-catalog

// DefaultCatalog returns the built-in block library.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtinBlocks)
	if err != nil {
		// Built-in catalog is fixed data; a validation failure is a bug.
		panic(err)
	}
	return c
}

var builtinBlocks = []Block{
	{
		Type: Containment, Name: "steady_here", Trigger: "bracing", OrderPriority: 1,
		Content: "I'm right here with you, and there's no rush.",
	},
	{
		Type: Containment, Name: "holding_space", Trigger: "full_disclosure", OrderPriority: 2,
		Content: "Whatever is surfacing right now, it has room here.",
	},
	{
		Type: Containment, Name: "steady_ground", Trigger: "overwhelmed", OrderPriority: 3,
		Content: "We can stay with one piece of this at a time.",
	},
	{
		Type: Pacing, Name: "no_rush", Trigger: "testing_safety", OrderPriority: 1,
		Content: "We can take this at whatever speed feels right.",
	},
	{
		Type: Pacing, Name: "slow_down", Trigger: "needs_pace_slowing", OrderPriority: 2,
		Content: "It's okay to slow down here. Nothing is being rushed.",
	},
	{
		Type: Acknowledgment, Name: "i_hear_you", Trigger: "naming_experience", OrderPriority: 1,
		Content: "I hear what you're saying.",
	},
	{
		Type: Acknowledgment, Name: "taking_it_in", Trigger: "grounding_in_facts", OrderPriority: 2,
		Content: "What you've shared matters, and I'm taking it in.",
	},
	{
		Type: Validation, Name: "it_makes_sense", Trigger: "revealing_impact", OrderPriority: 1,
		Content: "It makes sense that this weighs on you the way it does.",
	},
	{
		Type: Validation, Name: "real_and_counted", Trigger: "agency_loss", OrderPriority: 2,
		Content: "What you went through was real, and it counts.",
	},
	{
		Type: Validation, Name: "reaction_fits", Trigger: "emotional_weight", OrderPriority: 3,
		Content: "However this is landing for you is a fair way for it to land.",
	},
	{
		Type: Ambivalence, Name: "both_true", Trigger: "contradiction", OrderPriority: 1,
		Content: "Both of those things can be true at once. The relief and the doubt can sit side by side.",
	},
	{
		Type: Ambivalence, Name: "pull_in_two_directions", Trigger: "expressing_ambivalence", OrderPriority: 2,
		Content: "Feeling pulled in two directions about this doesn't make either feeling less real.",
	},
	{
		Type: Trust, Name: "thank_you_for_this", Trigger: "revealing", OrderPriority: 1,
		Content: "Thank you for trusting me with this.",
	},
	{
		Type: IdentityInjury, Name: "not_your_measure", Trigger: "agency_loss", OrderPriority: 1,
		Content: "Being pushed down like that says something about what happened to you, not about who you are.",
	},
	{
		Type: IdentityInjury, Name: "still_yours", Trigger: "identity_entanglement", OrderPriority: 2,
		Content: "So much of you got tangled up in this, and you're still here, still yours.",
	},
	{
		Type: GentleDirection, Name: "if_it_feels_right", Trigger: "ready_to_go_deeper", OrderPriority: 1,
		ForbiddenWith: []Type{Pacing},
		Content:       "If it feels right, I'm here for whatever wants to come next.",
	},
}

// #endregion
