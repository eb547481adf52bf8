// Package priority assigns levels to activated blocks and applies the
// override rules that let high-priority elements suppress lower ones.
package priority

import (
	"sort"

	"github.com/halcyon-labs/attune/internal/activation"
	"github.com/halcyon-labs/attune/internal/blocks"
	"github.com/halcyon-labs/attune/internal/semantic"
)

// #region levels

// Priority levels, 1 = highest.
const (
	LevelSafety        = 1
	LevelPacing        = 2
	LevelContradiction = 3
	LevelIdentity      = 4
	LevelStance        = 5
	LevelMove          = 6
	LevelDisclosure    = 7
	LevelContext       = 8
)

// MinTurnForGentleDirection is the first turn index at which GENTLE_DIRECTION
// may be emitted.
const MinTurnForGentleDirection = 3

// #endregion

// #region config

// Config holds the resolver's continuity parameters.
type Config struct {
	// ContradictionTTL is how many turns a contradiction carried in
	// continuity keeps the contradiction element alive after it was last
	// observed directly.
	ContradictionTTL int
}

// DefaultConfig returns the resolver defaults.
func DefaultConfig() Config {
	return Config{ContradictionTTL: 2}
}

// #endregion

// #region element

// Element is one priority-tagged activation source.
type Element struct {
	Level          int
	Source         string // semantic tag, matched against catalog triggers
	Blocks         []blocks.Type
	OverridesLower bool
}

func (e Element) activates(t blocks.Type) bool {
	for _, b := range e.Blocks {
		if b == t {
			return true
		}
	}
	return false
}

// #endregion

// #region resolution

// Activated is one surviving block with its strongest priority and the tags
// that fired it.
type Activated struct {
	Type     blocks.Type
	Level    int
	Triggers []string
}

// Resolution is the resolver's full output for one turn.
type Resolution struct {
	Ordered    []Activated
	Suppressed []blocks.Type
	// TooEarly is raised when GENTLE_DIRECTION was activated before the
	// minimum turn and removed here.
	TooEarly bool
	// EarlyIdentityInjury marks IDENTITY_INJURY emitted before turn 2.
	// Annotation only; composition is unaffected.
	EarlyIdentityInjury bool
	Elements            []Element
}

// BlockTypes returns the ordered surviving types.
func (r Resolution) BlockTypes() []blocks.Type {
	out := make([]blocks.Type, len(r.Ordered))
	for i, a := range r.Ordered {
		out[i] = a.Type
	}
	return out
}

// #endregion

// #region resolver

// Resolver applies priority and override rules to a semantic layer.
type Resolver struct {
	config Config
}

// NewResolver creates a Resolver.
func NewResolver(config Config) *Resolver {
	return &Resolver{config: config}
}

// Resolve builds the priority elements for the layer, applies suppression,
// and emits the surviving blocks in priority order.
func (r *Resolver) Resolve(layer semantic.Layer, view semantic.ContinuityView, turnIndex int) Resolution {
	elements := r.buildElements(layer, view)
	sort.SliceStable(elements, func(i, j int) bool { return elements[i].Level < elements[j].Level })

	suppressed := suppressionSet(elements)

	// Collect survivors with their strongest level and trigger tags.
	byType := make(map[blocks.Type]*Activated)
	for _, e := range elements {
		for _, t := range e.Blocks {
			if suppressed[t] {
				continue
			}
			a, ok := byType[t]
			if !ok {
				a = &Activated{Type: t, Level: e.Level}
				byType[t] = a
			}
			if e.Level < a.Level {
				a.Level = e.Level
			}
			a.Triggers = appendUnique(a.Triggers, e.Source)
		}
	}

	res := Resolution{Elements: elements}
	for t := range suppressed {
		res.Suppressed = append(res.Suppressed, t)
	}
	sort.Slice(res.Suppressed, func(i, j int) bool {
		return blocks.OrderIndex(res.Suppressed[i]) < blocks.OrderIndex(res.Suppressed[j])
	})

	// GENTLE_DIRECTION is never emitted before the minimum turn.
	if _, ok := byType[blocks.GentleDirection]; ok && turnIndex < MinTurnForGentleDirection {
		delete(byType, blocks.GentleDirection)
		res.Suppressed = append(res.Suppressed, blocks.GentleDirection)
		res.TooEarly = true
	}

	for _, a := range byType {
		res.Ordered = append(res.Ordered, *a)
	}
	sort.Slice(res.Ordered, func(i, j int) bool {
		if res.Ordered[i].Level != res.Ordered[j].Level {
			return res.Ordered[i].Level < res.Ordered[j].Level
		}
		return blocks.OrderIndex(res.Ordered[i].Type) < blocks.OrderIndex(res.Ordered[j].Type)
	})

	// Safe default: an empty activation still produces an acknowledgment.
	if len(res.Ordered) == 0 {
		res.Ordered = []Activated{{
			Type:     blocks.Acknowledgment,
			Level:    LevelMove,
			Triggers: []string{"default"},
		}}
	}

	if turnIndex < 2 {
		for _, a := range res.Ordered {
			if a.Type == blocks.IdentityInjury {
				res.EarlyIdentityInjury = true
			}
		}
	}

	return res
}

// #endregion

// #region element-construction

func (r *Resolver) buildElements(layer semantic.Layer, view semantic.ContinuityView) []Element {
	var elems []Element
	add := func(level int, source string, types []blocks.Type, overrides bool) {
		if len(types) == 0 {
			return
		}
		elems = append(elems, Element{Level: level, Source: source, Blocks: types, OverridesLower: overrides})
	}

	// Level 1: safety and containment.
	if layer.Meta.NeedsPaceSlowing {
		add(LevelSafety, "needs_pace_slowing", []blocks.Type{blocks.Containment, blocks.Pacing}, true)
	}
	if layer.Stance == semantic.StanceBracing {
		add(LevelSafety, string(semantic.StanceBracing), activation.ForStance(layer.Stance), false)
	}
	if layer.HasMove(semantic.MoveTestingSafety) {
		add(LevelSafety, string(semantic.MoveTestingSafety), activation.ForMove(semantic.MoveTestingSafety), false)
	}

	// Level 2: pacing needs.
	for _, n := range layer.Needs {
		switch n {
		case semantic.NeedContainment:
			add(LevelSafety, string(n), activation.ForNeed(n), false)
		case semantic.NeedPacing:
			add(LevelPacing, string(n), activation.ForNeed(n), false)
		}
	}

	// Level 3: contradictions, current or carried in continuity within TTL.
	carried := view.ActiveContradictionCount > 0 && view.ContradictionAge <= r.config.ContradictionTTL
	if len(layer.Contradictions) > 0 || carried {
		add(LevelContradiction, "contradiction", []blocks.Type{blocks.Ambivalence}, true)
	}

	// Level 4: identity injury and agency loss.
	if identityBlocks := identityElement(layer); len(identityBlocks) > 0 {
		add(LevelIdentity, "agency_loss", identityBlocks, layer.HasDynamic(semantic.DynamicAgencyLoss))
		if layer.HasDynamic(semantic.DynamicIdentityEntanglement) {
			add(LevelIdentity, "identity_entanglement", activation.ForDynamic(semantic.DynamicIdentityEntanglement), false)
		}
		if layer.Meta.EmotionalWeight >= activation.HeavyWeightThreshold {
			add(LevelIdentity, "emotional_weight", []blocks.Type{blocks.Validation, blocks.IdentityInjury}, false)
		}
	}

	// Level 5: emotional stance (bracing already landed at level 1).
	if layer.Stance != semantic.StanceBracing {
		add(LevelStance, string(layer.Stance), activation.ForStance(layer.Stance), false)
	}

	// Level 6: conversational moves other than testing_safety.
	for _, m := range layer.Moves {
		if m == semantic.MoveTestingSafety {
			continue
		}
		add(LevelMove, string(m), activation.ForMove(m), false)
	}

	// Level 7: disclosure pacing.
	add(LevelDisclosure, string(layer.Pace), activation.ForPace(layer.Pace), false)

	// Level 8: contextual details.
	for _, n := range layer.Needs {
		if n == semantic.NeedContainment || n == semantic.NeedPacing {
			continue
		}
		add(LevelContext, string(n), activation.ForNeed(n), false)
	}
	for _, d := range layer.Dynamics {
		switch d {
		case semantic.DynamicAgencyLoss, semantic.DynamicDominance, semantic.DynamicIdentityEntanglement:
			// Covered by the level 4 element.
		default:
			add(LevelContext, string(d), activation.ForDynamic(d), false)
		}
	}
	if layer.Meta.IdentitySignalCount >= activation.IdentitySignalMinimum {
		add(LevelContext, "identity_signals", []blocks.Type{blocks.Trust, blocks.Validation}, false)
	}
	if layer.Meta.ReadyToGoDeeper {
		add(LevelContext, "ready_to_go_deeper", []blocks.Type{blocks.GentleDirection}, false)
	}

	return elems
}

// identityElement gathers the level 4 blocks from the identity-injury rows.
func identityElement(layer semantic.Layer) []blocks.Type {
	var out []blocks.Type
	seen := make(map[blocks.Type]bool)
	add := func(types []blocks.Type) {
		for _, t := range types {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	if layer.HasDynamic(semantic.DynamicAgencyLoss) {
		add(activation.ForDynamic(semantic.DynamicAgencyLoss))
	}
	if layer.HasDynamic(semantic.DynamicDominance) {
		add(activation.ForDynamic(semantic.DynamicDominance))
	}
	if layer.HasDynamic(semantic.DynamicIdentityEntanglement) {
		add(activation.ForDynamic(semantic.DynamicIdentityEntanglement))
	}
	if layer.Meta.ImpactWordsPresent {
		add([]blocks.Type{blocks.IdentityInjury})
	}
	if len(out) > 0 && layer.Meta.EmotionalWeight >= activation.HeavyWeightThreshold {
		add([]blocks.Type{blocks.Validation, blocks.IdentityInjury})
	}
	return out
}

// #endregion

// #region suppression

// suppressionSet implements the override walk. An overriding element
// suppresses every block whose activators are all non-overriding and all sit
// at strictly lower priority than the overriding element, unless the
// overriding element activates the block itself. Blocks held by any
// overriding element, at any level, are never suppressed: high-priority
// elements coexist rather than cancel each other.
func suppressionSet(elements []Element) map[blocks.Type]bool {
	suppressed := make(map[blocks.Type]bool)

	all := make(map[blocks.Type]bool)
	for _, e := range elements {
		for _, t := range e.Blocks {
			all[t] = true
		}
	}

	for t := range all {
		minLevel := 0
		protected := false
		for _, e := range elements {
			if !e.activates(t) {
				continue
			}
			if e.OverridesLower {
				protected = true
				break
			}
			if minLevel == 0 || e.Level < minLevel {
				minLevel = e.Level
			}
		}
		if protected {
			continue
		}
		for _, e := range elements {
			if e.OverridesLower && e.Level < minLevel && !e.activates(t) {
				suppressed[t] = true
				break
			}
		}
	}

	return suppressed
}

// #endregion

// #region helpers

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// #endregion
