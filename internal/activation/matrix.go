// Package activation is the deterministic table from semantic attributes to
// block types. For fixed inputs the output set is fixed; ComputeFull is the
// union of the per-dimension lookups.
package activation

import (
	"github.com/halcyon-labs/attune/internal/blocks"
	"github.com/halcyon-labs/attune/internal/semantic"
)

// #region thresholds

// Meta thresholds used by the matrix rows below.
const (
	HeavyWeightThreshold  = 0.7
	IdentitySignalMinimum = 3
)

// #endregion

// #region stance-table

var stanceTable = map[semantic.Stance][]blocks.Type{
	semantic.StanceBracing:     {blocks.Containment, blocks.Pacing},
	semantic.StanceRevealing:   {blocks.Acknowledgment, blocks.Validation, blocks.Trust},
	semantic.StanceAmbivalent:  {blocks.Ambivalence, blocks.Acknowledgment},
	semantic.StanceOverwhelmed: {blocks.Containment, blocks.Pacing},
	semantic.StanceSoftening:   {blocks.Trust, blocks.Acknowledgment},
	semantic.StanceDistancing:  {blocks.Pacing},
	semantic.StanceDefending:   {blocks.Acknowledgment},
	semantic.StanceResigned:    {blocks.Validation, blocks.Acknowledgment},
	semantic.StanceGuarded:     {blocks.Pacing},
	semantic.StanceGrounded:    {blocks.Acknowledgment},
	semantic.StanceNeutral:     nil,
}

// ForStance returns the block types a stance activates.
func ForStance(s semantic.Stance) []blocks.Type {
	return stanceTable[s]
}

// #endregion

// #region pace-table

var paceTable = map[semantic.Pace][]blocks.Type{
	semantic.PaceTestingSafety:       {blocks.Containment, blocks.Pacing},
	semantic.PaceGradualReveal:       {blocks.Acknowledgment},
	semantic.PaceContextualGrounding: {blocks.Acknowledgment, blocks.Trust},
	semantic.PaceEmotionalEmergence:  {blocks.Validation, blocks.Ambivalence},
	semantic.PaceFullDisclosure:      {blocks.Validation, blocks.Containment},
}

// ForPace returns the block types a disclosure pace activates.
func ForPace(p semantic.Pace) []blocks.Type {
	return paceTable[p]
}

// #endregion

// #region move-table

var moveTable = map[semantic.Move][]blocks.Type{
	semantic.MoveTestingSafety:         {blocks.Containment, blocks.Pacing},
	semantic.MoveNamingExperience:      {blocks.Acknowledgment},
	semantic.MoveGroundingInFacts:      {blocks.Acknowledgment},
	semantic.MoveRevealingImpact:       {blocks.Validation},
	semantic.MoveExpressingAmbivalence: {blocks.Ambivalence},
	semantic.MoveSoftening:             {blocks.Trust},
	semantic.MoveWithholding:           {blocks.Pacing},
	semantic.MoveSeekingValidation:     {blocks.Validation},
	semantic.MoveInvitingResponse:      {blocks.GentleDirection},
}

// ForMove returns the block types a conversational move activates.
func ForMove(m semantic.Move) []blocks.Type {
	return moveTable[m]
}

// #endregion

// #region dynamic-table

var dynamicTable = map[semantic.Dynamic][]blocks.Type{
	semantic.DynamicAgencyLoss:           {blocks.IdentityInjury},
	semantic.DynamicDominance:            {blocks.IdentityInjury},
	semantic.DynamicReclaimingAgency:     {blocks.Acknowledgment, blocks.Trust},
	semantic.DynamicMutualInfluence:      nil,
	semantic.DynamicVulnerability:        {blocks.Validation},
	semantic.DynamicIdentityEntanglement: {blocks.Validation, blocks.IdentityInjury},
	semantic.DynamicBoundarySetting:      {blocks.Acknowledgment},
	semantic.DynamicSelfProtection:       {blocks.Pacing},
}

// ForDynamic returns the block types a power dynamic activates.
func ForDynamic(d semantic.Dynamic) []blocks.Type {
	return dynamicTable[d]
}

// #endregion

// #region need-table

var needTable = map[semantic.Need][]blocks.Type{
	semantic.NeedContainment:    {blocks.Containment},
	semantic.NeedValidation:     {blocks.Validation},
	semantic.NeedPermission:     {blocks.Acknowledgment},
	semantic.NeedAttunement:     {blocks.Validation},
	semantic.NeedPresence:       {blocks.Containment},
	semantic.NeedPacing:         {blocks.Pacing},
	semantic.NeedAcknowledgment: {blocks.Acknowledgment},
	semantic.NeedMeaningMaking:  {blocks.GentleDirection},
	semantic.NeedRestoration:    {blocks.Validation},
}

// ForNeed returns the block types an implied need activates.
func ForNeed(n semantic.Need) []blocks.Type {
	return needTable[n]
}

// #endregion

// #region meta-rows

// ForMeta returns the activations driven by derived meta properties and
// contradictions.
func ForMeta(layer semantic.Layer) []blocks.Type {
	var out []blocks.Type
	if len(layer.Contradictions) > 0 {
		out = append(out, blocks.Ambivalence)
	}
	if layer.Meta.ImpactWordsPresent {
		out = append(out, blocks.IdentityInjury)
	}
	if layer.Meta.EmotionalWeight >= HeavyWeightThreshold {
		out = append(out, blocks.Validation, blocks.IdentityInjury)
	}
	if layer.Meta.IdentitySignalCount >= IdentitySignalMinimum {
		out = append(out, blocks.Trust, blocks.Validation)
	}
	if layer.Meta.ReadyToGoDeeper {
		out = append(out, blocks.GentleDirection)
	}
	return out
}

// #endregion

// #region full

// Set is a set of activated block types.
type Set map[blocks.Type]bool

// Types returns the set's members in the fixed emission order.
func (s Set) Types() []blocks.Type {
	var out []blocks.Type
	for _, t := range blocks.EmissionOrder {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

// ComputeFull returns the union of per-dimension activations for the layer.
func ComputeFull(layer semantic.Layer) Set {
	set := make(Set)
	add := func(types []blocks.Type) {
		for _, t := range types {
			set[t] = true
		}
	}
	add(ForStance(layer.Stance))
	add(ForPace(layer.Pace))
	for _, m := range layer.Moves {
		add(ForMove(m))
	}
	for _, d := range layer.Dynamics {
		add(ForDynamic(d))
	}
	for _, n := range layer.Needs {
		add(ForNeed(n))
	}
	add(ForMeta(layer))
	return set
}

// #endregion
