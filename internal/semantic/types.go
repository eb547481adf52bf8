package semantic

// #region stance

// Stance is the speaker's overall emotional posture for a turn.
type Stance string

const (
	StanceBracing     Stance = "bracing"
	StanceDistancing  Stance = "distancing"
	StanceRevealing   Stance = "revealing"
	StanceAmbivalent  Stance = "ambivalent"
	StanceOverwhelmed Stance = "overwhelmed"
	StanceGrounded    Stance = "grounded"
	StanceSoftening   Stance = "softening"
	StanceDefending   Stance = "defending"
	StanceResigned    Stance = "resigned"
	StanceGuarded     Stance = "guarded"
	StanceNeutral     Stance = "neutral"
)

// #endregion

// #region pace

// Pace is the rate and style at which the speaker exposes private content.
type Pace string

const (
	PaceTestingSafety       Pace = "testing_safety"
	PaceGradualReveal       Pace = "gradual_reveal"
	PaceContextualGrounding Pace = "contextual_grounding"
	PaceEmotionalEmergence  Pace = "emotional_emergence"
	PaceFullDisclosure      Pace = "full_disclosure"
)

// #endregion

// #region moves

// Move is a localized strategic act within a turn.
type Move string

const (
	MoveTestingSafety         Move = "testing_safety"
	MoveNamingExperience      Move = "naming_experience"
	MoveGroundingInFacts      Move = "grounding_in_facts"
	MoveRevealingImpact       Move = "revealing_impact"
	MoveExpressingAmbivalence Move = "expressing_ambivalence"
	MoveSoftening             Move = "softening"
	MoveWithholding           Move = "withholding"
	MoveSeekingValidation     Move = "seeking_validation"
	MoveInvitingResponse      Move = "inviting_response"
)

// #endregion

// #region dynamics

// Dynamic is a power-dynamic reading of the turn.
type Dynamic string

const (
	DynamicAgencyLoss           Dynamic = "agency_loss"
	DynamicDominance            Dynamic = "dominance"
	DynamicReclaimingAgency     Dynamic = "reclaiming_agency"
	DynamicMutualInfluence      Dynamic = "mutual_influence"
	DynamicVulnerability        Dynamic = "vulnerability"
	DynamicIdentityEntanglement Dynamic = "identity_entanglement"
	DynamicBoundarySetting      Dynamic = "boundary_setting"
	DynamicSelfProtection       Dynamic = "self_protection"
)

// #endregion

// #region needs

// Need is an attunement need implied by the turn.
type Need string

const (
	NeedContainment    Need = "containment"
	NeedValidation     Need = "validation"
	NeedPermission     Need = "permission"
	NeedAttunement     Need = "attunement"
	NeedPresence       Need = "presence"
	NeedPacing         Need = "pacing"
	NeedAcknowledgment Need = "acknowledgment"
	NeedMeaningMaking  Need = "meaning_making"
	NeedRestoration    Need = "restoration"
)

// #endregion

// #region contradiction

// Contradiction holds a surface feeling and the underlying feeling it sits on.
type Contradiction struct {
	Surface    string
	Underlying string
	Connector  string
	Tension    float64 // 0..1
}

// #endregion

// #region identity-signals

// IdentitySignals collects identity-bearing fragments found in a turn.
type IdentitySignals struct {
	ExplicitlyNamed    []string
	RelationalLabels   []string
	DurationReferences []string
	RoleChanges        []string
	ComplexityMarkers  []string
}

// Count returns the total number of identity signals across all sets.
func (s IdentitySignals) Count() int {
	return len(s.ExplicitlyNamed) + len(s.RelationalLabels) + len(s.DurationReferences) +
		len(s.RoleChanges) + len(s.ComplexityMarkers)
}

// #endregion

// #region markers

// Markers collects linguistic markers detected in the raw text.
type Markers struct {
	Protective    []string
	Vulnerability []string
	ImpactWords   []string
}

// #endregion

// #region meta

// Meta holds derived per-turn properties.
type Meta struct {
	EmotionalWeight        float64 // 0..1
	TrustIncreaseIndicated bool
	ReadyToGoDeeper        bool
	NeedsPaceSlowing       bool
	ImpactWordsPresent     bool
	IdentitySignalCount    int
}

// #endregion

// #region layer

// Layer is the full semantic interpretation of one utterance.
// Created per turn, immutable once built.
type Layer struct {
	Stance         Stance
	Pace           Pace
	Moves          []Move
	Dynamics       []Dynamic
	Needs          []Need
	Contradictions []Contradiction
	Identity       IdentitySignals
	Markers        Markers
	Meta           Meta
}

// HasMove reports whether the layer contains the given move.
func (l Layer) HasMove(m Move) bool {
	for _, v := range l.Moves {
		if v == m {
			return true
		}
	}
	return false
}

// HasDynamic reports whether the layer contains the given dynamic.
func (l Layer) HasDynamic(d Dynamic) bool {
	for _, v := range l.Dynamics {
		if v == d {
			return true
		}
	}
	return false
}

// #endregion

// #region continuity-view

// ContinuityView is the read-only slice of conversation state the parser and
// resolver are allowed to see. The continuity engine builds it; nothing here
// can mutate the underlying state.
type ContinuityView struct {
	TurnCount                int
	TrustLevel               float64
	LastStance               Stance
	LastPace                 Pace
	ActiveContradictionCount int
	// ContradictionAge is the number of turns since a contradiction was last
	// observed. Zero when one was seen this conversation's latest turn.
	ContradictionAge  int
	KnownIndividuals  []string
	PaceSlowingNeeded bool
	DepthReady        bool
}

// #endregion
