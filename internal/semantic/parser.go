package semantic

import (
	"strings"

	"github.com/halcyon-labs/attune/internal/features"
)

// #region stance-keywords

// Keyword families for the stances reached by tagged words rather than
// structural rules.
var resignedKeywords = []string{
	"whatever", "doesn't matter anymore", "what's the point", "given up", "no use",
}

var overwhelmedKeywords = []string{
	"too much", "can't handle", "drowning", "falling apart", "can't breathe",
}

var guardedKeywords = []string{
	"rather not", "don't want to talk about", "can we not", "forget it",
}

// #endregion

// #region reclaiming-keywords

var reclaimingKeywords = []string{
	"i decided", "i left", "i'm done", "i walked away", "i chose", "i ended it",
}

var validationSeekingKeywords = []string{
	"right?", "does that make sense", "is that normal", "am i crazy",
}

// #endregion

// #region parser

// Parser maps feature records to semantic layers by rule. It never mutates
// the continuity view it is given.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse builds the semantic layer for one utterance. turnIndex is 0-based.
func (p *Parser) Parse(fs features.FeatureSet, turnIndex int, view ContinuityView) Layer {
	lower := strings.ToLower(fs.Raw)

	identity := identitySignals(fs)
	contradictions := contradictions(fs)

	layer := Layer{
		Stance:         stance(fs, lower, identity, turnIndex),
		Moves:          moves(fs, lower),
		Dynamics:       dynamics(fs, lower),
		Needs:          needs(fs),
		Contradictions: contradictions,
		Identity:       identity,
		Markers: Markers{
			Protective:    fs.Protective,
			Vulnerability: fs.Vulnerability,
			ImpactWords:   fs.ImpactWords,
		},
	}
	layer.Pace = pace(fs, turnIndex, identity, view)
	layer.Meta = meta(layer, fs)
	return layer
}

// #endregion

// #region stance

// stance applies the ordered stance rules; first match wins.
func stance(fs features.FeatureSet, lower string, identity IdentitySignals, turnIndex int) Stance {
	switch {
	case len(fs.Bracing) > 0:
		return StanceBracing
	case len(fs.Ambivalence) > 0 ||
		(fs.HasOppositePolarityPair() && strings.Contains(lower, "but")):
		return StanceAmbivalent
	case identity.Count() > 0 && turnIndex > 0:
		return StanceRevealing
	case strings.Contains(lower, "but") && len(fs.Vulnerability) > 0:
		return StanceSoftening
	case len(fs.Protective) > 0 && len(fs.RoleChanges) > 0:
		return StanceDistancing
	case containsAny(lower, resignedKeywords):
		return StanceResigned
	case containsAny(lower, overwhelmedKeywords):
		return StanceOverwhelmed
	case containsAny(lower, guardedKeywords):
		return StanceGuarded
	case fs.WordCount > 0:
		return StanceGrounded
	default:
		return StanceNeutral
	}
}

// #endregion

// #region pace

// pace derives disclosure pace from turn index and content. A slowing flag
// carried in continuity keeps the pace at testing_safety while protective
// language persists.
func pace(fs features.FeatureSet, turnIndex int, identity IdentitySignals, view ContinuityView) Pace {
	strongVulnerability := len(fs.Vulnerability) >= 2
	switch {
	case strongVulnerability && len(fs.Protective) == 0:
		return PaceFullDisclosure
	case turnIndex == 0 && len(fs.Bracing) > 0:
		return PaceTestingSafety
	case turnIndex == 1 && (len(identity.ExplicitlyNamed) > 0 || len(identity.RelationalLabels) > 0 || len(fs.Revealing) > 0):
		return PaceGradualReveal
	case turnIndex == 2 && (len(fs.Durations) > 0 || len(fs.ComplexityMarkers) > 0):
		return PaceContextualGrounding
	case turnIndex >= 3 && len(fs.Vulnerability) > 0:
		return PaceEmotionalEmergence
	case view.PaceSlowingNeeded && len(fs.Protective) > 0:
		return PaceTestingSafety
	default:
		return PaceGradualReveal
	}
}

// #endregion

// #region moves

// moves is the multi-set union of conversational move detections.
func moves(fs features.FeatureSet, lower string) []Move {
	var out []Move
	add := func(m Move) { out = append(out, m) }

	if len(fs.Bracing) > 0 || len(fs.Protective) > 0 {
		add(MoveTestingSafety)
	}
	if len(fs.Signals) > 0 || len(fs.Revealing) > 0 {
		add(MoveNamingExperience)
	}
	if len(fs.Durations) > 0 || len(fs.RelationalLabels) > 0 {
		add(MoveGroundingInFacts)
	}
	if len(fs.ImpactWords) > 0 {
		add(MoveRevealingImpact)
	}
	if len(fs.Ambivalence) > 0 || (fs.HasOppositePolarityPair() && strings.Contains(lower, "but")) {
		add(MoveExpressingAmbivalence)
	}
	if strings.Contains(lower, "but") && len(fs.Vulnerability) > 0 {
		add(MoveSoftening)
	}
	if len(fs.Protective) > 0 && len(fs.Signals) == 0 {
		add(MoveWithholding)
	}
	if containsAny(lower, validationSeekingKeywords) {
		add(MoveSeekingValidation)
	}
	if fs.Ellipsis || strings.Contains(lower, "but i don't know") || strings.Contains(lower, "but i dont know") {
		add(MoveInvitingResponse)
	}
	return out
}

// #endregion

// #region dynamics

func dynamics(fs features.FeatureSet, lower string) []Dynamic {
	var out []Dynamic
	if len(fs.ImpactWords) > 0 {
		out = append(out, DynamicAgencyLoss, DynamicDominance)
	}
	if len(fs.RoleChanges) > 0 && len(fs.RelationalLabels) > 0 {
		out = append(out, DynamicIdentityEntanglement)
	}
	if len(fs.Vulnerability) > 0 {
		out = append(out, DynamicVulnerability)
	}
	if len(fs.Protective) > 0 {
		out = append(out, DynamicSelfProtection)
	}
	if containsAny(lower, reclaimingKeywords) {
		out = append(out, DynamicReclaimingAgency)
	}
	return out
}

// #endregion

// #region needs

func needs(fs features.FeatureSet) []Need {
	var out []Need
	if len(fs.Bracing) > 0 {
		out = append(out, NeedContainment, NeedPacing)
	}
	if len(fs.ImpactWords) > 0 {
		out = append(out, NeedValidation, NeedAcknowledgment)
	}
	if len(fs.Ambivalence) > 0 {
		out = append(out, NeedAttunement, NeedPermission)
	}
	if len(fs.Vulnerability) > 0 {
		out = append(out, NeedPresence)
	}
	if len(fs.ComplexityMarkers) > 0 {
		out = append(out, NeedMeaningMaking)
	}
	if len(fs.RoleChanges) > 0 {
		out = append(out, NeedRestoration)
	}
	return out
}

// #endregion

// #region contradictions

// contradictions pairs a surface feeling with the underlying one. The
// lexical pair comes from opposite-polarity words; an ambivalence pattern
// without lexicon coverage falls back to the pattern's own poles.
func contradictions(fs features.FeatureSet) []Contradiction {
	var out []Contradiction
	if fs.HasOppositePolarityPair() {
		tension := 0.5
		if len(fs.ImpactWords) > 0 {
			tension = 0.7
		}
		out = append(out, Contradiction{
			Surface:    fs.PositiveWords[0],
			Underlying: fs.NegativeWords[0],
			Connector:  "but",
			Tension:    tension,
		})
	} else if len(fs.Ambivalence) > 0 {
		out = append(out, Contradiction{
			Surface:    "relief",
			Underlying: "doubt",
			Connector:  "but",
			Tension:    0.5,
		})
	}
	return out
}

// #endregion

// #region identity

func identitySignals(fs features.FeatureSet) IdentitySignals {
	sig := IdentitySignals{
		RelationalLabels:   fs.RelationalLabels,
		DurationReferences: fs.Durations,
		RoleChanges:        fs.RoleChanges,
		ComplexityMarkers:  fs.ComplexityMarkers,
	}
	sig.ExplicitlyNamed = append(sig.ExplicitlyNamed, fs.CandidateNames...)
	if fs.NamingIntent != "" {
		sig.ExplicitlyNamed = append(sig.ExplicitlyNamed, fs.NamingIntent)
	}
	return sig
}

// #endregion

// #region meta

// meta computes the derived properties. The emotional weight formula is
// fixed: 0.15 per impact word, 0.2 per contradiction, 0.1 per vulnerability
// marker, 0.1 per duration reference, 0.3 for an ambivalent stance, capped
// at 1.0.
func meta(layer Layer, fs features.FeatureSet) Meta {
	weight := 0.15*float64(len(fs.ImpactWords)) +
		0.2*float64(len(layer.Contradictions)) +
		0.1*float64(len(fs.Vulnerability)) +
		0.1*float64(len(fs.Durations))
	if layer.Stance == StanceAmbivalent {
		weight += 0.3
	}
	if weight > 1.0 {
		weight = 1.0
	}

	return Meta{
		EmotionalWeight: weight,
		TrustIncreaseIndicated: len(layer.Identity.ExplicitlyNamed) > 0 ||
			layer.Stance == StanceRevealing || layer.Stance == StanceSoftening,
		ReadyToGoDeeper: layer.Stance == StanceSoftening ||
			layer.HasMove(MoveInvitingResponse) || len(fs.Vulnerability) > 0,
		NeedsPaceSlowing: layer.Pace == PaceTestingSafety ||
			len(fs.Protective) > 0 || layer.Stance == StanceBracing,
		ImpactWordsPresent:  len(fs.ImpactWords) > 0,
		IdentitySignalCount: layer.Identity.Count(),
	}
}

// #endregion

// #region helpers

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// #endregion
