package quality

import (
	"math"
	"testing"

	"github.com/halcyon-labs/attune/internal/blocks"
)

func TestSafetyLevels(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want float64
	}{
		{"baseline", Input{BlocksUsed: []blocks.Type{blocks.Acknowledgment}}, 0.4},
		{"containment", Input{BlocksUsed: []blocks.Type{blocks.Containment}}, 0.7},
		{"containment and pacing", Input{BlocksUsed: []blocks.Type{blocks.Containment, blocks.Pacing}}, 0.9},
		{"safety required but missing", Input{SafetyRequired: true, BlocksUsed: []blocks.Type{blocks.Validation}}, 0.3},
		{"safety required and present", Input{SafetyRequired: true, BlocksUsed: []blocks.Type{blocks.Containment, blocks.Pacing}}, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := Validate(tc.in)
			if math.Abs(rep.SafetyLevel-tc.want) > 1e-9 {
				t.Fatalf("safety = %.2f, want %.2f", rep.SafetyLevel, tc.want)
			}
		})
	}
}

func TestAttunementCountsDistinctTypes(t *testing.T) {
	rep := Validate(Input{BlocksUsed: []blocks.Type{
		blocks.Ambivalence, blocks.IdentityInjury, blocks.Validation,
	}})
	if math.Abs(rep.AttunementLevel-0.8) > 1e-9 {
		t.Fatalf("attunement = %.2f, want 0.8", rep.AttunementLevel)
	}

	// Containment and trust do not count toward attunement.
	rep = Validate(Input{BlocksUsed: []blocks.Type{blocks.Containment, blocks.Trust}})
	if math.Abs(rep.AttunementLevel-0.2) > 1e-9 {
		t.Fatalf("attunement = %.2f, want baseline 0.2", rep.AttunementLevel)
	}

	// All four attunement types cap at 1.0.
	rep = Validate(Input{BlocksUsed: []blocks.Type{
		blocks.Ambivalence, blocks.IdentityInjury, blocks.Validation, blocks.Acknowledgment,
	}})
	if rep.AttunementLevel != 1.0 {
		t.Fatalf("attunement = %.2f, want capped 1.0", rep.AttunementLevel)
	}
}

func TestPacingAppropriateness(t *testing.T) {
	rep := Validate(Input{SlowPaceRequired: true, BlocksUsed: []blocks.Type{blocks.Pacing}})
	if !rep.PacingAppropriate {
		t.Fatal("pacing present with slow pace required must pass")
	}

	rep = Validate(Input{SlowPaceRequired: true, BlocksUsed: []blocks.Type{blocks.Validation}})
	if rep.PacingAppropriate {
		t.Fatal("missing pacing with slow pace required must fail")
	}

	rep = Validate(Input{SlowPaceRequired: true, BlocksUsed: []blocks.Type{blocks.Pacing, blocks.GentleDirection}})
	if rep.PacingAppropriate {
		t.Fatal("gentle direction alongside a slow pace must fail")
	}

	rep = Validate(Input{SlowPaceRequired: false, BlocksUsed: nil})
	if !rep.PacingAppropriate {
		t.Fatal("pacing is unconstrained when no slow pace is required")
	}
}

func TestForbiddenContent(t *testing.T) {
	forbidden := []string{
		"Have you considered therapy?",
		"you should really move on",
		"Why did you stay so long?",
		"Let me analyze what happened here.",
		"The solution is to set boundaries.",
		"If I were you, I'd leave.",
	}
	for _, text := range forbidden {
		if !ContainsForbidden(text) {
			t.Errorf("expected forbidden: %q", text)
		}
	}

	allowed := []string{
		"It makes sense that this weighs on you.",
		"I'm right here with you, and there's no rush.",
		"Both of those things can be true at once.",
		"You shouldered so much of this alone.", // "you should" must stay word-bounded
	}
	for _, text := range allowed {
		if ContainsForbidden(text) {
			t.Errorf("false positive: %q", text)
		}
	}
}

func TestChecksMirrorFlags(t *testing.T) {
	rep := Validate(Input{
		Text:           "you should try harder",
		SafetyRequired: true,
		BlocksUsed:     []blocks.Type{blocks.Validation},
	})

	byName := map[string]Check{}
	for _, c := range rep.Checks {
		byName[c.Name] = c
	}
	if byName["safety_level"].Pass {
		t.Fatal("safety check must fail at 0.3")
	}
	if !byName["attunement_level"].Pass {
		t.Fatal("attunement check must pass at 0.4")
	}
	if byName["forbidden_content"].Pass {
		t.Fatal("forbidden check must fail")
	}
	if !rep.ContainsForbiddenContent {
		t.Fatal("report flag must mirror the check")
	}
}
