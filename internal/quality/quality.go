// Package quality computes flags over a composed response. Flags only; the
// validator never mutates the response, and retry policy belongs to the
// caller.
package quality

import (
	"regexp"

	"github.com/halcyon-labs/attune/internal/blocks"
)

// #region forbidden

// forbiddenPatterns is the closed set of advice, interrogation, and analysis
// phrasings the composer must never produce.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhave you considered\b`),
	regexp.MustCompile(`(?i)\byou should\b`),
	regexp.MustCompile(`(?i)\bwhy did you\b`),
	regexp.MustCompile(`(?i)\blet me analyze\b`),
	regexp.MustCompile(`(?i)\byou need to\b`),
	regexp.MustCompile(`(?i)\bthe solution\b`),
	regexp.MustCompile(`(?i)\bwhat you should do\b`),
	regexp.MustCompile(`(?i)\bmy advice\b`),
	regexp.MustCompile(`(?i)\bif i were you\b`),
}

// ContainsForbidden reports whether text matches any forbidden pattern.
func ContainsForbidden(text string) bool {
	for _, re := range forbiddenPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// #endregion

// #region input-report

// Input carries what the validator needs to score a composed response.
type Input struct {
	Text       string
	BlocksUsed []blocks.Type
	// SafetyRequired marks turns where the absence of containment is itself
	// a failure (pace slowing or bracing was detected).
	SafetyRequired bool
	// SlowPaceRequired marks turns where the required pace is slow or
	// testing.
	SlowPaceRequired bool
}

// Check is one named validation metric, in the pass/fail-with-value shape.
type Check struct {
	Name  string
	Value float64
	Pass  bool
}

// Report is the validator's output for one response.
type Report struct {
	SafetyLevel              float64
	AttunementLevel          float64
	PacingAppropriate        bool
	ContainsForbiddenContent bool
	Checks                   []Check
}

// #endregion

// #region validate

// attunementTypes are the block types that count toward attunement.
var attunementTypes = map[blocks.Type]bool{
	blocks.Validation:     true,
	blocks.Acknowledgment: true,
	blocks.Ambivalence:    true,
	blocks.IdentityInjury: true,
}

// Validate computes all flags over the composed response.
func Validate(in Input) Report {
	has := make(map[blocks.Type]bool)
	for _, t := range in.BlocksUsed {
		has[t] = true
	}

	safety := 0.4
	if has[blocks.Containment] {
		safety = 0.7
		if has[blocks.Pacing] {
			safety += 0.2
		}
	}
	if in.SafetyRequired && !has[blocks.Containment] {
		safety = 0.3
	}

	attunement := 0.2
	for t := range attunementTypes {
		if has[t] {
			attunement += 0.2
		}
	}
	if attunement > 1.0 {
		attunement = 1.0
	}

	pacingOK := true
	if in.SlowPaceRequired {
		pacingOK = has[blocks.Pacing] && !has[blocks.GentleDirection]
	}

	forbidden := ContainsForbidden(in.Text)

	rep := Report{
		SafetyLevel:              safety,
		AttunementLevel:          attunement,
		PacingAppropriate:        pacingOK,
		ContainsForbiddenContent: forbidden,
	}
	rep.Checks = []Check{
		{Name: "safety_level", Value: safety, Pass: safety >= 0.4},
		{Name: "attunement_level", Value: attunement, Pass: attunement >= 0.4},
		{Name: "pacing_appropriate", Value: boolValue(pacingOK), Pass: pacingOK},
		{Name: "forbidden_content", Value: boolValue(forbidden), Pass: !forbidden},
	}
	return rep
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion
