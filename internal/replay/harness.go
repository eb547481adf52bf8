// Package replay re-runs recorded conversations through the full pipeline
// in memory and checks each turn against the fixture's expectations. It is
// the regression harness: if classification, activation, or composition
// parameters change, mismatches surface here first.
package replay

import (
	"fmt"

	"github.com/halcyon-labs/attune/internal/blocks"
	"github.com/halcyon-labs/attune/internal/pipeline"
)

// #region types

// Mismatch is one expectation the replayed turn failed to meet.
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

// Result captures the outcome of replaying one turn.
type Result struct {
	TurnID     string
	Source     string
	Stance     string
	Pace       string
	BlocksUsed []string
	Response   string
	Safety     float64
	Attunement float64
	Mismatches []Mismatch
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalTurns  int
	Matched     int
	Mismatched  int
	RoutedTurns int
	FinalTrust  float64
}

// #endregion types

// #region replay

// Replay runs every fixture turn through a fresh pipeline built from the
// fixture's seed and sanctuary flag. Operates entirely in memory.
func Replay(f *Fixture) ([]Result, Summary, error) {
	config := pipeline.DefaultConfig()
	config.Seed = f.Seed
	config.SanctuaryMode = f.SanctuaryMode

	p, err := pipeline.New(config, nil, nil, nil, nil)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("build pipeline: %w", err)
	}

	results := make([]Result, 0, len(f.Turns))
	summary := Summary{TotalTurns: len(f.Turns)}

	for _, turn := range f.Turns {
		pr := p.ParseInput(f.ConversationID, turn.Text)

		r := Result{
			TurnID:     turn.TurnID,
			Source:     pr.ResponseSource,
			Stance:     string(pr.Debug.Stance),
			Pace:       string(pr.Debug.Pace),
			BlocksUsed: typeNames(pr.Debug.BlocksUsed),
			Response:   pr.Response,
			Safety:     pr.Learning.Safety,
			Attunement: pr.Learning.Attunement,
		}
		r.Mismatches = check(turn, r)

		if r.Source != "dynamic_composer" {
			summary.RoutedTurns++
		}
		if len(r.Mismatches) == 0 {
			summary.Matched++
		} else {
			summary.Mismatched++
		}
		results = append(results, r)
	}

	summary.FinalTrust = p.Session(f.ConversationID).TrustLevel()
	return results, summary, nil
}

// check compares one replayed turn against its fixture expectations.
func check(turn FixtureTurn, r Result) []Mismatch {
	var out []Mismatch
	if turn.ExpectSource != "" && r.Source != turn.ExpectSource {
		out = append(out, Mismatch{Field: "source", Want: turn.ExpectSource, Got: r.Source})
	}
	if turn.ExpectStance != "" && r.Stance != turn.ExpectStance {
		out = append(out, Mismatch{Field: "stance", Want: turn.ExpectStance, Got: r.Stance})
	}
	if turn.ExpectPace != "" && r.Pace != turn.ExpectPace {
		out = append(out, Mismatch{Field: "pace", Want: turn.ExpectPace, Got: r.Pace})
	}
	if turn.ExpectBlocks != nil && !equalStrings(r.BlocksUsed, turn.ExpectBlocks) {
		out = append(out, Mismatch{
			Field: "blocks",
			Want:  fmt.Sprintf("%v", turn.ExpectBlocks),
			Got:   fmt.Sprintf("%v", r.BlocksUsed),
		})
	}
	return out
}

// #endregion replay

// #region helpers

func typeNames(types []blocks.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// #endregion helpers
