// Package continuity owns the per-conversation state carried across turns.
// The engine is the sole mutator; the parser and resolver see read-only
// views.
package continuity

import (
	"github.com/halcyon-labs/attune/internal/semantic"
)

// #region config

// Config holds the continuity parameters.
type Config struct {
	TrustStart float64
	TrustStep  float64
	TrustCap   float64
}

// DefaultConfig returns the continuity defaults.
func DefaultConfig() Config {
	return Config{TrustStart: 0.5, TrustStep: 0.15, TrustCap: 1.0}
}

// #endregion

// #region state

// TrackedContradiction is a contradiction carried forward until the
// conversation ends, tagged with the turn it was last observed.
type TrackedContradiction struct {
	semantic.Contradiction
	LastSeenTurn int
}

// AgencyEvent records an agency loss or reclamation at a turn.
type AgencyEvent struct {
	Turn    int
	Dynamic semantic.Dynamic
}

// State is the full per-conversation record. One linear timeline, no
// branching, no rollback.
type State struct {
	ConversationID string
	TurnCount      int

	StanceArc     []semantic.Stance
	PaceArc       []semantic.Pace
	TrustArc      []float64
	SafetyArc     []float64
	AttunementArc []float64

	// Grow-only accumulated sets.
	Individuals     []string
	DurationMarkers []string
	IdentityMarkers []string

	ActiveContradictions []TrackedContradiction
	AgencyEvents         []AgencyEvent

	PaceSlowingNeededAt []int
	DepthReadyAt        []int
}

// clone returns a deep copy of the state.
func (s *State) clone() *State {
	c := *s
	c.StanceArc = append([]semantic.Stance(nil), s.StanceArc...)
	c.PaceArc = append([]semantic.Pace(nil), s.PaceArc...)
	c.TrustArc = append([]float64(nil), s.TrustArc...)
	c.SafetyArc = append([]float64(nil), s.SafetyArc...)
	c.AttunementArc = append([]float64(nil), s.AttunementArc...)
	c.Individuals = append([]string(nil), s.Individuals...)
	c.DurationMarkers = append([]string(nil), s.DurationMarkers...)
	c.IdentityMarkers = append([]string(nil), s.IdentityMarkers...)
	c.ActiveContradictions = append([]TrackedContradiction(nil), s.ActiveContradictions...)
	c.AgencyEvents = append([]AgencyEvent(nil), s.AgencyEvents...)
	c.PaceSlowingNeededAt = append([]int(nil), s.PaceSlowingNeededAt...)
	c.DepthReadyAt = append([]int(nil), s.DepthReadyAt...)
	return &c
}

// #endregion

// #region engine

// Engine owns a conversation's state and exposes the two per-turn writes.
type Engine struct {
	state  *State
	config Config
}

// NewEngine creates an engine with fresh state for a conversation.
func NewEngine(conversationID string, config Config) *Engine {
	return &Engine{
		state:  &State{ConversationID: conversationID},
		config: config,
	}
}

// NewEngineFromState resumes an engine from a restored state.
func NewEngineFromState(state *State, config Config) *Engine {
	return &Engine{state: state, config: config}
}

// State returns a deep copy of the current state, for archiving.
func (e *Engine) State() *State {
	return e.state.clone()
}

// Snapshot captures the state so a cancelled turn can be rolled back.
func (e *Engine) Snapshot() *State {
	return e.state.clone()
}

// Restore replaces the state with a previously taken snapshot.
func (e *Engine) Restore(snap *State) {
	e.state = snap.clone()
}

// #endregion

// #region writes

// ObserveLayer is write one of two: fold a turn's semantic layer into the
// state. turnIndex is the 0-based index of the observed turn.
func (e *Engine) ObserveLayer(turnIndex int, layer semantic.Layer) {
	s := e.state
	s.TurnCount++
	s.StanceArc = append(s.StanceArc, layer.Stance)
	s.PaceArc = append(s.PaceArc, layer.Pace)

	trust := e.config.TrustStart
	if len(s.TrustArc) > 0 {
		trust = s.TrustArc[len(s.TrustArc)-1]
	}
	if layer.Meta.TrustIncreaseIndicated {
		trust += e.config.TrustStep
		if trust > e.config.TrustCap {
			trust = e.config.TrustCap
		}
	}
	s.TrustArc = append(s.TrustArc, trust)

	for _, n := range layer.Identity.ExplicitlyNamed {
		s.Individuals = growOnly(s.Individuals, n)
	}
	for _, d := range layer.Identity.DurationReferences {
		s.DurationMarkers = growOnly(s.DurationMarkers, d)
	}
	for _, m := range layer.Identity.RelationalLabels {
		s.IdentityMarkers = growOnly(s.IdentityMarkers, m)
	}
	for _, m := range layer.Identity.RoleChanges {
		s.IdentityMarkers = growOnly(s.IdentityMarkers, m)
	}

	for _, c := range layer.Contradictions {
		e.trackContradiction(c, turnIndex)
	}

	for _, d := range layer.Dynamics {
		switch d {
		case semantic.DynamicAgencyLoss, semantic.DynamicReclaimingAgency:
			s.AgencyEvents = append(s.AgencyEvents, AgencyEvent{Turn: turnIndex, Dynamic: d})
		}
	}

	if layer.Meta.NeedsPaceSlowing {
		s.PaceSlowingNeededAt = append(s.PaceSlowingNeededAt, turnIndex)
	}
	if layer.Meta.ReadyToGoDeeper {
		s.DepthReadyAt = append(s.DepthReadyAt, turnIndex)
	}
}

// RecordQuality is write two of two: append the delivered response quality.
func (e *Engine) RecordQuality(safety, attunement float64) {
	e.state.SafetyArc = append(e.state.SafetyArc, safety)
	e.state.AttunementArc = append(e.state.AttunementArc, attunement)
}

// trackContradiction updates an existing tracked pair or appends a new one.
func (e *Engine) trackContradiction(c semantic.Contradiction, turnIndex int) {
	for i, tc := range e.state.ActiveContradictions {
		if tc.Surface == c.Surface && tc.Underlying == c.Underlying {
			e.state.ActiveContradictions[i].LastSeenTurn = turnIndex
			if c.Tension > tc.Tension {
				e.state.ActiveContradictions[i].Tension = c.Tension
			}
			return
		}
	}
	e.state.ActiveContradictions = append(e.state.ActiveContradictions, TrackedContradiction{
		Contradiction: c,
		LastSeenTurn:  turnIndex,
	})
}

// #endregion

// #region reads

// TrustLevel returns the current trust level (the configured start before
// any turn was observed).
func (e *Engine) TrustLevel() float64 {
	if len(e.state.TrustArc) == 0 {
		return e.config.TrustStart
	}
	return e.state.TrustArc[len(e.state.TrustArc)-1]
}

// AverageSafety returns the mean delivered safety level.
func (e *Engine) AverageSafety() float64 {
	return mean(e.state.SafetyArc)
}

// AverageAttunement returns the mean delivered attunement level.
func (e *Engine) AverageAttunement() float64 {
	return mean(e.state.AttunementArc)
}

// View builds the read-only slice of state the parser and resolver consume.
func (e *Engine) View() semantic.ContinuityView {
	s := e.state
	v := semantic.ContinuityView{
		TurnCount:                s.TurnCount,
		TrustLevel:               e.TrustLevel(),
		ActiveContradictionCount: len(s.ActiveContradictions),
		KnownIndividuals:         append([]string(nil), s.Individuals...),
	}
	if len(s.StanceArc) > 0 {
		v.LastStance = s.StanceArc[len(s.StanceArc)-1]
	}
	if len(s.PaceArc) > 0 {
		v.LastPace = s.PaceArc[len(s.PaceArc)-1]
	}
	if len(s.ActiveContradictions) > 0 {
		latest := 0
		for _, tc := range s.ActiveContradictions {
			if tc.LastSeenTurn > latest {
				latest = tc.LastSeenTurn
			}
		}
		age := s.TurnCount - 1 - latest
		if age < 0 {
			age = 0
		}
		v.ContradictionAge = age
	}
	if n := len(s.PaceSlowingNeededAt); n > 0 && s.PaceSlowingNeededAt[n-1] == s.TurnCount-1 {
		v.PaceSlowingNeeded = true
	}
	if n := len(s.DepthReadyAt); n > 0 && s.DepthReadyAt[n-1] == s.TurnCount-1 {
		v.DepthReady = true
	}
	return v
}

// #endregion

// #region helpers

func growOnly(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func mean(list []float64) float64 {
	if len(list) == 0 {
		return 0
	}
	var sum float64
	for _, v := range list {
		sum += v
	}
	return sum / float64(len(list))
}

// #endregion
