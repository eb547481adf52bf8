// Package pipeline wires the full per-turn flow: routing, feature
// extraction, semantic parsing, activation, priority resolution, block
// composition, quality validation, and continuity commit. One Pipeline
// serves many conversations; each conversation carries its own continuity
// engine and context.
package pipeline

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/halcyon-labs/attune/internal/activation"
	"github.com/halcyon-labs/attune/internal/blocks"
	"github.com/halcyon-labs/attune/internal/continuity"
	"github.com/halcyon-labs/attune/internal/extern"
	"github.com/halcyon-labs/attune/internal/features"
	"github.com/halcyon-labs/attune/internal/priority"
	"github.com/halcyon-labs/attune/internal/quality"
	"github.com/halcyon-labs/attune/internal/router"
	"github.com/halcyon-labs/attune/internal/semantic"
)

// #region config

// Config holds the knobs for a pipeline instance.
type Config struct {
	// SanctuaryMode forces the compassionate wrapper on every composed
	// response, regardless of input sensitivity.
	SanctuaryMode bool `yaml:"sanctuary_mode"`
	// Seed drives the router's deterministic reply rotation.
	Seed int64 `yaml:"seed"`
	// CatalogPath is an optional YAML block catalog; empty uses the
	// built-in catalog.
	CatalogPath string `yaml:"catalog_path"`
	// LexiconPath is an optional word-emotion lexicon file; empty uses the
	// built-in vocabulary.
	LexiconPath string `yaml:"lexicon_path"`

	Fuzzy    router.FuzzyPolicy    `yaml:"fuzzy"`
	Priority priority.Config       `yaml:"priority"`
	Composer blocks.ComposerConfig `yaml:"composer"`
	Trust    continuity.Config     `yaml:"trust"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Seed:     1,
		Fuzzy:    router.DefaultFuzzyPolicy(),
		Priority: priority.DefaultConfig(),
		Composer: blocks.DefaultComposerConfig(),
		Trust:    continuity.DefaultConfig(),
	}
}

// #endregion

// #region result

// Debug carries the per-turn internals for inspection and replay assertions.
type Debug struct {
	Stance              semantic.Stance
	Pace                semantic.Pace
	Moves               []semantic.Move
	Dynamics            []semantic.Dynamic
	Needs               []semantic.Need
	Contradictions      int
	EmotionalWeight     float64
	DominantVoltage     string
	BlocksUsed          []blocks.Type
	Suppressed          []blocks.Type
	Dropped             []blocks.Type
	TooEarly            bool
	EarlyIdentityInjury bool
	SanctuaryWrapped    bool
}

// Learning summarizes the continuity deltas committed for the turn.
type Learning struct {
	TurnCount  int
	TrustLevel float64
	Safety     float64
	Attunement float64
}

// ParseResult is the pipeline's full output for one user utterance.
// VoltageResponse carries the reply text on every path, routed or composed;
// Response is the same text under its plain name.
type ParseResult struct {
	Input           string
	Signals         []features.Signal
	Gates           []string
	Glyphs          []extern.Glyph
	BestGlyph       string
	VoltageResponse string
	Feedback        string
	ResponseSource  string
	Response        string
	AssignedName    string
	Debug           Debug
	Learning        Learning
}

// #endregion

// #region session

// session is the per-conversation mutable state the pipeline owns.
type session struct {
	engine        *continuity.Engine
	convCtx       map[string]string
	prevAssistant string
}

// #endregion

// #region pipeline

// Pipeline is the assembled per-turn processor.
type Pipeline struct {
	config    Config
	extractor *features.Extractor
	parser    *semantic.Parser
	resolver  *priority.Resolver
	composer  *blocks.Composer
	router    *router.Router
	glyphs    extern.GlyphStore
	safety    extern.SafetyWrapper

	mu       sync.Mutex
	sessions map[string]*session
}

// New assembles a pipeline from config. Collaborators that are nil fall
// back to the built-in implementations.
func New(config Config, lexicon features.Lexicon, glyphs extern.GlyphStore, safety extern.SafetyWrapper, crisis router.Crisis) (*Pipeline, error) {
	if lexicon == nil {
		if config.LexiconPath != "" {
			loaded, err := extern.LoadLexicon(config.LexiconPath)
			if err != nil {
				return nil, fmt.Errorf("load lexicon: %w", err)
			}
			lexicon = loaded
		} else {
			lexicon = extern.BuiltinLexicon()
		}
	}
	if glyphs == nil {
		glyphs = extern.NewStaticGlyphStore()
	}
	if safety == nil {
		safety = extern.CompassionWrapper{}
	}

	catalog := blocks.DefaultCatalog()
	if config.CatalogPath != "" {
		loaded, err := blocks.LoadCatalog(config.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		catalog = loaded
	}

	return &Pipeline{
		config:    config,
		extractor: features.NewExtractor(lexicon, extern.HeuristicPOS{}),
		parser:    semantic.NewParser(),
		resolver:  priority.NewResolver(config.Priority),
		composer:  blocks.NewComposer(catalog, config.Composer),
		router:    router.NewRouter(crisis, config.Fuzzy, config.Seed),
		glyphs:    glyphs,
		safety:    safety,
		sessions:  make(map[string]*session),
	}, nil
}

// Session returns the conversation's continuity engine, creating it on
// first use.
func (p *Pipeline) Session(conversationID string) *continuity.Engine {
	return p.session(conversationID).engine
}

func (p *Pipeline) session(conversationID string) *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[conversationID]
	if !ok {
		s = &session{
			engine:  continuity.NewEngine(conversationID, p.config.Trust),
			convCtx: make(map[string]string),
		}
		p.sessions[conversationID] = s
	}
	return s
}

// RestoreSession installs a previously archived continuity state for the
// conversation.
func (p *Pipeline) RestoreSession(conversationID string, state *continuity.State) {
	s := p.session(conversationID)
	s.engine = continuity.NewEngineFromState(state, p.config.Trust)
}

// #endregion

// #region parse-input

// ParseInput runs one user utterance through the full flow and returns the
// response with all per-turn internals. Router-handled turns bypass the
// composer and leave continuity untouched.
func (p *Pipeline) ParseInput(conversationID, text string) ParseResult {
	s := p.session(conversationID)

	decision := p.router.Route(text, conversationID, s.prevAssistant, s.convCtx)
	if decision.Handled {
		s.prevAssistant = decision.Response
		log.Printf("[TURN] conv=%s source=%s routed", conversationID, decision.Source)
		return ParseResult{
			Input:           text,
			VoltageResponse: decision.Response,
			ResponseSource:  decision.Source,
			Response:        decision.Response,
			AssignedName:    decision.AssignedName,
			Feedback:        "routed",
		}
	}

	turnIndex := s.engine.View().TurnCount
	fs := p.extractor.Extract(text)
	view := s.engine.View()
	layer := p.parser.Parse(fs, turnIndex, view)

	resolution := p.resolver.Resolve(layer, view, turnIndex)
	requests := make([]blocks.Request, len(resolution.Ordered))
	for i, a := range resolution.Ordered {
		requests[i] = blocks.Request{Type: a.Type, Triggers: a.Triggers}
	}
	composition := p.composer.Compose(requests, text)

	response := composition.Text
	wrapped := false
	if p.config.SanctuaryMode || p.safety.IsSensitive(text) {
		response = p.safety.Wrap(text, response, dominantTone(fs.Signals))
		wrapped = true
	}

	report := quality.Validate(quality.Input{
		Text:             response,
		BlocksUsed:       composition.BlocksUsed(),
		SafetyRequired:   layer.Stance == semantic.StanceBracing || layer.Meta.NeedsPaceSlowing,
		SlowPaceRequired: layer.Pace == semantic.PaceTestingSafety || layer.Meta.NeedsPaceSlowing,
	})

	s.engine.ObserveLayer(turnIndex, layer)
	s.engine.RecordQuality(report.SafetyLevel, report.AttunementLevel)
	s.prevAssistant = response

	gates := extern.GatesForSignals(fs.Signals)
	glyphs := p.glyphs.LookupByGates(gates)
	best := ""
	if len(glyphs) > 0 {
		best = glyphs[0].Name
	}

	log.Printf("[TURN] conv=%s turn=%d stance=%s pace=%s blocks=%v safety=%.2f attunement=%.2f",
		conversationID, turnIndex, layer.Stance, layer.Pace, composition.BlocksUsed(),
		report.SafetyLevel, report.AttunementLevel)

	return ParseResult{
		Input:           text,
		Signals:         fs.Signals,
		Gates:           gates,
		Glyphs:          glyphs,
		BestGlyph:       best,
		VoltageResponse: response,
		Feedback:        feedbackLine(report),
		ResponseSource:  router.SourceDynamicComposer,
		Response:        response,
		Debug: Debug{
			Stance:              layer.Stance,
			Pace:                layer.Pace,
			Moves:               layer.Moves,
			Dynamics:            layer.Dynamics,
			Needs:               layer.Needs,
			Contradictions:      len(layer.Contradictions),
			EmotionalWeight:     layer.Meta.EmotionalWeight,
			DominantVoltage:     dominantVoltage(fs.Signals),
			BlocksUsed:          composition.BlocksUsed(),
			Suppressed:          resolution.Suppressed,
			Dropped:             composition.Dropped,
			TooEarly:            resolution.TooEarly,
			EarlyIdentityInjury: resolution.EarlyIdentityInjury,
			SanctuaryWrapped:    wrapped,
		},
		Learning: Learning{
			TurnCount:  s.engine.View().TurnCount,
			TrustLevel: s.engine.TrustLevel(),
			Safety:     report.SafetyLevel,
			Attunement: report.AttunementLevel,
		},
	}
}

// #endregion

// #region helpers

// dominantVoltage returns the highest voltage present across signals.
func dominantVoltage(signals []features.Signal) string {
	rank := map[string]int{"low": 1, "medium": 2, "high": 3}
	best := ""
	for _, s := range signals {
		if rank[s.Voltage] > rank[best] {
			best = s.Voltage
		}
	}
	return best
}

// dominantTone returns the majority tone across signals, negative winning
// ties.
func dominantTone(signals []features.Signal) string {
	counts := map[string]int{}
	for _, s := range signals {
		counts[s.Tone]++
	}
	switch {
	case counts["negative"] >= counts["positive"] && counts["negative"] > 0:
		return "negative"
	case counts["positive"] > 0:
		return "positive"
	default:
		return "neutral"
	}
}

// feedbackLine summarizes a quality report for logs and replay output.
func feedbackLine(r quality.Report) string {
	var failed []string
	for _, c := range r.Checks {
		if !c.Pass {
			failed = append(failed, c.Name)
		}
	}
	if len(failed) == 0 {
		return "all checks passed"
	}
	return "failed: " + strings.Join(failed, ", ")
}

// #endregion

// ComputeActivation exposes the raw union activation for a layer, used by
// the inspect tooling.
func ComputeActivation(layer semantic.Layer) []blocks.Type {
	return activation.ComputeFull(layer).Types()
}
