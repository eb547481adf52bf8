// Package extern holds the implementations of the composer's external
// collaborators: lexicon, POS extraction, glyph store, safety wrapper, and
// crisis protocol. The core depends only on the narrow interfaces its
// consumers declare; everything here is swappable.
package extern

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/halcyon-labs/attune/internal/features"
)

// #region file-lexicon

// FileLexicon is an NRC-style word-emotion association lexicon loaded from a
// tab-separated file: word<TAB>category<TAB>flag, one association per line.
type FileLexicon struct {
	byWord map[string][]string
}

// LoadLexicon reads a lexicon file. Lines with a zero flag are skipped.
func LoadLexicon(path string) (*FileLexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", path, err)
	}
	defer f.Close()

	lex := &FileLexicon{byWord: make(map[string][]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 2 {
			continue
		}
		if len(parts) >= 3 && strings.TrimSpace(parts[2]) == "0" {
			continue
		}
		word := strings.ToLower(strings.TrimSpace(parts[0]))
		cat := strings.ToLower(strings.TrimSpace(parts[1]))
		if word == "" || cat == "" {
			continue
		}
		lex.byWord[word] = append(lex.byWord[word], cat)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return lex, nil
}

// NewStaticLexicon builds a lexicon from an in-memory map, for tests and
// for the built-in fallback vocabulary.
func NewStaticLexicon(byWord map[string][]string) *FileLexicon {
	return &FileLexicon{byWord: byWord}
}

// Emotions returns the categories for a word.
func (l *FileLexicon) Emotions(word string) []string {
	return l.byWord[strings.ToLower(word)]
}

// AnalyzeText returns per-category hit counts over whitespace tokens.
func (l *FileLexicon) AnalyzeText(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		for _, cat := range l.byWord[strings.Trim(tok, ".,!?;:\"'")] {
			counts[cat]++
		}
	}
	return counts
}

// BuiltinLexicon returns a small default vocabulary so the binaries work
// without an external lexicon file.
func BuiltinLexicon() *FileLexicon {
	return NewStaticLexicon(map[string][]string{
		"glad":       {"joy", "positive"},
		"happy":      {"joy", "positive"},
		"relieved":   {"joy", "positive"},
		"good":       {"positive"},
		"okay":       {"positive"},
		"love":       {"joy", "positive"},
		"hope":       {"anticipation", "positive"},
		"sad":        {"sadness", "negative"},
		"hurt":       {"sadness", "negative"},
		"lost":       {"sadness", "negative"},
		"alone":      {"sadness", "negative"},
		"lonely":     {"sadness", "negative"},
		"angry":      {"anger", "negative"},
		"hate":       {"anger", "disgust", "negative"},
		"afraid":     {"fear", "negative"},
		"scared":     {"fear", "negative"},
		"anxious":    {"fear", "negative"},
		"worried":    {"fear", "negative"},
		"undermined": {"anger", "negative"},
		"controlled": {"fear", "negative"},
		"dominated":  {"fear", "negative"},
		"diminished": {"sadness", "negative"},
		"crushed":    {"sadness", "negative"},
		"bad":        {"negative"},
	})
}

// #endregion

// #region pos

// HeuristicPOS is a dependency-free part-of-speech extractor: suffix
// heuristics filtered against a closed emotional vocabulary. A real tagger
// can replace it behind the same interface.
type HeuristicPOS struct{}

var emotionalVocabulary = map[string]bool{
	"grief": true, "loss": true, "anger": true, "fear": true, "shame": true,
	"relief": true, "doubt": true, "hope": true, "hurt": true, "love": true,
	"sadness": true, "loneliness": true, "trust": true, "worry": true,
	"feel": true, "felt": true, "miss": true, "ache": true, "cry": true,
	"hurting": true, "grieving": true, "broken": true, "heavy": true,
	"empty": true, "numb": true, "raw": true, "tender": true, "afraid": true,
}

// Extract returns emotional nouns, verbs, and adjectives by suffix shape.
func (HeuristicPOS) Extract(text string) features.POSFeatures {
	var out features.POSFeatures
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		w := strings.Trim(tok, ".,!?;:\"'")
		if !emotionalVocabulary[w] {
			continue
		}
		switch {
		case strings.HasSuffix(w, "ing") || w == "feel" || w == "felt" || w == "miss" || w == "cry" || w == "ache":
			out.Verbs = append(out.Verbs, w)
		case strings.HasSuffix(w, "ness") || strings.HasSuffix(w, "th") ||
			w == "grief" || w == "loss" || w == "anger" || w == "fear" ||
			w == "shame" || w == "relief" || w == "doubt" || w == "hope" ||
			w == "hurt" || w == "love" || w == "trust" || w == "worry":
			out.Nouns = append(out.Nouns, w)
		default:
			out.Adjectives = append(out.Adjectives, w)
		}
	}
	return out
}

// #endregion

// #region glyphs

// Glyph is one symbolic emotional pattern from the external catalog.
type Glyph struct {
	Name        string
	Description string
	Gate        string
}

// GlyphStore is the keyed glyph catalog contract.
type GlyphStore interface {
	LookupByGates(gates []string) []Glyph
}

// StaticGlyphStore is a small in-memory glyph catalog.
type StaticGlyphStore struct {
	byGate map[string][]Glyph
}

// NewStaticGlyphStore builds the built-in glyph catalog.
func NewStaticGlyphStore() *StaticGlyphStore {
	glyphs := []Glyph{
		{Name: "low_ember", Description: "grief held quietly, still warm", Gate: "Gate 2"},
		{Name: "split_river", Description: "two feelings running in one channel", Gate: "Gate 3"},
		{Name: "storm_wall", Description: "fear braced against an impact", Gate: "Gate 4"},
		{Name: "first_light", Description: "relief arriving before trust does", Gate: "Gate 1"},
		{Name: "iron_thread", Description: "anger binding identity to injury", Gate: "Gate 5"},
	}
	s := &StaticGlyphStore{byGate: make(map[string][]Glyph)}
	for _, g := range glyphs {
		s.byGate[g.Gate] = append(s.byGate[g.Gate], g)
	}
	return s
}

// LookupByGates returns the glyphs behind the given gates, in gate order.
func (s *StaticGlyphStore) LookupByGates(gates []string) []Glyph {
	var out []Glyph
	for _, g := range gates {
		out = append(out, s.byGate[g]...)
	}
	return out
}

// NoopGlyphStore satisfies GlyphStore with no catalog.
type NoopGlyphStore struct{}

// LookupByGates always returns nil.
func (NoopGlyphStore) LookupByGates([]string) []Glyph { return nil }

// #endregion

// #region gates

// gateTable maps emotional signal codes to opaque gate identifiers. The
// core does not interpret gates; they exist for the glyph store boundary.
var gateTable = map[string]string{
	"JY": "Gate 1",
	"SD": "Gate 2",
	"SP": "Gate 3",
	"FR": "Gate 4",
	"AN": "Gate 5",
	"DG": "Gate 5",
	"TR": "Gate 6",
	"AC": "Gate 7",
	"PS": "Gate 1",
	"NG": "Gate 2",
}

// GatesForSignals returns the distinct gates for a signal list, in first-seen
// order.
func GatesForSignals(signals []features.Signal) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range signals {
		gate, ok := gateTable[s.Signal]
		if !ok || seen[gate] {
			continue
		}
		seen[gate] = true
		out = append(out, gate)
	}
	return out
}

// #endregion

// #region safety

// SafetyWrapper is the sanctuary-mode collaborator.
type SafetyWrapper interface {
	IsSensitive(text string) bool
	Wrap(input, response, tone string) string
}

// CompassionWrapper prepends a compassionate opener to responses for
// sensitive input.
type CompassionWrapper struct{}

var sensitiveMarkers = []string{
	"divorce", "died", "death", "abuse", "abused", "assault", "trauma",
	"undermined", "controlled", "dominated", "grief", "miscarriage",
}

// IsSensitive reports whether the input carries sensitive markers.
func (CompassionWrapper) IsSensitive(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Wrap prepends the sanctuary opener unless the response already leads with
// presence language.
func (CompassionWrapper) Wrap(input, response, tone string) string {
	const opener = "Before anything else: what you're carrying is welcome here."
	if strings.HasPrefix(response, opener) {
		return response
	}
	return opener + " " + response
}

// NoopSafety disables the sanctuary wrapper.
type NoopSafety struct{}

// IsSensitive always returns false.
func (NoopSafety) IsSensitive(string) bool { return false }

// Wrap returns the response unchanged.
func (NoopSafety) Wrap(_, response, _ string) string { return response }

// #endregion

// #region crisis

// KeywordCrisis is a minimal stand-in for the external suicidality protocol.
// It recognizes explicit crisis language and answers with a fixed
// safe-harbor message; the real protocol replaces it behind the router's
// Crisis interface.
type KeywordCrisis struct{}

var crisisMarkers = []string{
	"kill myself", "end my life", "suicide", "suicidal",
	"don't want to be alive", "want to die", "end it all",
}

// ShouldUseProtocol reports whether text contains explicit crisis language.
func (KeywordCrisis) ShouldUseProtocol(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range crisisMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Handle returns the fixed safe-harbor response.
func (KeywordCrisis) Handle(userID, text string) string {
	return "I'm really glad you told me. What you're feeling matters, and you don't have " +
		"to hold it alone. If you are in immediate danger, please reach out to a crisis " +
		"line or someone you trust right now. I'm staying right here with you."
}

// #endregion
