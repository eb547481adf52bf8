package features

import (
	"strings"
	"unicode"
)

// #region interfaces

// Lexicon is the word-emotion lookup contract. Implementations may swap
// lexicons; the extractor depends only on this interface. nil is allowed
// (emotion features degrade to empty).
type Lexicon interface {
	// Emotions returns the emotion categories for a lowercase word.
	Emotions(word string) []string
	// AnalyzeText returns per-category hit counts over a whole text.
	AnalyzeText(text string) map[string]int
}

// POSExtractor provides emotional nouns, verbs, and adjectives for a text.
// nil is allowed; POS features degrade to empty.
type POSExtractor interface {
	Extract(text string) POSFeatures
}

// POSFeatures holds lemmatized lowercase words filtered against an
// emotional vocabulary.
type POSFeatures struct {
	Nouns      []string
	Verbs      []string
	Adjectives []string
}

// #endregion

// #region signal

// Signal is one emotion hit produced during extraction: the word that fired,
// its signal code, and the derived voltage and tone.
type Signal struct {
	Keyword string
	Signal  string
	Voltage string // low | medium | high
	Tone    string // positive | negative | neutral
}

// #endregion

// #region category-traits

// categoryTraits maps a lexicon category to its signal code, voltage, and tone.
var categoryTraits = map[string]struct {
	Signal  string
	Voltage string
	Tone    string
}{
	"joy":          {"JY", "medium", "positive"},
	"sadness":      {"SD", "medium", "negative"},
	"anger":        {"AN", "high", "negative"},
	"fear":         {"FR", "high", "negative"},
	"trust":        {"TR", "low", "positive"},
	"anticipation": {"AC", "low", "neutral"},
	"surprise":     {"SP", "medium", "neutral"},
	"disgust":      {"DG", "high", "negative"},
	"positive":     {"PS", "low", "positive"},
	"negative":     {"NG", "low", "negative"},
}

// #endregion

// #region feature-set

// FeatureSet is the full output of extraction for one utterance. It is a
// pure function of (text, lexicon snapshot).
type FeatureSet struct {
	Raw    string
	Tokens []string // lowercase
	Cased  []string // original case, same order

	WordCount int

	Signals       []Signal
	PositiveWords []string
	NegativeWords []string

	Bracing           []string
	Revealing         []string
	Ambivalence       []string
	Protective        []string
	Vulnerability     []string
	ImpactWords       []string
	Durations         []string
	RoleChanges       []string
	ComplexityMarkers []string
	RelationalLabels  []string

	CandidateNames []string
	NamingIntent   string // captured name, empty when absent
	Ellipsis       bool

	POS POSFeatures
}

// HasOppositePolarityPair reports whether the text carried both positive and
// negative emotion words, the lexical precondition for ambivalence.
func (f FeatureSet) HasOppositePolarityPair() bool {
	return len(f.PositiveWords) > 0 && len(f.NegativeWords) > 0
}

// #endregion

// #region extractor

// Extractor computes lexical and pattern features from raw utterances.
type Extractor struct {
	lexicon  Lexicon
	pos      POSExtractor
	families map[string]*Family
}

// NewExtractor creates an Extractor. lexicon and pos may be nil; the
// corresponding features degrade to empty.
func NewExtractor(lexicon Lexicon, pos POSExtractor) *Extractor {
	return &Extractor{
		lexicon:  lexicon,
		pos:      pos,
		families: defaultFamilies(),
	}
}

// Extract computes the full feature set for text. Invalid UTF-8 is replaced,
// never surfaced as an error.
func (e *Extractor) Extract(text string) FeatureSet {
	raw := strings.ToValidUTF8(text, "�")
	lower := strings.ToLower(raw)

	cased := strings.Fields(raw)
	tokens := make([]string, len(cased))
	for i, t := range cased {
		tokens[i] = strings.ToLower(strings.Trim(t, ".,!?;:\"'()"))
	}

	fs := FeatureSet{
		Raw:       raw,
		Tokens:    tokens,
		Cased:     cased,
		WordCount: len(tokens),

		Bracing:           e.families["bracing"].Matches(lower),
		Revealing:         e.families["revealing"].Matches(lower),
		Ambivalence:       e.families["ambivalence"].Matches(lower),
		Protective:        e.families["protective"].Matches(lower),
		Vulnerability:     e.families["vulnerability"].Matches(lower),
		ImpactWords:       e.families["impact"].Matches(lower),
		Durations:         e.families["duration"].Matches(lower),
		RoleChanges:       e.families["roleChange"].Matches(lower),
		ComplexityMarkers: e.families["complexity"].Matches(lower),
		RelationalLabels:  e.families["relational"].Matches(lower),
		Ellipsis:          e.families["ellipsis"].Match(raw),
	}

	if m := namingIntentPattern.FindStringSubmatch(raw); m != nil {
		fs.NamingIntent = m[1]
	}

	fs.CandidateNames = candidateNames(cased)
	e.emotionPass(tokens, &fs)

	if e.pos != nil {
		fs.POS = e.pos.Extract(raw)
	}

	return fs
}

// #endregion

// #region emotion-pass

// emotionPass consults the lexicon per token and fills signals and polarity
// word lists. Unknown tokens contribute nothing.
func (e *Extractor) emotionPass(tokens []string, fs *FeatureSet) {
	if e.lexicon == nil {
		return
	}
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		for _, cat := range e.lexicon.Emotions(tok) {
			traits, ok := categoryTraits[cat]
			if !ok {
				continue
			}
			fs.Signals = append(fs.Signals, Signal{
				Keyword: tok,
				Signal:  traits.Signal,
				Voltage: traits.Voltage,
				Tone:    traits.Tone,
			})
			switch traits.Tone {
			case "positive":
				fs.PositiveWords = appendUnique(fs.PositiveWords, tok)
			case "negative":
				fs.NegativeWords = appendUnique(fs.NegativeWords, tok)
			}
		}
	}
}

// #endregion

// #region helpers

// candidateNames returns capitalized non-sentence-initial tokens of length
// >= 3, the name heuristic for untagged text.
func candidateNames(cased []string) []string {
	var names []string
	sentenceStart := true
	for _, tok := range cased {
		word := strings.Trim(tok, ".,!?;:\"'()")
		if !sentenceStart && len(word) >= 3 && isCapitalized(word) {
			names = appendUnique(names, word)
		}
		sentenceStart = strings.HasSuffix(tok, ".") || strings.HasSuffix(tok, "!") || strings.HasSuffix(tok, "?")
	}
	return names
}

func isCapitalized(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// #endregion
