package extern

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/halcyon-labs/attune/internal/features"
)

// #region lexicon

func TestLoadLexiconSkipsZeroFlagRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.txt")
	content := strings.Join([]string{
		"glad\tjoy\t1",
		"glad\tpositive\t1",
		"glad\tanger\t0",
		"undermined\tanger\t1",
		"malformed line without tabs",
		"\tjoy\t1",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if diff := cmp.Diff([]string{"joy", "positive"}, lex.Emotions("glad")); diff != "" {
		t.Errorf("glad categories mismatch (-want +got):\n%s", diff)
	}
	if got := lex.Emotions("malformed"); got != nil {
		t.Errorf("malformed line must be ignored, got %v", got)
	}
}

func TestLoadLexiconMissingFile(t *testing.T) {
	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for a missing lexicon file")
	}
}

func TestAnalyzeTextCountsPerCategory(t *testing.T) {
	lex := BuiltinLexicon()
	counts := lex.AnalyzeText("I'm glad, truly glad, but I feel undermined.")
	if counts["joy"] != 2 {
		t.Errorf("joy = %d, want 2", counts["joy"])
	}
	if counts["anger"] != 1 {
		t.Errorf("anger = %d, want 1", counts["anger"])
	}
	if counts["positive"] != 2 || counts["negative"] != 1 {
		t.Errorf("polarity counts = %d/%d, want 2/1", counts["positive"], counts["negative"])
	}
}

func TestEmotionsIsCaseInsensitive(t *testing.T) {
	lex := BuiltinLexicon()
	if diff := cmp.Diff(lex.Emotions("scared"), lex.Emotions("SCARED")); diff != "" {
		t.Errorf("case must not change the lookup (-lower +upper):\n%s", diff)
	}
}

// #endregion

// #region pos

func TestHeuristicPOSExtract(t *testing.T) {
	got := HeuristicPOS{}.Extract("The grief is heavy and I keep grieving; loneliness too.")
	want := features.POSFeatures{
		Nouns:      []string{"grief", "loneliness"},
		Verbs:      []string{"grieving"},
		Adjectives: []string{"heavy"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("POS mismatch (-want +got):\n%s", diff)
	}
}

func TestHeuristicPOSIgnoresNonEmotionalWords(t *testing.T) {
	got := HeuristicPOS{}.Extract("The meeting is on tuesday at nine.")
	if len(got.Nouns)+len(got.Verbs)+len(got.Adjectives) != 0 {
		t.Errorf("neutral text must yield nothing, got %+v", got)
	}
}

// #endregion

// #region gates

func TestGatesForSignalsDedupesInFirstSeenOrder(t *testing.T) {
	signals := []features.Signal{
		{Signal: "FR"},
		{Signal: "AN"},
		{Signal: "DG"}, // same gate as AN
		{Signal: "FR"},
		{Signal: "JY"},
		{Signal: "??"}, // unknown code
	}
	got := GatesForSignals(signals)
	want := []string{"Gate 4", "Gate 5", "Gate 1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gates mismatch (-want +got):\n%s", diff)
	}
}

func TestGlyphStoreLookup(t *testing.T) {
	store := NewStaticGlyphStore()
	glyphs := store.LookupByGates([]string{"Gate 3", "Gate 5"})
	if len(glyphs) != 2 {
		t.Fatalf("got %d glyphs, want 2", len(glyphs))
	}
	if glyphs[0].Name != "split_river" || glyphs[1].Name != "iron_thread" {
		t.Errorf("glyphs = %s, %s; want split_river, iron_thread", glyphs[0].Name, glyphs[1].Name)
	}
	if got := store.LookupByGates([]string{"Gate 9"}); got != nil {
		t.Errorf("unknown gate must yield nothing, got %v", got)
	}
	if got := (NoopGlyphStore{}).LookupByGates([]string{"Gate 1"}); got != nil {
		t.Errorf("noop store must yield nothing, got %v", got)
	}
}

// #endregion

// #region safety

func TestCompassionWrapperSensitivity(t *testing.T) {
	w := CompassionWrapper{}
	if !w.IsSensitive("We got divorced last month.") {
		t.Error("divorce disclosure must register as sensitive")
	}
	if w.IsSensitive("The weather is nice today.") {
		t.Error("neutral text must not register as sensitive")
	}
}

func TestCompassionWrapIsIdempotent(t *testing.T) {
	w := CompassionWrapper{}
	once := w.Wrap("in", "I hear you.", "warm")
	twice := w.Wrap("in", once, "warm")
	if once != twice {
		t.Errorf("double wrap changed the response:\n%q\n%q", once, twice)
	}
	if !strings.HasSuffix(once, "I hear you.") {
		t.Errorf("original response must be preserved, got %q", once)
	}
}

func TestNoopSafetyPassesThrough(t *testing.T) {
	w := NoopSafety{}
	if w.IsSensitive("divorce death abuse") {
		t.Error("noop wrapper must never flag input")
	}
	if got := w.Wrap("in", "unchanged", "warm"); got != "unchanged" {
		t.Errorf("noop wrap = %q, want unchanged", got)
	}
}

// #endregion

// #region crisis

func TestKeywordCrisisDetection(t *testing.T) {
	c := KeywordCrisis{}
	for _, text := range []string{
		"I want to end it all",
		"Sometimes I think about suicide",
		"i don't want to be alive anymore",
	} {
		if !c.ShouldUseProtocol(text) {
			t.Errorf("%q must trigger the protocol", text)
		}
	}
	for _, text := range []string{
		"I'm tired of this job",
		"That meeting nearly killed me",
	} {
		if c.ShouldUseProtocol(text) {
			t.Errorf("%q must not trigger the protocol", text)
		}
	}

	resp := c.Handle("u1", "I want to end it all")
	if !strings.Contains(resp, "crisis line") {
		t.Errorf("safe-harbor response must point to help, got %q", resp)
	}
}

// #endregion
