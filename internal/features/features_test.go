package features

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// staticLexicon is a minimal in-package lexicon for extraction tests.
type staticLexicon map[string][]string

func (l staticLexicon) Emotions(word string) []string { return l[word] }

func (l staticLexicon) AnalyzeText(text string) map[string]int {
	return nil
}

func testLexicon() staticLexicon {
	return staticLexicon{
		"glad":       {"joy", "positive"},
		"undermined": {"anger", "negative"},
		"scared":     {"fear", "negative"},
	}
}

func TestExtractBracingFamily(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)
	fs := e.Extract("I thought I was okay today, but something hit me harder than I expected.")

	if len(fs.Bracing) == 0 {
		t.Fatal("expected bracing matches")
	}
	if len(fs.Protective) == 0 {
		t.Fatal("expected protective match for sentence-initial 'I thought'")
	}
}

func TestExtractAmbivalenceAcrossLongSpan(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)
	text := "I'm glad it's over because it was not a good relationship and I feel like " +
		"she really undermined me and pushed me down in a lot of ways. But I don't know…"
	fs := e.Extract(text)

	if len(fs.Ambivalence) == 0 {
		t.Fatal("expected ambivalence match across the long glad..but span")
	}
	if len(fs.ImpactWords) < 2 {
		t.Fatalf("expected undermined and pushed down as impact words, got %v", fs.ImpactWords)
	}
	if !fs.HasOppositePolarityPair() {
		t.Fatal("expected opposite polarity pair from glad + undermined")
	}
	if !fs.Ellipsis {
		t.Fatal("expected ellipsis detection")
	}
}

func TestSingleHedgeCountsOnce(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)
	fs := e.Extract("But I don't know…")

	if len(fs.Vulnerability) != 1 {
		t.Fatalf("one hedge must yield one vulnerability marker, got %v", fs.Vulnerability)
	}
}

func TestExtractSignalsCarryVoltageAndTone(t *testing.T) {
	e := NewExtractor(testLexicon(), nil)
	fs := e.Extract("I was scared but glad it ended")

	bySignal := map[string]Signal{}
	for _, s := range fs.Signals {
		bySignal[s.Signal] = s
	}
	fear, ok := bySignal["FR"]
	if !ok {
		t.Fatalf("expected FR signal, got %v", fs.Signals)
	}
	if fear.Voltage != "high" || fear.Tone != "negative" {
		t.Fatalf("expected high/negative for fear, got %s/%s", fear.Voltage, fear.Tone)
	}
	if _, ok := bySignal["JY"]; !ok {
		t.Fatalf("expected JY signal, got %v", fs.Signals)
	}
}

func TestExtractNamingIntent(t *testing.T) {
	e := NewExtractor(nil, nil)
	fs := e.Extract("Can I call you Juno")

	if fs.NamingIntent != "Juno" {
		t.Fatalf("expected captured name Juno, got %q", fs.NamingIntent)
	}
}

func TestCandidateNamesSkipSentenceInitial(t *testing.T) {
	got := candidateNames([]string{"Yesterday", "I", "saw", "Marcus", "again.", "But", "nothing", "changed."})
	want := []string{"Marcus"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidate names mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNilCollaboratorsDegrade(t *testing.T) {
	e := NewExtractor(nil, nil)
	fs := e.Extract("I'm glad but scared")

	if len(fs.Signals) != 0 {
		t.Fatalf("expected no signals without a lexicon, got %v", fs.Signals)
	}
	if fs.WordCount != 4 {
		t.Fatalf("expected word count 4, got %d", fs.WordCount)
	}
}

func TestBadPatternDisablesFamilyOnly(t *testing.T) {
	f := NewFamily("broken", []string{`([unclosed`})
	if f.Matches("anything") != nil {
		t.Fatal("disabled family must match nothing")
	}

	ok := NewFamily("ok", []string{`\bfine\b`})
	if got := ok.Matches("i am fine"); len(got) != 1 {
		t.Fatalf("expected one match, got %v", got)
	}
}

func TestDurationFamily(t *testing.T) {
	e := NewExtractor(nil, nil)
	for _, text := range []string{"married for 12 years", "it lasted 3 months", "only 10 days in"} {
		fs := e.Extract(text)
		if len(fs.Durations) == 0 {
			t.Errorf("expected duration match in %q", text)
		}
	}
}
