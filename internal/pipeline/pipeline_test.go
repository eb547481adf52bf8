package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/halcyon-labs/attune/internal/blocks"
	"github.com/halcyon-labs/attune/internal/router"
	"github.com/halcyon-labs/attune/internal/semantic"
)

func newTestPipeline(t *testing.T, config Config) *Pipeline {
	t.Helper()
	p, err := New(config, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func usedBlock(result ParseResult, bt blocks.Type) bool {
	for _, b := range result.Debug.BlocksUsed {
		if b == bt {
			return true
		}
	}
	return false
}

// #region routed-turns

func TestGreetingBypassesComposer(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	result := p.ParseInput("c1", "hi")

	if result.ResponseSource != router.SourceGreeting {
		t.Fatalf("source = %s, want greeting", result.ResponseSource)
	}
	if result.Feedback != "routed" {
		t.Fatalf("feedback = %q, want routed", result.Feedback)
	}
	if len(result.Signals) != 0 || len(result.Gates) != 0 || len(result.Glyphs) != 0 {
		t.Fatalf("routed turn must carry no semantic output: %+v", result)
	}
	if got := p.Session("c1").View().TurnCount; got != 0 {
		t.Fatalf("routed turn advanced continuity to %d", got)
	}
}

func TestCasualAndReciprocalRouting(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	if r := p.ParseInput("c1", "I just needed to chat"); r.ResponseSource != router.SourceCasual {
		t.Fatalf("casual source = %s", r.ResponseSource)
	}
	r := p.ParseInput("c1", "what's up")
	if r.ResponseSource != router.SourceConversational {
		t.Fatalf("reciprocal source = %s", r.ResponseSource)
	}
	if !strings.HasPrefix(r.Response, "Hey") && !strings.HasPrefix(r.Response, "Sup") && !strings.HasPrefix(r.Response, "Yo") {
		t.Fatalf("expected a tone-matched casual reply, got %q", r.Response)
	}
}

func TestNamingRitualAssignsName(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	result := p.ParseInput("c1", "Can I call you Juno")

	if result.ResponseSource != router.SourceNamingRitual {
		t.Fatalf("source = %s, want naming_ritual", result.ResponseSource)
	}
	if result.AssignedName != "Juno" {
		t.Fatalf("assigned name = %q, want Juno", result.AssignedName)
	}
	if !strings.Contains(result.Response, "Juno") {
		t.Fatalf("ritual must speak the name, got %q", result.Response)
	}
}

func TestRoutedTurnLeavesContinuityUntouched(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	p.ParseInput("c1", "I thought I was okay today, but something hit me harder than I expected.")

	before := p.Session("c1").View().TurnCount
	p.ParseInput("c1", "hi")
	if after := p.Session("c1").View().TurnCount; after != before {
		t.Fatalf("turn count moved from %d to %d across a routed turn", before, after)
	}
}

// #endregion

// #region composed-turns

func TestBracingFirstTurnIsContained(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	result := p.ParseInput("c1", "I thought I was okay today, but something hit me harder than I expected.")

	if result.ResponseSource != router.SourceDynamicComposer {
		t.Fatalf("source = %s, want dynamic_composer", result.ResponseSource)
	}
	if result.Debug.Stance != semantic.StanceBracing {
		t.Fatalf("stance = %s, want bracing", result.Debug.Stance)
	}
	if result.Debug.Pace != semantic.PaceTestingSafety {
		t.Fatalf("pace = %s, want testing_safety", result.Debug.Pace)
	}
	if !usedBlock(result, blocks.Containment) || !usedBlock(result, blocks.Pacing) {
		t.Fatalf("expected containment and pacing, got %v", result.Debug.BlocksUsed)
	}
	if usedBlock(result, blocks.GentleDirection) {
		t.Fatalf("gentle direction must never appear on a bracing first turn: %v", result.Debug.BlocksUsed)
	}
	if result.Learning.TurnCount != 1 {
		t.Fatalf("turn count = %d, want 1", result.Learning.TurnCount)
	}
	if math.Abs(result.Learning.Safety-0.9) > 1e-9 {
		t.Fatalf("safety = %.2f, want 0.90", result.Learning.Safety)
	}
	for _, check := range []string{"safety_level", "pacing_appropriate", "forbidden_content"} {
		if strings.Contains(result.Feedback, check) {
			t.Fatalf("feedback reports %s failure: %q", check, result.Feedback)
		}
	}
}

func TestAmbivalenceAfterBuiltTrust(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	conv := "c1"

	p.ParseInput(conv, "I thought I was okay today, but something hit me harder than I expected.")
	p.ParseInput(conv, "We were married for 12 years and got divorced last month.")
	p.ParseInput(conv, "It's complicated. My ex-wife and I still talk sometimes.")

	result := p.ParseInput(conv, "I'm glad it's over because it was not a good relationship and I feel like "+
		"she really undermined me and pushed me down in a lot of ways. But I don't know…")

	if result.Debug.Stance != semantic.StanceAmbivalent {
		t.Fatalf("stance = %s, want ambivalent", result.Debug.Stance)
	}
	if result.Debug.Contradictions == 0 {
		t.Fatal("expected a held contradiction")
	}
	for _, bt := range []blocks.Type{blocks.Ambivalence, blocks.IdentityInjury, blocks.Validation} {
		if !usedBlock(result, bt) {
			t.Fatalf("expected %s in %v", bt, result.Debug.BlocksUsed)
		}
	}
	if result.Learning.Attunement < 0.6 {
		t.Fatalf("attunement = %.2f, want >= 0.60", result.Learning.Attunement)
	}
	for _, phrase := range []string{"at least", "silver lining", "have you tried", "you should"} {
		if strings.Contains(strings.ToLower(result.Response), phrase) {
			t.Fatalf("response carries forbidden phrase %q: %q", phrase, result.Response)
		}
	}
	if result.Learning.TurnCount != 4 {
		t.Fatalf("turn count = %d, want 4", result.Learning.TurnCount)
	}
	if result.Learning.TrustLevel < 0.5 {
		t.Fatalf("trust = %.2f, must not fall below the starting level", result.Learning.TrustLevel)
	}
}

func TestSensitiveDisclosureGetsWrapped(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	result := p.ParseInput("c1", "We were married for 12 years and got divorced last month.")

	if !result.Debug.SanctuaryWrapped {
		t.Fatal("divorce disclosure must be wrapped")
	}
	if !strings.HasPrefix(result.Response, "Before anything else:") {
		t.Fatalf("expected the sanctuary opener, got %q", result.Response)
	}
}

func TestSanctuaryModeWrapsEveryComposedTurn(t *testing.T) {
	config := DefaultConfig()
	config.SanctuaryMode = true
	p := newTestPipeline(t, config)

	result := p.ParseInput("c1", "I thought I was okay today, but something hit me harder than I expected.")
	if !result.Debug.SanctuaryWrapped {
		t.Fatal("sanctuary mode must wrap non-sensitive input too")
	}

	// Wrapping applies once even when both conditions hold.
	result = p.ParseInput("c1", "We were married for 12 years and got divorced last month.")
	opener := "Before anything else:"
	if strings.Count(result.Response, opener) != 1 {
		t.Fatalf("opener must appear exactly once: %q", result.Response)
	}
}

// #endregion

// #region voltage-response

func TestVoltageResponseCarriesReplyText(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())

	// Composed path.
	result := p.ParseInput("c1", "I thought I was okay today, but something hit me harder than I expected.")
	if result.VoltageResponse == "" {
		t.Fatal("voltage response must never be empty")
	}
	if result.VoltageResponse != result.Response {
		t.Fatalf("voltage response %q diverged from reply %q", result.VoltageResponse, result.Response)
	}
	if v := result.Debug.DominantVoltage; v != "" && v != "low" && v != "medium" && v != "high" {
		t.Fatalf("dominant voltage = %q", v)
	}

	// Routed path.
	result = p.ParseInput("c1", "hi")
	if result.VoltageResponse == "" || result.VoltageResponse != result.Response {
		t.Fatalf("routed voltage response %q must carry the reply %q", result.VoltageResponse, result.Response)
	}
}

// #endregion

// #region determinism

func TestIdenticalConfigsProduceIdenticalConversations(t *testing.T) {
	turns := []string{
		"what's up",
		"I thought I was okay today, but something hit me harder than I expected.",
		"We were married for 12 years and got divorced last month.",
		"what's up",
		"I'm glad it's over because it was not a good relationship and I feel like " +
			"she really undermined me and pushed me down in a lot of ways. But I don't know…",
	}

	a := newTestPipeline(t, DefaultConfig())
	b := newTestPipeline(t, DefaultConfig())
	for i, text := range turns {
		ra := a.ParseInput("conv", text)
		rb := b.ParseInput("conv", text)
		if ra.Response != rb.Response {
			t.Fatalf("turn %d diverged:\n%q\n%q", i, ra.Response, rb.Response)
		}
		if ra.ResponseSource != rb.ResponseSource {
			t.Fatalf("turn %d source diverged: %s vs %s", i, ra.ResponseSource, rb.ResponseSource)
		}
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	p.ParseInput("a", "I thought I was okay today, but something hit me harder than I expected.")
	p.ParseInput("a", "We were married for 12 years and got divorced last month.")

	if got := p.Session("b").View().TurnCount; got != 0 {
		t.Fatalf("conversation b inherited %d turns from a", got)
	}
	if got := p.Session("a").View().TurnCount; got != 2 {
		t.Fatalf("conversation a turn count = %d, want 2", got)
	}
}

// #endregion

// #region restore

func TestRestoreSessionResumesTrust(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig())
	p.ParseInput("c1", "We were married for 12 years and got divorced last month.")
	p.ParseInput("c1", "I'm glad it's over because it was not a good relationship and I feel like "+
		"she really undermined me and pushed me down in a lot of ways. But I don't know…")

	state := p.Session("c1").State()

	fresh := newTestPipeline(t, DefaultConfig())
	fresh.RestoreSession("c1", state)

	if got, want := fresh.Session("c1").View().TurnCount, p.Session("c1").View().TurnCount; got != want {
		t.Fatalf("restored turn count = %d, want %d", got, want)
	}
	if got, want := fresh.Session("c1").TrustLevel(), p.Session("c1").TrustLevel(); got != want {
		t.Fatalf("restored trust = %.2f, want %.2f", got, want)
	}
}

// #endregion
