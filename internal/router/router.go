// Package router classifies each utterance before the core pipeline runs.
// Branches are ordered; the first match wins and is authoritative.
package router

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// #region sources

// Response sources reported to the caller.
const (
	SourceGreeting        = "greeting"
	SourceCasual          = "casual"
	SourceConversational  = "conversational"
	SourceFunctionalQuery = "functional_query"
	SourceNameInquiry     = "name_inquiry"
	SourceNamingRitual    = "naming_ritual"
	SourceCrisisProtocol  = "suicidality_protocol"
	SourceDynamicComposer = "dynamic_composer"
)

// ContextKeyAssignedName is the only conversation-context key the router
// writes back.
const ContextKeyAssignedName = "user_assigned_name"

// #endregion

// #region crisis

// Crisis is the external suicidality protocol. When it claims an utterance
// the core is bypassed entirely.
type Crisis interface {
	ShouldUseProtocol(text string) bool
	Handle(userID, text string) string
}

// #endregion

// #region pools

// Greetings is the closed greeting input set.
var Greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "heya": true, "hiya": true,
	"yo": true, "hi there": true, "hello there": true,
	"good morning": true, "good afternoon": true, "good evening": true,
}

// GreetingResponses is the closed set of greeting replies.
var GreetingResponses = []string{
	"Hello. It's good to have you here.",
	"Hi. I'm glad you reached out.",
	"Hey. I'm here with you.",
	"Hello. Take whatever space you need.",
}

// NeutralOpener is the reply for empty or whitespace-only input.
const NeutralOpener = "I'm here whenever you're ready."

// CasualResponses is the closed set of casual-chat replies.
var CasualResponses = []string{
	"I'm glad you dropped in. What's on your mind?",
	"Happy to just chat. Where would you like to start?",
	"I'm here for exactly that. What's going on today?",
}

// formalReciprocal and casualReciprocal are the tone-matched small-talk pools.
var formalReciprocal = []string{
	"I'm doing well, thank you for asking. How are you feeling today?",
	"I'm here and present. How are you?",
	"Doing well. More importantly, how are things with you?",
}

var casualReciprocal = []string{
	"Hey! Not much on my end. How are you doing?",
	"Sup. I'm here and all ears. What's going on with you?",
	"Yo. All good here. How about you?",
}

const functionalResponse = "I listen for what you're carrying and respond with care. " +
	"There's no agenda here; we go at whatever pace feels right to you."

const nameInquiryResponse = "I don't have a fixed name. What would you like to call me?"

// #endregion

// #region families

var casualFamily = []string{
	"i just needed to chat",
	"just needed to chat",
	"i just wanted to talk",
	"just wanted to talk",
	"just checking in",
}

var nameInquiryFamily = []string{
	"what is your name",
	"what's your name",
	"do you have a name",
	"what should i call you",
	"what do i call you",
}

var functionalFamily = []string{
	"how do you work",
	"what can you do",
	"how does this work",
	"are you a bot",
	"tell me about yourself",
}

var reciprocalCasualFamily = []string{
	"what's up", "whats up", "sup", "wassup", "what up",
}

var reciprocalFormalFamily = []string{
	"how are you", "how's it going", "how are things", "how have you been",
	"thank you", "thanks",
}

var namingIntentPattern = regexp.MustCompile(`(?i)\b(?:can i |may i |i'?ll |i want to |i'?d like to )?(?:call|name) you ([A-Za-z][a-zA-Z]{1,30})\b`)

const nameInvitationMarker = "what would you like to call me"

// #endregion

// #region router

// Decision is the router's verdict for one utterance. Handled=false means
// the core pipeline takes over.
type Decision struct {
	Source       string
	Response     string
	AssignedName string
	Handled      bool
}

// Router performs the ordered pre-emption pass.
type Router struct {
	crisis Crisis
	policy FuzzyPolicy

	greetRing  *ring
	casualRing *ring
	formalRing *ring
	slangRing  *ring
}

// NewRouter creates a router. crisis may be nil (branch one disabled). seed
// drives the deterministic rotation of the reply pools.
func NewRouter(crisis Crisis, policy FuzzyPolicy, seed int64) *Router {
	rng := rand.New(rand.NewSource(seed))
	return &Router{
		crisis:     crisis,
		policy:     policy,
		greetRing:  newRing(GreetingResponses, rng),
		casualRing: newRing(CasualResponses, rng),
		formalRing: newRing(formalReciprocal, rng),
		slangRing:  newRing(casualReciprocal, rng),
	}
}

// Route classifies text. convCtx is the caller-owned conversation context;
// prevAssistant is the assistant's previous message, used for the naming
// handshake.
func (r *Router) Route(text, userID, prevAssistant string, convCtx map[string]string) Decision {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// 1. Crisis disclosure bypasses everything.
	if r.crisis != nil && r.crisis.ShouldUseProtocol(trimmed) {
		return Decision{
			Source:   SourceCrisisProtocol,
			Response: r.crisis.Handle(userID, trimmed),
			Handled:  true,
		}
	}

	// 2. Empty input gets a neutral opener, never an error.
	if trimmed == "" {
		return Decision{Source: SourceGreeting, Response: NeutralOpener, Handled: true}
	}

	// 3. Bare greeting.
	if Greetings[strings.Trim(lower, ".,!? ")] {
		return Decision{Source: SourceGreeting, Response: r.greetRing.next(), Handled: true}
	}

	// 4. Casual chatter.
	if r.policy.matchesFamily(lower, casualFamily, r.policy.CasualThreshold) {
		return Decision{Source: SourceCasual, Response: r.casualRing.next(), Handled: true}
	}

	// 5. Name submission after our invitation.
	if strings.Contains(strings.ToLower(prevAssistant), nameInvitationMarker) {
		if name, ok := submittedName(trimmed); ok {
			return r.lockName(name, convCtx)
		}
	}

	// 6. Explicit naming intent.
	if m := namingIntentPattern.FindStringSubmatch(trimmed); m != nil {
		return r.lockName(m[1], convCtx)
	}

	// 7. Name inquiry (strict).
	if r.policy.matchesFamily(lower, nameInquiryFamily, r.policy.NameInquiryThreshold) {
		return Decision{Source: SourceNameInquiry, Response: nameInquiryResponse, Handled: true}
	}

	// 8. Functional query (lax).
	if r.policy.matchesFamily(lower, functionalFamily, r.policy.FunctionalThreshold) {
		return Decision{Source: SourceFunctionalQuery, Response: functionalResponse, Handled: true}
	}

	// 9. Reciprocal small talk, tone matched.
	if r.policy.matchesFamily(lower, reciprocalCasualFamily, r.policy.FunctionalThreshold) {
		return Decision{Source: SourceConversational, Response: r.slangRing.next(), Handled: true}
	}
	if r.policy.matchesFamily(lower, reciprocalFormalFamily, r.policy.FunctionalThreshold) {
		return Decision{Source: SourceConversational, Response: r.formalRing.next(), Handled: true}
	}

	// 10. Everything else goes through the core.
	return Decision{Source: SourceDynamicComposer, Handled: false}
}

// lockName stores the assigned name in the conversation context and returns
// the fixed naming ritual.
func (r *Router) lockName(name string, convCtx map[string]string) Decision {
	if convCtx != nil {
		convCtx[ContextKeyAssignedName] = name
	}
	return Decision{
		Source:       SourceNamingRitual,
		AssignedName: name,
		Response: fmt.Sprintf("Then %s it is. I'll answer to that, and I'll carry it with care. "+
			"What would you like to talk about?", name),
		Handled: true,
	}
}

// submittedName accepts a short non-question token as a name submission.
func submittedName(text string) (string, bool) {
	if strings.ContainsAny(text, "?") {
		return "", false
	}
	fields := strings.Fields(strings.Trim(text, ".,!"))
	if len(fields) != 1 {
		return "", false
	}
	name := strings.Trim(fields[0], ".,!\"'")
	if len(name) < 2 || len(name) > 30 {
		return "", false
	}
	return strings.ToUpper(name[:1]) + name[1:], true
}

// #endregion

// #region ring

// ring is a deterministic rotating pool. The seed fixes the starting offset;
// each pick advances by one.
type ring struct {
	items []string
	idx   int
}

func newRing(items []string, rng *rand.Rand) *ring {
	return &ring{items: items, idx: rng.Intn(len(items))}
}

func (r *ring) next() string {
	v := r.items[r.idx]
	r.idx = (r.idx + 1) % len(r.items)
	return v
}

// #endregion
