package features

import (
	"log"
	"regexp"
)

// #region family

// Family is a named set of precompiled patterns. Families are compiled once
// at startup; a pattern that fails to compile disables only its own family.
type Family struct {
	Name     string
	patterns []*regexp.Regexp
	disabled bool
}

// NewFamily compiles the given expressions into a family. On a compile
// failure the family is marked disabled and matches nothing.
func NewFamily(name string, exprs []string) *Family {
	f := &Family{Name: name}
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			log.Printf("[FEAT] pattern family %q disabled: %v", name, err)
			f.disabled = true
			f.patterns = nil
			return f
		}
		f.patterns = append(f.patterns, re)
	}
	return f
}

// Matches returns every distinct match of the family's patterns in text.
func (f *Family) Matches(text string) []string {
	if f.disabled {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, re := range f.patterns {
		for _, m := range re.FindAllString(text, -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// Match reports whether any pattern in the family matches text.
func (f *Family) Match(text string) bool {
	if f.disabled {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// #endregion

// #region family-definitions

// defaultFamilies builds the built-in pattern families. All patterns run
// against the lowercased text except namingIntent, which needs case.
func defaultFamilies() map[string]*Family {
	return map[string]*Family{
		"bracing": NewFamily("bracing", []string{
			`thought i was (okay|fine|alright)`,
			`harder than (i )?(had )?expected`,
			`wasn'?t sure`,
			`don'?t know if i can`,
			`bracing (myself|for)`,
			`trying to (hold|keep) it together`,
		}),
		"revealing": NewFamily("revealing", []string{
			`final confirmation`,
			`\bex[- ]?(wife|husband|partner|girlfriend|boyfriend)\b`,
			`\b(married|together|worked there|lived there) for \d+ years\b`,
			`never told anyone`,
			`first time i'?ve said`,
		}),
		"ambivalence": NewFamily("ambivalence", []string{
			`\bglad\b.{0,200}\bbut\b`,
			`\brelieved\b.{0,200}\bbut\b`,
			`\bhappy\b.{0,200}\bbut\b`,
			`\bpart of me\b.{0,200}\b(another|other) part\b`,
			`\bmiss\b.{0,200}\bhate\b`,
		}),
		"protective": NewFamily("protective", []string{
			`^\s*well\b`,
			`^\s*i thought\b`,
			`^\s*i guess\b`,
			`^\s*i suppose\b`,
			`\bit'?s fine\b`,
			`\bno big deal\b`,
		}),
		"vulnerability": NewFamily("vulnerability", []string{
			`i'?m not sure`,
			`\bi don'?t know\b`,
			`\bscared to\b`,
			`\bafraid to\b`,
		}),
		"impact": NewFamily("impact", []string{
			`\bundermined\b`, `\bpushed (me )?down\b`, `\bdiminished\b`,
			`\bcontrolled\b`, `\bdominated\b`, `\bbelittled\b`,
			`\bdismissed\b`, `\bsilenced\b`, `\berased\b`, `\bcrushed\b`,
		}),
		"duration": NewFamily("duration", []string{
			`\d+\s+(?:years?|months?|days?)`,
		}),
		"roleChange": NewFamily("roleChange", []string{
			`\bex[- ]\w+`,
			`\bused to be\b`,
			`\bnot anymore\b`,
			`\bno longer\b`,
			`\b(divorce|divorced|separated|laid off|retired)\b`,
		}),
		"complexity": NewFamily("complexity", []string{
			`\bcomplicated\b`,
			`\bit'?s a lot\b`,
			`\bhard to explain\b`,
			`\bmixed feelings\b`,
			`\bin a lot of ways\b`,
		}),
		"relational": NewFamily("relational", []string{
			`\b(my|her|his|their) (wife|husband|partner|mother|father|mom|dad|sister|brother|boss|friend|kids?|son|daughter)\b`,
		}),
		"ellipsis": NewFamily("ellipsis", []string{
			`\.\.\.\s*$`,
			`…\s*$`,
		}),
	}
}

// namingIntentPattern captures an explicit name assignment ("call you Juno").
// Runs against the original-case text so the captured name keeps its casing.
var namingIntentPattern = regexp.MustCompile(`\b(?:call|name) you ([A-Za-z][a-zA-Z]{1,30})\b`)

// #endregion
