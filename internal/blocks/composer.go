package blocks

import (
	"strings"
)

// #region config

// ComposerConfig holds the register-adjust thresholds.
type ComposerConfig struct {
	EnableRegisterAdjust bool
	PlainMaxWords        int // utterance word cap for the plain-register test
	PoeticMinChars       int // composed length past which newlines read as poetic
}

// DefaultComposerConfig returns the conservative defaults.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		EnableRegisterAdjust: true,
		PlainMaxWords:        40,
		PoeticMinChars:       80,
	}
}

// #endregion

// #region request-result

// Request is one activated block type with the semantic tags that fired it,
// already in emission order.
type Request struct {
	Type     Type
	Triggers []string
}

// Composition is the composer's output: the selected variants in order and
// the joined prose.
type Composition struct {
	Blocks  []Block
	Text    string
	Dropped []Type // dropped by forbidden-pair resolution
}

// BlocksUsed returns the ordered types of the selected variants.
func (c Composition) BlocksUsed() []Type {
	out := make([]Type, len(c.Blocks))
	for i, b := range c.Blocks {
		out[i] = b.Type
	}
	return out
}

// #endregion

// #region composer

// Composer selects one variant per activated type and emits ordered prose.
type Composer struct {
	catalog *Catalog
	config  ComposerConfig
}

// NewComposer creates a Composer over a read-only catalog.
func NewComposer(catalog *Catalog, config ComposerConfig) *Composer {
	return &Composer{catalog: catalog, config: config}
}

// Compose selects variants for the ordered requests, resolves forbidden
// pairings (earlier priority wins), and joins the content strings.
// utterance is the raw user text, used only by the register adjustment.
func (c *Composer) Compose(requests []Request, utterance string) Composition {
	var selected []Block
	var dropped []Type

	for _, req := range requests {
		v, ok := c.selectVariant(req)
		if !ok {
			continue
		}
		conflict := false
		for _, prev := range selected {
			if prev.Forbids(v.Type) || v.Forbids(prev.Type) ||
				(prev.Type == Pacing && v.Type == GentleDirection) {
				conflict = true
				break
			}
		}
		if conflict {
			dropped = append(dropped, v.Type)
			continue
		}
		selected = append(selected, v)
	}

	parts := make([]string, len(selected))
	for i, b := range selected {
		parts[i] = b.Content
	}
	text := strings.Join(parts, " ")

	if c.config.EnableRegisterAdjust {
		text = c.registerAdjust(utterance, text)
	}

	return Composition{Blocks: selected, Text: text, Dropped: dropped}
}

// selectVariant picks the variant whose trigger matches a firing tag; among
// matches the lowest order priority wins, ties broken by name. With no
// trigger match the catalog order decides.
func (c *Composer) selectVariant(req Request) (Block, bool) {
	variants := c.catalog.Variants(req.Type)
	if len(variants) == 0 {
		return Block{}, false
	}
	for _, v := range variants { // already ordered by priority then name
		for _, t := range req.Triggers {
			if v.Trigger == t {
				return v, true
			}
		}
	}
	return variants[0], true
}

// #endregion

// #region register-adjust

// archaicMarkers is the closed list of words that read as poetic register.
var archaicMarkers = []string{
	"thee", "thou", "thy", "thine", "whence", "wherefore", "o'er", "'tis", "hark",
}

// plainAlternative replaces poetic output when the speaker's register is plain.
const plainAlternative = "I'm here, and I'm listening. Take whatever space you need."

// registerAdjust rewrites poetic-looking output into a short conversational
// alternative when the utterance is plain first-person text. A sanctuary
// opener, when present as a leading line, is preserved.
func (c *Composer) registerAdjust(utterance, composed string) string {
	if !plainUtterance(utterance, c.config.PlainMaxWords) {
		return composed
	}
	if !poeticText(composed, c.config.PoeticMinChars) {
		return composed
	}
	if opener, _, found := strings.Cut(composed, "\n"); found && opener != "" && !poeticText(opener, c.config.PoeticMinChars) {
		return opener + "\n" + plainAlternative
	}
	return plainAlternative
}

// plainUtterance reports whether text is short, single-line, and
// predominantly lowercase.
func plainUtterance(text string, maxWords int) bool {
	if strings.Contains(text, "\n") {
		return false
	}
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > maxWords {
		return false
	}
	var upper, letters int
	for _, r := range text {
		if r >= 'A' && r <= 'Z' {
			upper++
			letters++
		} else if r >= 'a' && r <= 'z' {
			letters++
		}
	}
	return letters > 0 && float64(upper)/float64(letters) < 0.2
}

// poeticText reports whether composed output looks poetic: long with line
// breaks, or carrying archaic markers.
func poeticText(text string, minChars int) bool {
	if len(text) > minChars && strings.Contains(text, "\n") {
		return true
	}
	lower := strings.ToLower(text)
	for _, m := range archaicMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// #endregion
