package router

import (
	"strings"
)

// #region policy

// FuzzyPolicy holds the per-family match thresholds in one place.
type FuzzyPolicy struct {
	NameInquiryThreshold float64
	FunctionalThreshold  float64
	CasualThreshold      float64
	TokenOverlapRatio    float64
}

// DefaultFuzzyPolicy returns the standard thresholds: name inquiry strict,
// functional and casual lax.
func DefaultFuzzyPolicy() FuzzyPolicy {
	return FuzzyPolicy{
		NameInquiryThreshold: 0.85,
		FunctionalThreshold:  0.55,
		CasualThreshold:      0.55,
		TokenOverlapRatio:    0.8,
	}
}

// #endregion

// #region matching

// matchesFamily applies the three-stage rule: exact substring wins, then
// sequence similarity at the threshold, then token overlap.
func (p FuzzyPolicy) matchesFamily(input string, patterns []string, threshold float64) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, pat := range patterns {
		if strings.Contains(input, pat) {
			return true
		}
		if similarity(input, pat) >= threshold {
			return true
		}
		if p.tokenOverlap(input, pat) {
			return true
		}
	}
	return false
}

// tokenOverlap reports whether input covers at least the configured share of
// the pattern's tokens.
func (p FuzzyPolicy) tokenOverlap(input, pattern string) bool {
	patTokens := strings.Fields(pattern)
	if len(patTokens) == 0 {
		return false
	}
	inTokens := make(map[string]bool)
	for _, t := range strings.Fields(input) {
		inTokens[strings.Trim(t, ".,!?;:\"'")] = true
	}
	hit := 0
	for _, t := range patTokens {
		if inTokens[t] {
			hit++
		}
	}
	return float64(hit) >= p.TokenOverlapRatio*float64(len(patTokens))
}

// #endregion

// #region similarity

// similarity is a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(editDistance(a, b))/float64(max)
}

// editDistance is the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// #endregion
