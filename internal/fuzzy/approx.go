package fuzzy

import "math"

// minTokenScore is the best score a non-identical fuzzy match can get.
const minTokenScore = 0.001

// approxMatcher finds pattern as an approximate substring of the text.
type approxMatcher struct {
	pattern   string
	runes     []rune
	tolerance float64
	minRun    int
}

func newApproxMatcher(pattern string, opts Options) *approxMatcher {
	return &approxMatcher{
		pattern:   pattern,
		runes:     []rune(pattern),
		tolerance: opts.Tolerance,
		minRun:    opts.MinMatchCharLength,
	}
}

func (m *approxMatcher) match(text string) (bool, float64) {
	if text == m.pattern {
		return true, 0
	}

	textRunes := []rune(text)
	errors := substringDistance(m.runes, textRunes)
	score := math.Max(minTokenScore, float64(errors)/float64(len(m.runes)))
	if score > m.tolerance {
		return false, 1
	}

	if m.minRun > 1 && longestAlphabetRun(m.runes, textRunes) < m.minRun {
		return false, 1
	}
	return true, score
}

// substringDistance is the smallest edit distance between pattern and any
// substring of text.
func substringDistance(pattern, text []rune) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}

	// prev[i] is the distance of pattern[:i] ending at the previous text
	// position. Row 0 is free everywhere so a match may start anywhere.
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for i := range prev {
		prev[i] = i
	}
	best := prev[m]

	for _, tr := range text {
		curr[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == tr {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		if curr[m] < best {
			best = curr[m]
		}
		prev, curr = curr, prev
	}
	return best
}

// longestAlphabetRun is the length of the longest run of consecutive text
// characters that all occur somewhere in the pattern.
func longestAlphabetRun(pattern, text []rune) int {
	alphabet := make(map[rune]struct{}, len(pattern))
	for _, r := range pattern {
		alphabet[r] = struct{}{}
	}

	longest, run := 0, 0
	for _, r := range text {
		if _, ok := alphabet[r]; ok {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}
