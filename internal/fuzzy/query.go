package fuzzy

import (
	"regexp"
	"strings"
)

// matcher scores a lower-cased field text against one query token.
type matcher interface {
	match(text string) (bool, float64)
}

type matcherKind int

const (
	kindExact matcherKind = iota
	kindInclude
	kindPrefix
	kindInversePrefix
	kindInverseSuffix
	kindSuffix
	kindInverseExact
	kindFuzzy
)

// Order matters: the first operator whose pattern yields a non-empty token
// claims it.
var tokenOperators = []struct {
	kind   matcherKind
	single *regexp.Regexp
	quoted *regexp.Regexp
}{
	{kindExact, regexp.MustCompile(`^=(.*)$`), regexp.MustCompile(`^="(.*)"$`)},
	{kindInclude, regexp.MustCompile(`^'(.*)$`), regexp.MustCompile(`^'"(.*)"$`)},
	{kindPrefix, regexp.MustCompile(`^\^(.*)$`), regexp.MustCompile(`^\^"(.*)"$`)},
	{kindInversePrefix, regexp.MustCompile(`^!\^(.*)$`), regexp.MustCompile(`^!\^"(.*)"$`)},
	{kindInverseSuffix, regexp.MustCompile(`^!(.*)\$$`), regexp.MustCompile(`^!"(.*)"\$$`)},
	{kindSuffix, regexp.MustCompile(`^(.*)\$$`), regexp.MustCompile(`^"(.*)"\$$`)},
	{kindInverseExact, regexp.MustCompile(`^!(.*)$`), regexp.MustCompile(`^!"(.*)"$`)},
	{kindFuzzy, regexp.MustCompile(`^(.*)$`), regexp.MustCompile(`^"(.*)"$`)},
}

// query is a disjunction of conjunctive token groups.
type query [][]matcher

// parseQuery splits pattern into OR groups on '|' and each group into
// space-separated tokens. Quoted phrases stay a single token.
func parseQuery(pattern string, opts Options) query {
	pattern = strings.ToLower(pattern)

	var q query
	for _, group := range strings.Split(pattern, "|") {
		var matchers []matcher
		for _, token := range splitTokens(strings.TrimSpace(group)) {
			if m := newMatcher(token, opts); m != nil {
				matchers = append(matchers, m)
			}
		}
		q = append(q, matchers)
	}
	return q
}

func newMatcher(token string, opts Options) matcher {
	for _, op := range tokenOperators {
		if m := op.quoted.FindStringSubmatch(token); m != nil && m[1] != "" {
			return buildMatcher(op.kind, m[1], opts)
		}
	}
	for _, op := range tokenOperators {
		if m := op.single.FindStringSubmatch(token); m != nil && m[1] != "" {
			return buildMatcher(op.kind, m[1], opts)
		}
	}
	return nil
}

func buildMatcher(kind matcherKind, pattern string, opts Options) matcher {
	if kind == kindFuzzy {
		return newApproxMatcher(pattern, opts)
	}
	return literalMatcher{kind: kind, pattern: pattern}
}

// splitTokens splits on runs of spaces that are not inside double quotes.
func splitTokens(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			tokens = append(tokens, current.String())
		}
		current.Reset()
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case r == ' ' && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type literalMatcher struct {
	kind    matcherKind
	pattern string
}

func (m literalMatcher) match(text string) (bool, float64) {
	var ok bool
	switch m.kind {
	case kindExact:
		ok = text == m.pattern
	case kindInclude:
		ok = strings.Contains(text, m.pattern)
	case kindPrefix:
		ok = strings.HasPrefix(text, m.pattern)
	case kindInversePrefix:
		ok = !strings.HasPrefix(text, m.pattern)
	case kindSuffix:
		ok = strings.HasSuffix(text, m.pattern)
	case kindInverseSuffix:
		ok = !strings.HasSuffix(text, m.pattern)
	case kindInverseExact:
		ok = !strings.Contains(text, m.pattern)
	}
	if ok {
		return true, 0
	}
	return false, 1
}

// match evaluates the query against one field. The first OR group whose
// tokens all match wins; its score is the mean token score.
func (q query) match(text string) (bool, float64) {
	for _, group := range q {
		if len(group) == 0 {
			continue
		}
		total := 0.0
		matched := true
		for _, m := range group {
			ok, score := m.match(text)
			if !ok {
				matched = false
				break
			}
			total += score
		}
		if matched {
			return true, total / float64(len(group))
		}
	}
	return false, 1
}
