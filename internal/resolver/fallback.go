package resolver

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

type intent struct {
	name     string
	keywords []string
}

// intents are evaluated in order; each contributes up to
// suggestionsPerIntent entries.
var intents = []intent{
	{"account", []string{"account", "login", "sign", "register", "profile"}},
	{"payment", []string{"pay", "bill", "cost", "price", "money", "credit", "charge"}},
	{"support", []string{"help", "support", "problem", "issue", "trouble", "error"}},
	{"password", []string{"password", "forgot", "reset", "change"}},
	{"cancel", []string{"cancel", "stop", "end", "terminate", "quit"}},
}

const (
	suggestionsPerIntent = 2
	maxSmartSuggestions  = 4
	maxPopular           = 3
	randomSuggestions    = 2
)

const (
	smartSuggestionsSource   = "AI Assistant - Smart Suggestions"
	popularSuggestionsSource = "AI Assistant - Popular Topics"
	categoryGuideSource      = "AI Assistant - Category Guide"
	didYouMeanSource         = "AI Assistant - Did You Mean"
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallbackGenerator composes suggestion responses when nothing matched.
type fallbackGenerator struct {
	faq          []corpus.Entry
	popular      []string
	supportEmail string

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func (g *fallbackGenerator) generate(queryLower string) MatchResult {
	if picks := g.intentSuggestions(queryLower); len(picks) > 0 {
		return MatchResult{
			Response: fmt.Sprintf("I couldn't find a specific answer to your question, but based on what you're asking about, these topics might help:\n\n%s\n\nYou can ask me about any of these topics specifically. If you need immediate assistance, please contact our support team at %s.",
				numberedQuestions(picks), g.supportEmail),
			Source:      smartSuggestionsSource,
			SourceType:  SourceSmartSuggestions,
			Suggestions: toSuggestions(picks),
		}
	}

	if picks := g.popularSuggestions(); len(picks) > 0 {
		return MatchResult{
			Response: fmt.Sprintf("I couldn't find a specific answer to your question, but here are some popular topics that might help:\n\n%s\n\nYou can ask me about any of these topics, or try rephrasing your question. If you need immediate assistance, please contact our support team at %s.",
				numberedQuestions(picks), g.supportEmail),
			Source:      popularSuggestionsSource,
			SourceType:  SourcePopularSuggestions,
			Suggestions: toSuggestions(picks),
		}
	}

	return g.categoryGuide()
}

// intentSuggestions gathers FAQ entries related to every intent the query
// mentions, without duplicates.
func (g *fallbackGenerator) intentSuggestions(queryLower string) []*corpus.FAQEntry {
	var picks []*corpus.FAQEntry
	seen := make(map[*corpus.FAQEntry]struct{})

	for _, in := range intents {
		if !containsAny(queryLower, in.keywords) {
			continue
		}
		taken := 0
		for _, e := range g.faq {
			if taken == suggestionsPerIntent {
				break
			}
			if !containsAny(strings.ToLower(e.FAQ.Question), in.keywords) &&
				!containsAny(strings.ToLower(e.FAQ.Answer), in.keywords) {
				continue
			}
			taken++
			if _, dup := seen[e.FAQ]; dup {
				continue
			}
			seen[e.FAQ] = struct{}{}
			picks = append(picks, e.FAQ)
		}
	}

	if len(picks) > maxSmartSuggestions {
		picks = picks[:maxSmartSuggestions]
	}
	return picks
}

// popularSuggestions returns curated questions present in the FAQ followed
// by a random sample of the rest.
func (g *fallbackGenerator) popularSuggestions() []*corpus.FAQEntry {
	var picks []*corpus.FAQEntry
	for _, q := range g.popular {
		if len(picks) == maxPopular {
			break
		}
		for _, e := range g.faq {
			if e.FAQ.Question == q {
				picks = append(picks, e.FAQ)
				break
			}
		}
	}

	popular := make(map[string]struct{}, len(g.popular))
	for _, q := range g.popular {
		popular[q] = struct{}{}
	}
	var others []*corpus.FAQEntry
	for _, e := range g.faq {
		if _, ok := popular[e.FAQ.Question]; !ok {
			others = append(others, e.FAQ)
		}
	}
	g.mu.Lock()
	g.rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	g.mu.Unlock()

	return append(picks, others[:min(randomSuggestions, len(others))]...)
}

func (g *fallbackGenerator) categoryGuide() MatchResult {
	return MatchResult{
		Response: fmt.Sprintf(`I couldn't find specific information about that topic. Here are some areas I can help you with:

• **Account Management** - Creating accounts, password resets, profile settings
• **Billing & Payments** - Payment methods, subscription management, invoices
• **Technical Support** - Troubleshooting, how-to guides, feature questions
• **Policies & Terms** - Privacy policy, terms of service, legal information

Try asking about any of these topics, or contact our support team at %s for personalized assistance.`, g.supportEmail),
		Source:     categoryGuideSource,
		SourceType: SourceCategoryGuide,
	}
}

func didYouMean(nearMisses []string) MatchResult {
	return MatchResult{
		Response: fmt.Sprintf("I found some topics that might be related to your question:\n\n%s\n\nDid you mean to ask about any of these? You can ask me more specifically about these topics.",
			numbered(nearMisses)),
		Source:     didYouMeanSource,
		SourceType: SourceDidYouMean,
		NearMisses: nearMisses,
	}
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func numberedQuestions(entries []*corpus.FAQEntry) string {
	qs := make([]string, len(entries))
	for i, e := range entries {
		qs[i] = e.Question
	}
	return numbered(qs)
}

func toSuggestions(entries []*corpus.FAQEntry) []Suggestion {
	out := make([]Suggestion, len(entries))
	for i, e := range entries {
		out[i] = Suggestion{Question: e.Question, Answer: e.Answer}
	}
	return out
}
