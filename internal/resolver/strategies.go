package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

// StrategyMode selects the corpus lookup a strategy performs.
type StrategyMode string

const (
	// ModeFAQTerms finds the first FAQ entry mentioning any search term.
	ModeFAQTerms StrategyMode = "faq-terms"
	// ModeLegalDirect finds the first legal entry overlapping the query.
	ModeLegalDirect StrategyMode = "legal-direct"
)

// SearchStrategy pairs trigger keywords with a corpus lookup.
type SearchStrategy struct {
	Name        string
	Priority    int
	Keywords    []string
	Mode        StrategyMode
	SearchTerms []string
	SourceLabel string
}

// Triggered reports whether the lower-cased query contains any keyword.
func (s SearchStrategy) Triggered(queryLower string) bool {
	for _, kw := range s.Keywords {
		if strings.Contains(queryLower, kw) {
			return true
		}
	}
	return false
}

// DefaultStrategies returns the canonical strategy table in evaluation order.
func DefaultStrategies() []SearchStrategy {
	return []SearchStrategy{
		{
			Name:     "payment",
			Priority: 3,
			Keywords: []string{
				"payment method", "pay with", "paying with", "online payment",
				"digital payment", "electronic payment", "how to pay", "payment options",
				"payment accepted", "fee payment", "billing", "invoice",
				"credit card", "debit card", "paypal", "bank transfer",
			},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"payment", "billing", "invoice", "credit card"},
			SourceLabel: "FAQ Database - Payment Methods",
		},
		{
			Name:        "pricing",
			Priority:    4,
			Keywords:    []string{"cost", "price", "pricing", "much", "fee", "charge", "rate", "expensive"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"pricing", "cost", "fee"},
			SourceLabel: "FAQ Database - Pricing",
		},
		{
			Name:     "legal",
			Priority: 5,
			Keywords: []string{
				"terms", "policy", "policies", "privacy", "data protection", "legal",
				"liability", "cancel", "cancellation", "warranty", "warranties",
				"dispute", "arbitration", "intellectual property", "copyright", "refund",
				"confidential", "confidentiality", "agreement", "contract", "compliance",
				"violation", "breach", "terms of service", "user agreement",
				"acceptable use", "code of conduct",
			},
			Mode:        ModeLegalDirect,
			SourceLabel: "Legal Database",
		},
		{
			Name:        "account",
			Priority:    6,
			Keywords:    []string{"account", "profile", "subscription", "service", "membership"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"account", "profile", "subscription", "service"},
			SourceLabel: "FAQ Database - Account",
		},
		{
			Name:        "support",
			Priority:    7,
			Keywords:    []string{"help", "support", "tutorial", "guide", "how to"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"help", "support", "how"},
			SourceLabel: "FAQ Database - Support",
		},
		{
			Name:        "security",
			Priority:    8,
			Keywords:    []string{"security", "protection", "safety", "secure"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"security", "protection"},
			SourceLabel: "FAQ Database - Security",
		},
		{
			Name:        "billing",
			Priority:    9,
			Keywords:    []string{"billing", "transaction", "payment", "invoice"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"billing", "payment"},
			SourceLabel: "FAQ Database - Billing",
		},
		{
			Name:        "features",
			Priority:    10,
			Keywords:    []string{"feature", "service", "function", "capability"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"feature", "service"},
			SourceLabel: "FAQ Database - Features",
		},
		{
			Name:        "terms",
			Priority:    11,
			Keywords:    []string{"terms", "conditions", "agreement", "policy"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"terms", "policy"},
			SourceLabel: "FAQ Database - Terms",
		},
		{
			Name:        "updates",
			Priority:    12,
			Keywords:    []string{"update", "new", "release", "date", "version"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"update", "new", "release"},
			SourceLabel: "FAQ Database - Updates",
		},
		{
			Name:        "issues",
			Priority:    13,
			Keywords:    []string{"issue", "problem", "error", "trouble"},
			Mode:        ModeFAQTerms,
			SearchTerms: []string{"issue", "problem"},
			SourceLabel: "FAQ Database - Issues",
		},
	}
}

// Strategy table errors.
var (
	ErrDuplicateStrategy = errors.New("duplicate strategy name")
	ErrInvalidStrategy   = errors.New("invalid strategy")
)

// ValidateStrategies checks a strategy table for structural mistakes.
func ValidateStrategies(strategies []SearchStrategy) error {
	seen := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		if s.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidStrategy)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStrategy, s.Name)
		}
		seen[s.Name] = struct{}{}

		if len(s.Keywords) == 0 {
			return fmt.Errorf("%w: %s has no keywords", ErrInvalidStrategy, s.Name)
		}
		for _, kw := range s.Keywords {
			if kw == "" || kw != strings.ToLower(kw) {
				return fmt.Errorf("%w: %s keyword %q must be non-empty lowercase", ErrInvalidStrategy, s.Name, kw)
			}
		}
		if s.SourceLabel == "" {
			return fmt.Errorf("%w: %s has no source label", ErrInvalidStrategy, s.Name)
		}

		switch s.Mode {
		case ModeFAQTerms:
			if len(s.SearchTerms) == 0 {
				return fmt.Errorf("%w: %s needs search terms", ErrInvalidStrategy, s.Name)
			}
			for _, term := range s.SearchTerms {
				if term == "" || term != strings.ToLower(term) {
					return fmt.Errorf("%w: %s search term %q must be non-empty lowercase", ErrInvalidStrategy, s.Name, term)
				}
			}
		case ModeLegalDirect:
			if len(s.SearchTerms) != 0 {
				return fmt.Errorf("%w: %s must not carry search terms", ErrInvalidStrategy, s.Name)
			}
		default:
			return fmt.Errorf("%w: %s has unknown mode %q", ErrInvalidStrategy, s.Name, s.Mode)
		}
	}
	return nil
}

// lookup runs the strategy's corpus action.
func (s SearchStrategy) lookup(queryLower string, coll *corpus.Collection) (MatchResult, bool) {
	switch s.Mode {
	case ModeLegalDirect:
		for _, e := range coll.Legal {
			title := strings.ToLower(e.Legal.Title)
			content := strings.ToLower(e.Legal.Content)
			titleHit := title != "" && (strings.Contains(queryLower, title) || strings.Contains(title, queryLower))
			if titleHit || strings.Contains(content, queryLower) {
				return MatchResult{
					Response:   e.Legal.Content,
					Source:     s.SourceLabel + " - " + e.Legal.Title,
					SourceType: SourceLegal,
				}, true
			}
		}
	case ModeFAQTerms:
		for _, e := range coll.FAQ {
			question := strings.ToLower(e.FAQ.Question)
			answer := strings.ToLower(e.FAQ.Answer)
			for _, term := range s.SearchTerms {
				if strings.Contains(question, term) || strings.Contains(answer, term) {
					return MatchResult{
						Response:   e.FAQ.Answer,
						Source:     s.SourceLabel,
						SourceType: SourceFAQ,
					}, true
				}
			}
		}
	}
	return MatchResult{}, false
}
