package resolver

import (
	"time"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

// SourceType classifies where a MatchResult came from.
type SourceType string

const (
	SourceFAQ                SourceType = "faq"
	SourceLegal              SourceType = "legal"
	SourceMisc               SourceType = "misc"
	SourcePDF                SourceType = "pdf"
	SourceDidYouMean         SourceType = "did_you_mean"
	SourceSmartSuggestions   SourceType = "smart_suggestions"
	SourcePopularSuggestions SourceType = "popular_suggestions"
	SourceCategoryGuide      SourceType = "category_guide"
	SourceFallback           SourceType = "fallback"
	SourceError              SourceType = "error"
)

// IsFallback reports whether the result carries no direct answer.
func (s SourceType) IsFallback() bool {
	switch s {
	case SourceFAQ, SourceLegal, SourceMisc, SourcePDF:
		return false
	}
	return true
}

// Suggestion is an FAQ entry offered in place of an answer.
type Suggestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MatchResult is the answer to one query. Response is never empty.
type MatchResult struct {
	Response    string       `json:"response"`
	Source      string       `json:"source"`
	SourceType  SourceType   `json:"sourceType"`
	NearMisses  []string     `json:"nearMisses,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// Cacheable reports whether the same query will always produce this result.
func (r MatchResult) Cacheable() bool {
	return r.SourceType != SourcePopularSuggestions && r.SourceType != SourceError
}

// ScoredCandidate is an index hit: 0 is a perfect match, 1 unrelated.
type ScoredCandidate struct {
	Entry corpus.Entry
	Score float64
}

// DataSources counts the loaded corpora.
type DataSources struct {
	FAQ             int `json:"faq"`
	Legal           int `json:"legal"`
	Misc            int `json:"misc"`
	PDFs            int `json:"pdfs"`
	TotalSearchable int `json:"totalSearchable"`
}

// DocumentInfo describes one loaded document.
type DocumentInfo struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Pages       int       `json:"pages"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Status is a read-only view of the engine's state.
type Status struct {
	Initialized bool           `json:"initialized"`
	DataSources DataSources    `json:"dataSources"`
	Documents   []DocumentInfo `json:"documents"`
}

const (
	errorResponse = "I'm sorry, I encountered an error while processing your request. Please try again."
	errorSource   = "System"
)

func errorResult() MatchResult {
	return MatchResult{Response: errorResponse, Source: errorSource, SourceType: SourceError}
}
