// Package corpus defines the knowledge records the resolver searches and the
// loaders that produce them.
package corpus

import (
	"context"
	"time"
)

// Kind identifies which corpus an entry belongs to.
type Kind string

const (
	KindFAQ      Kind = "faq"
	KindLegal    Kind = "legal"
	KindMisc     Kind = "misc"
	KindPDFChunk Kind = "pdf_chunk"
)

// FAQEntry is a question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// LegalEntry is a titled legal clause.
type LegalEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// MiscEntry is a greeting or small-talk pair.
type MiscEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Document is the extracted text of one long-form file.
type Document struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	Pages       int       `json:"pages"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// DocumentChunk is a position-tagged slice of a Document's text.
type DocumentChunk struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
}

// Snapshot is everything a loader produced. Slices may be empty but are
// never nil once Normalize has run.
type Snapshot struct {
	FAQ       []FAQEntry
	Legal     []LegalEntry
	Misc      []MiscEntry
	Documents []Document
}

// Normalize replaces nil slices with empty ones.
func (s *Snapshot) Normalize() *Snapshot {
	if s.FAQ == nil {
		s.FAQ = []FAQEntry{}
	}
	if s.Legal == nil {
		s.Legal = []LegalEntry{}
	}
	if s.Misc == nil {
		s.Misc = []MiscEntry{}
	}
	if s.Documents == nil {
		s.Documents = []Document{}
	}
	return s
}

// Loader produces a corpus snapshot. Implementations absorb missing or
// unreadable sources by returning empty slices for them.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// StaticLoader serves a fixed snapshot.
type StaticLoader struct {
	Snapshot Snapshot
}

// Load returns a copy of the static snapshot.
func (l StaticLoader) Load(ctx context.Context) (*Snapshot, error) {
	snap := l.Snapshot
	return snap.Normalize(), nil
}
