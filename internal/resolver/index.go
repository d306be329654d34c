package resolver

import (
	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/fuzzy"
)

// Index finds approximate matches within one corpus, best first.
type Index interface {
	Search(query string, limit int) []ScoredCandidate
}

// IndexFactory builds the index for one non-empty corpus.
type IndexFactory func(kind corpus.Kind, entries []corpus.Entry) Index

// IndexOptions are the matching parameters used for each corpus.
var IndexOptions = map[corpus.Kind]fuzzy.Options{
	corpus.KindMisc:     {Keys: []string{"question"}, Tolerance: 0.2, MinMatchCharLength: 1},
	corpus.KindFAQ:      {Keys: []string{"question"}, Tolerance: 0.6, MinMatchCharLength: 2},
	corpus.KindLegal:    {Keys: []string{"title", "content"}, Tolerance: 0.4, MinMatchCharLength: 2},
	corpus.KindPDFChunk: {Keys: []string{"title", "content"}, Tolerance: 0.6, MinMatchCharLength: 3},
}

// NewFuzzyIndex is the default IndexFactory.
func NewFuzzyIndex(kind corpus.Kind, entries []corpus.Entry) Index {
	return &fuzzyIndex{
		entries: entries,
		index:   fuzzy.New(entries, IndexOptions[kind]),
	}
}

type fuzzyIndex struct {
	entries []corpus.Entry
	index   *fuzzy.Index
}

func (f *fuzzyIndex) Search(query string, limit int) []ScoredCandidate {
	results := f.index.Search(query, limit)
	out := make([]ScoredCandidate, len(results))
	for i, r := range results {
		out[i] = ScoredCandidate{Entry: f.entries[r.Index], Score: r.Score}
	}
	return out
}

// indexSet holds one index per corpus; a nil field means the corpus is empty.
type indexSet struct {
	misc   Index
	faq    Index
	legal  Index
	chunks Index
}

func buildIndexes(coll *corpus.Collection, factory IndexFactory) indexSet {
	build := func(kind corpus.Kind) Index {
		entries := coll.Of(kind)
		if len(entries) == 0 {
			return nil
		}
		return factory(kind, entries)
	}
	return indexSet{
		misc:   build(corpus.KindMisc),
		faq:    build(corpus.KindFAQ),
		legal:  build(corpus.KindLegal),
		chunks: build(corpus.KindPDFChunk),
	}
}

// top returns the best candidate of idx, if any.
func top(idx Index, query string) (ScoredCandidate, bool) {
	if idx == nil {
		return ScoredCandidate{}, false
	}
	results := idx.Search(query, 1)
	if len(results) == 0 {
		return ScoredCandidate{}, false
	}
	return results[0], true
}
