// Package fuzzy is an approximate text index over keyed records.
//
// Queries use an extended syntax: '|' separates alternatives, spaces separate
// tokens that must all match, and a token may carry an operator:
//
//	=text   exact field match
//	'text   field contains text
//	!text   field does not contain text
//	^text   field starts with text
//	!^text  field does not start with text
//	text$   field ends with text
//	!text$  field does not end with text
//
// Any other token is matched approximately. Scores run from 0 (perfect) to 1.
package fuzzy

import (
	"math"
	"sort"
	"strings"
)

// Record exposes named text fields of a searchable item.
type Record interface {
	Field(key string) (string, bool)
}

// Options configures an Index.
type Options struct {
	// Keys are the fields searched, each weighted equally.
	Keys []string
	// Tolerance is the largest token score (errors per pattern character)
	// still counted as a match.
	Tolerance float64
	// MinMatchCharLength is the shortest run of consecutive field characters,
	// each drawn from the token, that a fuzzy match must contain.
	MinMatchCharLength int
}

// Result is one matching record.
type Result struct {
	Index int
	Score float64
}

type field struct {
	key  int
	text string
	norm float64
}

// Index holds the lower-cased fields of a fixed record set. It is safe for
// concurrent searches.
type Index struct {
	opts      Options
	keyWeight float64
	records   [][]field
}

// New indexes records. Blank fields are skipped and never match.
func New[R Record](records []R, opts Options) *Index {
	idx := &Index{
		opts:    opts,
		records: make([][]field, len(records)),
	}
	if len(opts.Keys) > 0 {
		idx.keyWeight = 1 / float64(len(opts.Keys))
	}

	for i, rec := range records {
		for k, key := range opts.Keys {
			value, ok := rec.Field(key)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			idx.records[i] = append(idx.records[i], field{
				key:  k,
				text: strings.ToLower(value),
				norm: fieldNorm(value),
			})
		}
	}
	return idx
}

// Len is the number of indexed records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Search returns matching records ordered by ascending score, ties in index
// order. A limit of zero or less returns every match.
func (idx *Index) Search(pattern string, limit int) []Result {
	q := parseQuery(pattern, idx.opts)

	var results []Result
	for i, fields := range idx.records {
		matched := false
		total := 1.0
		for _, f := range fields {
			ok, score := q.match(f.text)
			if !ok {
				continue
			}
			matched = true
			if score == 0 {
				score = epsilon
			}
			total *= math.Pow(score, idx.keyWeight*f.norm)
		}
		if matched {
			results = append(results, Result{Index: i, Score: total})
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score < results[b].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// epsilon stands in for a zero token score so the product stays meaningful.
const epsilon = 2.220446049250313e-16

// fieldNorm shrinks the influence of long fields: 1/sqrt(words), rounded to
// three decimals.
func fieldNorm(value string) float64 {
	words := len(strings.FieldsFunc(value, func(r rune) bool { return r == ' ' }))
	if words == 0 {
		return 1
	}
	return math.Round(1/math.Sqrt(float64(words))*1000) / 1000
}
