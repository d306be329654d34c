package resolver

import (
	"math"
	"strings"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
)

// Stage names used in logs and metrics.
const (
	StageExact         = "exact"
	StageStrategy      = "strategy"
	StageFuzzy         = "fuzzy"
	StageBestAvailable = "best_available"
	StageFallback      = "fallback"
	StageError         = "error"
)

const bestMatchSuffix = " (Best Match)"

// exactMatch looks for a misc, then FAQ, entry whose question equals the
// query ignoring case.
func (e *Engine) exactMatch(s *engineState, queryLower string) (MatchResult, bool) {
	for _, entries := range [][]corpus.Entry{s.coll.Misc, s.coll.FAQ} {
		for _, entry := range entries {
			if strings.ToLower(entry.PrimaryText()) == queryLower {
				e.logger.WithStage(StageExact).Debug().Str("corpus", string(entry.Kind)).
					Str("question", entry.PrimaryText()).Msg("Exact match")
				return e.render(ScoredCandidate{Entry: entry}, false), true
			}
		}
	}
	return MatchResult{}, false
}

// strategyMatch evaluates the strategy table in order. Unless fallthrough
// is enabled, the first strategy whose keywords fire ends the stage whether
// or not its lookup succeeds.
func (e *Engine) strategyMatch(s *engineState, queryLower string) (MatchResult, bool) {
	for _, strategy := range e.strategies {
		if !strategy.Triggered(queryLower) {
			continue
		}

		result, ok := strategy.lookup(queryLower, s.coll)
		e.logger.WithStage(StageStrategy).Debug().Str("strategy", strategy.Name).
			Bool("matched", ok).Msg("Strategy keywords fired")
		if ok && result.Response != "" {
			return result, true
		}
		if !e.cfg.StrategyFallthrough {
			return MatchResult{}, false
		}
	}
	return MatchResult{}, false
}

// fuzzyMatch searches misc, FAQ, legal and document chunks in that order and
// accepts the first top candidate within its corpus threshold.
func (e *Engine) fuzzyMatch(s *engineState, query string) (MatchResult, bool) {
	stages := []struct {
		kind      corpus.Kind
		index     Index
		threshold float64
	}{
		{corpus.KindMisc, s.idx.misc, e.cfg.MiscThreshold},
		{corpus.KindFAQ, s.idx.faq, e.cfg.FAQThreshold},
		{corpus.KindLegal, s.idx.legal, e.cfg.LegalThreshold},
		{corpus.KindPDFChunk, s.idx.chunks, e.cfg.DocumentThreshold},
	}

	for _, st := range stages {
		candidate, ok := top(st.index, query)
		if !ok {
			continue
		}
		accepted := candidate.Score <= st.threshold
		e.logger.WithStage(StageFuzzy).Debug().Str("corpus", string(st.kind)).
			Float64("score", candidate.Score).Bool("accepted", accepted).Msg("Fuzzy candidate")
		if accepted {
			if result := e.render(candidate, false); result.Response != "" {
				return result, true
			}
		}
	}
	return MatchResult{}, false
}

type rankedCandidate struct {
	ScoredCandidate
	priority int
}

// bestAvailable reconsiders the top FAQ, legal and chunk candidates under
// relaxed ceilings. It returns a direct answer for a strong enough winner and
// otherwise a did-you-mean listing of the accepted candidates.
func (e *Engine) bestAvailable(s *engineState, query string) (MatchResult, bool) {
	pools := []struct {
		index   Index
		ceiling float64
	}{
		{s.idx.faq, e.cfg.FAQCeiling},
		{s.idx.legal, e.cfg.LegalCeiling},
		{s.idx.chunks, e.cfg.DocumentCeiling},
	}

	var candidates []rankedCandidate
	for i, p := range pools {
		candidate, ok := top(p.index, query)
		if ok && candidate.Score <= p.ceiling {
			candidates = append(candidates, rankedCandidate{ScoredCandidate: candidate, priority: i + 1})
		}
	}
	if len(candidates) == 0 {
		return MatchResult{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		best = e.preferred(best, c)
	}

	e.logger.WithStage(StageBestAvailable).Debug().Str("corpus", string(best.Entry.Kind)).
		Float64("score", best.Score).Int("candidates", len(candidates)).Msg("Best available candidate")

	if best.Score <= e.cfg.BestMatchThreshold {
		if result := e.render(best.ScoredCandidate, true); result.Response != "" {
			return result, true
		}
	}

	var nearMisses []string
	for _, c := range candidates[:min(e.cfg.MaxNearMisses, len(candidates))] {
		if title := c.Entry.PrimaryText(); title != "" {
			nearMisses = append(nearMisses, title)
		}
	}
	if len(nearMisses) == 0 {
		return MatchResult{}, false
	}
	return didYouMean(nearMisses), true
}

// preferred picks between two candidates: near-equal scores go to the lower
// priority number, otherwise the lower score wins.
func (e *Engine) preferred(a, b rankedCandidate) rankedCandidate {
	if math.Abs(a.Score-b.Score) < e.cfg.TieMargin {
		if a.priority < b.priority {
			return a
		}
		return b
	}
	if a.Score < b.Score {
		return a
	}
	return b
}

// render turns a candidate into a direct answer.
func (e *Engine) render(c ScoredCandidate, bestMatch bool) MatchResult {
	suffix := ""
	if bestMatch {
		suffix = bestMatchSuffix
	}

	switch c.Entry.Kind {
	case corpus.KindMisc:
		return MatchResult{Response: c.Entry.Misc.Answer, Source: "Misc Database", SourceType: SourceMisc}
	case corpus.KindFAQ:
		return MatchResult{Response: c.Entry.FAQ.Answer, Source: "FAQ Database" + suffix, SourceType: SourceFAQ}
	case corpus.KindLegal:
		return MatchResult{
			Response:   c.Entry.Legal.Content,
			Source:     "Legal Database - " + c.Entry.Legal.Title + suffix,
			SourceType: SourceLegal,
		}
	case corpus.KindPDFChunk:
		return MatchResult{
			Response:   FormatChunkResponse(c.Entry.Chunk, e.cfg.MaxResponseLength),
			Source:     "PDF Document - " + c.Entry.Chunk.Source + suffix,
			SourceType: SourcePDF,
		}
	}
	return MatchResult{}
}
