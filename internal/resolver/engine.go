// Package resolver answers free-text questions from the loaded knowledge
// corpora. Resolution is a fixed cascade: exact match, category strategies,
// per-corpus fuzzy search, a relaxed best-available pass, and finally
// suggestion fallbacks.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helpdesk-kb/kbresolver/internal/cache"
	"github.com/helpdesk-kb/kbresolver/internal/config"
	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/ingest"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

const (
	blankQueryResponse = "I didn't catch a question there. Could you rephrase what you're looking for?"
	blankQuerySource   = "AI Assistant - Fallback"
)

// Engine resolves queries against corpora loaded once from a corpus.Loader.
// It is safe for concurrent use.
type Engine struct {
	loader        corpus.Loader
	cfg           config.ResolverConfig
	strategies    []SearchStrategy
	chunker       corpus.Chunker
	wordsPerChunk int
	indexFactory  IndexFactory
	logger        *observability.Logger
	metrics       *observability.Metrics
	cache         cache.Client
	cacheTTL      time.Duration
	rng           *rand.Rand

	mu          sync.Mutex
	initialized atomic.Bool
	state       atomic.Pointer[engineState]
}

type engineState struct {
	coll     *corpus.Collection
	idx      indexSet
	fallback *fallbackGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets thresholds and fallback content.
func WithConfig(cfg config.ResolverConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *observability.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRand sets the random source used to pick popular suggestions.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithStrategies replaces the category strategy table.
func WithStrategies(strategies []SearchStrategy) Option {
	return func(e *Engine) { e.strategies = strategies }
}

// WithMetrics records resolutions on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithChunker sets how documents are split into searchable chunks.
func WithChunker(chunker corpus.Chunker, wordsPerChunk int) Option {
	return func(e *Engine) {
		e.chunker = chunker
		e.wordsPerChunk = wordsPerChunk
	}
}

// WithIndexFactory replaces the approximate index implementation.
func WithIndexFactory(factory IndexFactory) Option {
	return func(e *Engine) { e.indexFactory = factory }
}

// WithCache caches deterministic results by normalized query.
func WithCache(c cache.Client, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// New creates an engine. Nothing is loaded until Initialize or the first
// Resolve.
func New(loader corpus.Loader, opts ...Option) *Engine {
	e := &Engine{
		loader:        loader,
		cfg:           config.DefaultResolverConfig(),
		strategies:    DefaultStrategies(),
		chunker:       ingest.ChunkDocument,
		wordsPerChunk: ingest.DefaultWordsPerChunk,
		indexFactory:  NewFuzzyIndex,
		logger:        observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = corpus.StaticLoader{}
	}
	if e.rng == nil {
		seed := e.cfg.RandomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.rng = rand.New(rand.NewSource(seed))
	}
	e.logger = e.logger.WithOperation("resolver")
	return e
}

// IsInitialized reports whether corpora and indexes have been built.
func (e *Engine) IsInitialized() bool {
	return e.initialized.Load()
}

// Initialize loads the corpora and builds the indexes. Calling it again, even
// concurrently, is a no-op. Load failures degrade to empty corpora; only a
// cancelled context or an invalid strategy table is reported.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.initialized.Load() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized.Load() {
		return nil
	}

	if err := ValidateStrategies(e.strategies); err != nil {
		return fmt.Errorf("invalid strategy table: %w", err)
	}

	start := time.Now()
	snap, err := e.loader.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Warn().Err(err).Msg("Corpus loading failed, starting with empty corpora")
		snap = nil
	}

	coll := corpus.NewCollection(snap, e.chunker, e.wordsPerChunk)
	state := &engineState{
		coll: coll,
		idx:  buildIndexes(coll, e.indexFactory),
		fallback: &fallbackGenerator{
			faq:          coll.FAQ,
			popular:      e.cfg.PopularQuestions,
			supportEmail: e.cfg.SupportEmail,
			rng:          e.rng,
		},
	}
	e.state.Store(state)
	e.initialized.Store(true)

	e.logger.Info().
		Int("faq", len(coll.FAQ)).
		Int("legal", len(coll.Legal)).
		Int("misc", len(coll.Misc)).
		Int("documents", len(coll.Documents)).
		Int("chunks", len(coll.Chunks)).
		Dur("duration", time.Since(start)).
		Msg("Resolver initialized")
	return nil
}

// Resolve answers query. It never returns an empty response: unexpected
// failures become an error-typed result.
func (e *Engine) Resolve(ctx context.Context, query string) (result MatchResult) {
	start := time.Now()
	stage := StageError

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Resolution failed")
			result = errorResult()
			stage = StageError
		}
		e.metrics.ObserveResolution(stage, string(result.SourceType), time.Since(start))
	}()

	if err := e.Initialize(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Resolver initialization failed")
		return errorResult()
	}

	query = strings.TrimSpace(query)
	if query == "" {
		stage = StageFallback
		return MatchResult{Response: blankQueryResponse, Source: blankQuerySource, SourceType: SourceFallback}
	}

	if cached, ok := e.cached(ctx, query); ok {
		stage = "cache"
		return cached
	}

	result, stage = e.resolve(e.state.Load(), query)

	e.logger.WithStage(stage).Debug().Str("source_type", string(result.SourceType)).
		Dur("duration", time.Since(start)).Msg("Query resolved")

	if result.Cacheable() {
		e.store(ctx, query, result)
	}
	return result
}

func (e *Engine) resolve(s *engineState, query string) (MatchResult, string) {
	queryLower := strings.ToLower(query)

	if r, ok := e.exactMatch(s, queryLower); ok && r.Response != "" {
		return r, StageExact
	}
	if r, ok := e.strategyMatch(s, queryLower); ok {
		return r, StageStrategy
	}
	if r, ok := e.fuzzyMatch(s, query); ok {
		return r, StageFuzzy
	}
	if r, ok := e.bestAvailable(s, query); ok {
		return r, StageBestAvailable
	}
	return s.fallback.generate(queryLower), StageFallback
}

func (e *Engine) cached(ctx context.Context, query string) (MatchResult, bool) {
	if e.cache == nil {
		return MatchResult{}, false
	}
	data, err := e.cache.Get(ctx, cache.QueryKey(query))
	if err != nil {
		return MatchResult{}, false
	}
	var result MatchResult
	if err := json.Unmarshal(data, &result); err != nil || result.Response == "" {
		return MatchResult{}, false
	}
	return result, true
}

func (e *Engine) store(ctx context.Context, query string, result MatchResult) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, cache.QueryKey(query), data, e.cacheTTL); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to cache result")
	}
}

// Status reports what has been loaded. Before initialization all counts are
// zero.
func (e *Engine) Status() Status {
	status := Status{
		Initialized: e.initialized.Load(),
		Documents:   []DocumentInfo{},
	}

	s := e.state.Load()
	if s == nil {
		return status
	}

	all := s.coll.All()
	status.DataSources = DataSources{PDFs: len(s.coll.Documents), TotalSearchable: len(all)}
	for _, entry := range all {
		switch entry.Kind {
		case corpus.KindFAQ:
			status.DataSources.FAQ++
		case corpus.KindLegal:
			status.DataSources.Legal++
		case corpus.KindMisc:
			status.DataSources.Misc++
		}
	}
	for _, doc := range s.coll.Documents {
		status.Documents = append(status.Documents, DocumentInfo{
			Filename:    doc.Filename,
			Title:       doc.Title,
			Pages:       doc.Pages,
			ExtractedAt: doc.ExtractedAt,
		})
	}
	return status
}
