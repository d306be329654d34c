package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

// DocumentSource supplies extracted long-form documents.
type DocumentSource interface {
	LoadDocuments(ctx context.Context) ([]Document, error)
}

// FileLoader reads the structured corpora from JSON files and documents from
// an optional DocumentSource.
type FileLoader struct {
	FAQPath   string
	LegalPath string
	MiscPath  string
	Documents DocumentSource

	logger *observability.Logger
}

// NewFileLoader creates a loader for the given JSON files. Any path may be
// empty, which yields an empty corpus.
func NewFileLoader(logger *observability.Logger, faqPath, legalPath, miscPath string, docs DocumentSource) *FileLoader {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &FileLoader{
		FAQPath:   faqPath,
		LegalPath: legalPath,
		MiscPath:  miscPath,
		Documents: docs,
		logger:    logger,
	}
}

// Load reads every source. Missing or malformed files are logged and become
// empty corpora; Load itself only fails when ctx is cancelled.
func (l *FileLoader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	snap.FAQ = readJSONCorpus[FAQEntry](l.logger, "faq", l.FAQPath)
	snap.Legal = readJSONCorpus[LegalEntry](l.logger, "legal", l.LegalPath)
	snap.Misc = readJSONCorpus[MiscEntry](l.logger, "misc", l.MiscPath)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.Documents != nil {
		docs, err := l.Documents.LoadDocuments(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.Warn().Err(err).Msg("Document loading failed, continuing without documents")
			docs = nil
		}
		snap.Documents = docs
	}

	l.logger.Info().
		Int("faq", len(snap.FAQ)).
		Int("legal", len(snap.Legal)).
		Int("misc", len(snap.Misc)).
		Int("documents", len(snap.Documents)).
		Msg("Corpora loaded")

	return snap.Normalize(), nil
}

func readJSONCorpus[T any](logger *observability.Logger, name, path string) []T {
	if path == "" {
		return []T{}
	}

	items, err := decodeJSONFile[T](path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("corpus", name).Str("path", path).Msg("Corpus file not found, using empty corpus")
		} else {
			logger.Warn().Err(err).Str("corpus", name).Str("path", path).Msg("Corpus file unreadable, using empty corpus")
		}
		return []T{}
	}

	logger.Debug().Str("corpus", name).Int("items", len(items)).Msg("Loaded corpus file")
	return items
}

func decodeJSONFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ReadJSONFile decodes a JSON array of records, reporting errors instead of
// absorbing them. Used by import tooling.
func ReadJSONFile[T any](path string) ([]T, error) {
	return decodeJSONFile[T](path)
}
