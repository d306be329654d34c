package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

// DefaultConcurrency bounds parallel extractions when none is configured.
const DefaultConcurrency = 2

// ProgressFunc is called once per file after its extraction finishes.
type ProgressFunc func(filename string, doc corpus.Document, err error)

// DirectoryLoader extracts every PDF in a directory.
type DirectoryLoader struct {
	Dir         string
	Extractor   Extractor
	Concurrency int
	OnProgress  ProgressFunc

	logger *observability.Logger
}

// NewDirectoryLoader creates a loader using the PDF extractor.
func NewDirectoryLoader(logger *observability.Logger, dir string, concurrency int) *DirectoryLoader {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &DirectoryLoader{
		Dir:         dir,
		Extractor:   NewPDFExtractor(),
		Concurrency: concurrency,
		logger:      logger.WithOperation("ingest"),
	}
}

// Files lists the PDF files in the directory, sorted by name. A missing
// directory yields no files.
func (l *DirectoryLoader) Files() ([]string, error) {
	info, err := os.Stat(l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, newError("stat", l.Dir, err)
	}
	if !info.IsDir() {
		return nil, newError("list", l.Dir, ErrNotDirectory)
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, newError("list", l.Dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// LoadDocuments extracts all PDFs with bounded parallelism. Files that fail
// are logged and skipped; the result keeps file name order.
func (l *DirectoryLoader) LoadDocuments(ctx context.Context) ([]corpus.Document, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		l.logger.Info().Str("dir", l.Dir).Msg("No documents found")
		return []corpus.Document{}, nil
	}

	l.logger.Info().Str("dir", l.Dir).Int("files", len(files)).Msg("Extracting documents")

	limit := l.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	extracted := make([]*corpus.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path := filepath.Join(l.Dir, name)
			doc, err := l.Extractor.Extract(gctx, path)
			if l.OnProgress != nil {
				l.OnProgress(name, doc, err)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				l.logger.Warn().Err(err).Str("file", name).Msg("Failed to extract document, skipping")
				return nil
			}

			l.logger.Debug().Str("file", name).Int("pages", doc.Pages).Msg("Extracted document")
			extracted[i] = &doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]corpus.Document, 0, len(files))
	for _, doc := range extracted {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}

	l.logger.Info().Int("documents", len(docs)).Int("skipped", len(files)-len(docs)).Msg("Document extraction complete")
	return docs, nil
}
