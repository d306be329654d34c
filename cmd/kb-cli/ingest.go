package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/ingest"
	"github.com/helpdesk-kb/kbresolver/internal/storage"
)

var errNoSQLStore = errors.New("storage driver must be sqlite or postgres (set storage.driver or DATABASE_URL)")

// openStore connects to the configured SQL store.
func (c *cli) openStore(ctx context.Context) (*storage.CorpusRepository, func() error, error) {
	switch c.cfg.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return nil, nil, errNoSQLStore
	}

	db, err := storage.Open(ctx, c.cfg.Storage.Driver, c.cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return storage.NewCorpusRepository(db, c.logger), db.Close, nil
}

// DocumentSummary describes one extracted document.
type DocumentSummary struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Pages    int    `json:"pages"`
	Words    int    `json:"words"`
	Chunks   int    `json:"chunks"`
	Stored   bool   `json:"stored"`
}

func summarize(docs []corpus.Document, wordsPerChunk int) []DocumentSummary {
	out := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		chunks := ingest.ChunkDocument(doc, wordsPerChunk)
		words := 0
		for _, ch := range chunks {
			words += len(strings.Fields(ch.Content))
		}
		out = append(out, DocumentSummary{
			Filename: doc.Filename,
			Title:    doc.Title,
			Pages:    doc.Pages,
			Words:    words,
			Chunks:   len(chunks),
		})
	}
	return out
}

func newIngestCmd(c *cli) *cobra.Command {
	var (
		store       bool
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Extract PDF documents and report how they chunk",
		Long: `Ingest extracts the text of every PDF in a directory, splits it into
chunks the way the resolver will, and prints a summary.

With --store the extracted documents are written to the SQL store so
the API can serve them without extracting at startup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if concurrency <= 0 {
				concurrency = c.cfg.Data.MaxConcurrentExtraction
			}
			loader := ingest.NewDirectoryLoader(c.logger, args[0], concurrency)

			files, err := loader.Files()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				if c.outputJSON {
					return c.ui.JSON([]DocumentSummary{})
				}
				c.ui.Warning("No PDF files found in %s", args[0])
				return nil
			}

			var (
				mu     sync.Mutex
				failed []string
			)
			bar := c.ui.ProgressBar("Extracting", int64(len(files)))
			loader.OnProgress = func(filename string, _ corpus.Document, err error) {
				if err != nil {
					mu.Lock()
					failed = append(failed, filename)
					mu.Unlock()
				}
				if bar != nil {
					bar.Increment()
				}
			}

			start := time.Now()
			docs, err := loader.LoadDocuments(ctx)
			c.ui.Close()
			if err != nil {
				return fmt.Errorf("extract documents: %w", err)
			}

			summaries := summarize(docs, c.cfg.Data.WordsPerChunk)

			if store {
				repo, closeDB, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeDB()
				for i, doc := range docs {
					if err := repo.UpsertDocument(ctx, doc); err != nil {
						return err
					}
					summaries[i].Stored = true
				}
			}

			if c.outputJSON {
				return c.ui.JSON(summaries)
			}

			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Filename,
					Truncate(s.Title, 40),
					fmt.Sprintf("%d", s.Pages),
					fmt.Sprintf("%d", s.Words),
					fmt.Sprintf("%d", s.Chunks),
				})
			}
			c.ui.Section("Documents")
			c.ui.Table([]string{"File", "Title", "Pages", "Words", "Chunks"}, rows)

			c.ui.Success("Extracted %d of %d documents in %s", len(docs), len(files), FormatDuration(time.Since(start)))
			for _, name := range failed {
				c.ui.Warning("Skipped %s", filepath.Join(args[0], name))
			}
			if store {
				c.ui.Success("Stored %d documents in %s", len(docs), c.cfg.Storage.Driver)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "write extracted documents to the SQL store")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel extractions (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "maximum time for the whole run")
	return cmd
}

// ImportSummary counts what an import read from disk.
type ImportSummary struct {
	FAQ    int  `json:"faq"`
	Legal  int  `json:"legal"`
	Misc   int  `json:"misc"`
	DryRun bool `json:"dryRun"`
}

func newImportCmd(c *cli) *cobra.Command {
	var (
		from   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import JSON corpora into the SQL store",
		Long: `Import reads faq.json, legal.json and misc.json (names from config) from
a directory and replaces the matching tables in the SQL store. Each
corpus is replaced in its own transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if from == "" {
				from = c.cfg.Data.Dir
			}
			data := c.cfg.Data
			data.Dir = from

			faq, err := corpus.ReadJSONFile[corpus.FAQEntry](data.FilePath(data.FAQFile))
			if err != nil {
				return err
			}
			legal, err := corpus.ReadJSONFile[corpus.LegalEntry](data.FilePath(data.LegalFile))
			if err != nil {
				return err
			}
			misc, err := corpus.ReadJSONFile[corpus.MiscEntry](data.FilePath(data.MiscFile))
			if err != nil {
				return err
			}

			summary := ImportSummary{FAQ: len(faq), Legal: len(legal), Misc: len(misc), DryRun: dryRun}

			if !dryRun {
				repo, closeDB, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeDB()

				if err := repo.ReplaceFAQ(ctx, faq); err != nil {
					return err
				}
				if err := repo.ReplaceLegal(ctx, legal); err != nil {
					return err
				}
				if err := repo.ReplaceMisc(ctx, misc); err != nil {
					return err
				}
			}

			if c.outputJSON {
				return c.ui.JSON(summary)
			}

			c.ui.Section("Import")
			c.ui.KeyValue("From", from)
			c.ui.KeyValue("FAQ", summary.FAQ)
			c.ui.KeyValue("Legal", summary.Legal)
			c.ui.KeyValue("Misc", summary.Misc)
			if dryRun {
				c.ui.Info("Dry run, nothing written")
			} else {
				c.ui.Success("Imported into %s", c.cfg.Storage.Driver)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "directory holding the JSON corpora (default: data.dir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "read and count without writing")
	return cmd
}
