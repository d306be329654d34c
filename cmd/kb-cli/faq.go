package main

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/helpdesk-kb/kbresolver/internal/corpus"
	"github.com/helpdesk-kb/kbresolver/internal/storage"
)

// faqSource adapts FAQ entries for fuzzy.FindFrom.
type faqSource []corpus.FAQEntry

func (s faqSource) String(i int) string { return s[i].Question }
func (s faqSource) Len() int            { return len(s) }

// FAQHit is one interactive search result.
type FAQHit struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Score          int    `json:"score"`
	MatchedIndexes []int  `json:"matchedIndexes"`
}

// searchFAQ ranks questions by subsequence match against pattern, best
// first, keeping at most limit hits. A non-positive limit keeps all.
func searchFAQ(entries []corpus.FAQEntry, pattern string, limit int) []FAQHit {
	matches := fuzzy.FindFrom(pattern, faqSource(entries))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	hits := make([]FAQHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, FAQHit{
			Question:       entries[m.Index].Question,
			Answer:         entries[m.Index].Answer,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return hits
}

// loadFAQ reads only the FAQ corpus, skipping document extraction.
func (c *cli) loadFAQ(ctx context.Context) ([]corpus.FAQEntry, error) {
	switch c.cfg.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
		db, err := storage.Open(ctx, c.cfg.Storage.Driver, c.cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := storage.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return storage.NewCorpusRepository(db, c.logger).ListFAQ(ctx)
	default:
		return corpus.ReadJSONFile[corpus.FAQEntry](c.cfg.Data.FilePath(c.cfg.Data.FAQFile))
	}
}

func newFAQCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "Work with the FAQ corpus",
	}
	cmd.AddCommand(newFAQSearchCmd(c))
	return cmd
}

func newFAQSearchCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search FAQ questions by subsequence match",
		Long: `Search lists FAQ questions containing the pattern's characters in order,
the way an editor's file finder does. It is a browsing aid and does not
use the resolver's scoring.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			entries, err := c.loadFAQ(ctx)
			if err != nil {
				return fmt.Errorf("load faq: %w", err)
			}

			hits := searchFAQ(entries, args[0], limit)
			if c.outputJSON {
				return c.ui.JSON(hits)
			}

			if len(hits) == 0 {
				c.ui.Warning("No FAQ questions match %q", args[0])
				return nil
			}

			c.ui.Section(fmt.Sprintf("%d of %d questions", len(hits), len(entries)))
			for _, h := range hits {
				c.ui.Text("  " + c.ui.Highlight(h.Question, h.MatchedIndexes))
				c.ui.Text("    " + Truncate(h.Answer, 100))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results (0 for all)")
	return cmd
}
