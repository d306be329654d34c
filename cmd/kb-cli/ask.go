package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helpdesk-kb/kbresolver/internal/app"
	"github.com/helpdesk-kb/kbresolver/internal/resolver"
)

// openApp assembles and warms the engine. The response cache is skipped:
// every CLI invocation is a fresh process.
func (c *cli) openApp(ctx context.Context, timeout time.Duration) (*app.App, error) {
	a, err := app.New(ctx, c.cfg, c.logger, app.Options{DisableCache: true})
	if err != nil {
		return nil, fmt.Errorf("assemble resolver: %w", err)
	}

	stop := c.ui.Spinner("Loading knowledge base...")
	err = a.Warm(ctx, timeout)
	stop()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	return a, nil
}

func newAskCmd(c *cli) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Resolve a question against the knowledge base",
		Long: `Ask runs a question through the full resolution cascade: exact match,
category strategies, fuzzy search, best available match and the
suggestion fallbacks. The answer and where it came from are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := c.openApp(ctx, timeout)
			if err != nil {
				return err
			}
			defer a.Close()

			question := strings.Join(args, " ")
			start := time.Now()
			result := a.Engine.Resolve(ctx, question)
			elapsed := time.Since(start)

			c.logger.Debug().
				Str("source_type", string(result.SourceType)).
				Dur("duration", elapsed).
				Msg("Question resolved")

			if c.outputJSON {
				return c.ui.JSON(result)
			}
			printResult(c.ui, result, elapsed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time to load the knowledge base")
	return cmd
}

func printResult(ui *UI, result resolver.MatchResult, elapsed time.Duration) {
	ui.Section("Answer")
	ui.Text(result.Response)

	ui.Section("Source")
	ui.KeyValue("Source", result.Source)
	ui.KeyValue("Type", result.SourceType)
	ui.KeyValue("Resolved in", FormatDuration(elapsed))

	if len(result.Suggestions) > 0 {
		rows := make([][]string, 0, len(result.Suggestions))
		for i, s := range result.Suggestions {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), Truncate(s.Question, 60), Truncate(s.Answer, 60)})
		}
		ui.Section("Suggestions")
		ui.Table([]string{"#", "Question", "Answer"}, rows)
	}

	if len(result.NearMisses) > 0 {
		ui.Section("Did you mean")
		for _, m := range result.NearMisses {
			ui.Text("  • " + m)
		}
	}

	if result.SourceType == resolver.SourceError {
		ui.Error("Resolution failed, see logs with --verbose")
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show loaded corpora and documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := c.openApp(ctx, timeout)
			if err != nil {
				return err
			}
			defer a.Close()

			status := a.Engine.Status()
			if c.outputJSON {
				return c.ui.JSON(status)
			}

			ds := status.DataSources
			c.ui.Section("Data sources")
			c.ui.Table([]string{"Corpus", "Entries"}, [][]string{
				{"FAQ", fmt.Sprintf("%d", ds.FAQ)},
				{"Legal", fmt.Sprintf("%d", ds.Legal)},
				{"Misc", fmt.Sprintf("%d", ds.Misc)},
				{"PDF documents", fmt.Sprintf("%d", ds.PDFs)},
				{"Total searchable", fmt.Sprintf("%d", ds.TotalSearchable)},
			})

			if len(status.Documents) == 0 {
				c.ui.Info("No documents loaded")
				return nil
			}

			rows := make([][]string, 0, len(status.Documents))
			for _, doc := range status.Documents {
				rows = append(rows, []string{
					doc.Filename,
					Truncate(doc.Title, 40),
					fmt.Sprintf("%d", doc.Pages),
					doc.ExtractedAt.Format(time.RFC3339),
				})
			}
			c.ui.Section("Documents")
			c.ui.Table([]string{"File", "Title", "Pages", "Extracted"}, rows)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time to load the knowledge base")
	return cmd
}
