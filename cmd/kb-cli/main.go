// Package main provides the knowledge base CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/helpdesk-kb/kbresolver/internal/config"
	"github.com/helpdesk-kb/kbresolver/internal/observability"
)

const version = "0.1.0"

// cli carries global flags and the state PersistentPreRunE prepares.
type cli struct {
	cfgFile    string
	outputJSON bool
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "kb-cli",
		Short: "Knowledge base CLI for querying, ingestion and administration",
		Long: `kb-cli works directly against the knowledge base corpora.

Use this tool to:
- Ask questions through the same resolution cascade the chat API uses
- Inspect which corpora and documents are loaded
- Search FAQ questions interactively
- Extract PDF manuals and import JSON corpora into the SQL store

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfgPath := c.cfgFile
			if cfgPath == "" {
				cfgPath = os.Getenv("CONFIG_PATH")
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := "warn"
			if c.verbose {
				level = "debug"
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "kb-cli",
			})
			c.ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), c.outputJSON, c.noColor)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.ui != nil {
				c.ui.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "", "config file path (default: CONFIG_PATH or built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newAskCmd(c))
	rootCmd.AddCommand(newStatusCmd(c))
	rootCmd.AddCommand(newFAQCmd(c))
	rootCmd.AddCommand(newIngestCmd(c))
	rootCmd.AddCommand(newImportCmd(c))
	rootCmd.AddCommand(newVersionCmd(c))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.outputJSON {
				return c.ui.JSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			c.ui.Text("kb-cli v" + version)
			return nil
		},
	}
}
