package main

import (
	"context"

	"github.com/Adda-Baaj/newsscrape/internal/app"
	"github.com/spf13/cobra"
)

type runFunc func(ctx context.Context, configPath string, mode app.Mode) error

// newRootCmd builds the CLI. Flag errors print usage and return before run is
// called, so no store is opened.
func newRootCmd(run runFunc) *cobra.Command {
	var (
		cfgFile  string
		resume   bool
		reset    bool
		rescrape bool
	)

	cmd := &cobra.Command{
		Use:   "newsscrape",
		Short: "Discover news articles and scrape their text",
		Long: `newsscrape searches a news API for every subject/qualifier pair,
stores unseen articles as pending candidates and extracts each article's text.

With no flag a fresh run discovers and then scrapes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := app.ModeFresh
			switch {
			case resume:
				mode = app.ModeResume
			case reset:
				mode = app.ModeReset
			case rescrape:
				mode = app.ModeRescrape
			}
			// Past flag validation; runtime failures should not dump usage.
			cmd.SilenceUsage = true
			return run(cmd.Context(), cfgFile, mode)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.BoolVar(&resume, "resume", false, "skip discovery and scrape pending candidates")
	flags.BoolVar(&reset, "reset", false, "clear candidates and content, then discover and scrape")
	flags.BoolVar(&rescrape, "rescrape", false, "clear content and scrape every candidate again")
	cmd.MarkFlagsMutuallyExclusive("resume", "reset", "rescrape")

	return cmd
}
