package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/app"
	"github.com/mshayan3/vlrscrape/internal/crawler"
)

// crawlFlags are the per-run overrides shared by every crawl subcommand.
type crawlFlags struct {
	start int
	end   int
	force bool
	skip  []string
}

func (f *crawlFlags) bind(cmd *cobra.Command, pages bool) {
	cmd.Flags().BoolVar(&f.force, "force", false, "re-collect matches that already have artifacts")
	cmd.Flags().StringSliceVar(&f.skip, "skip", nil, "artifact kinds to skip (veto, stats, rounds, economy, performance)")
	if pages {
		cmd.Flags().IntVar(&f.start, "start", 0, "first events listing page (default crawl.start_page)")
		cmd.Flags().IntVar(&f.end, "end", 0, "last events listing page (default crawl.end_page)")
	}
}

func (f *crawlFlags) options(cmd *cobra.Command, a App) app.CrawlOptions {
	opts := a.DefaultCrawlOptions()
	if cmd.Flags().Changed("start") {
		opts.StartPage = f.start
	}
	if cmd.Flags().Changed("end") {
		opts.EndPage = f.end
	}
	if cmd.Flags().Changed("skip") {
		opts.Skip = f.skip
	}
	if f.force {
		opts.Resume = false
	}
	return opts
}

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Collect match artifacts from vlr.gg",
	}
	cmd.AddCommand(newCrawlGlobalCmd(), newCrawlEventCmd(), newCrawlMatchCmd())
	return cmd
}

func newCrawlGlobalCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "global",
		Short: "Crawl every event on a range of events listing pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, &flags, func(ctx context.Context, c app.Crawler) (crawler.Summary, error) {
				return c.CrawlGlobal(ctx)
			})
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func newCrawlEventCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "event <event-url>",
		Short: "Crawl every stage and match of one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, &flags, func(ctx context.Context, c app.Crawler) (crawler.Summary, error) {
				return c.CrawlEvent(ctx, args[0])
			})
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func newCrawlMatchCmd() *cobra.Command {
	var (
		flags    crawlFlags
		stageDir string
	)
	cmd := &cobra.Command{
		Use:   "match <match-url>",
		Short: "Collect a single match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, &flags, func(ctx context.Context, c app.Crawler) (crawler.Summary, error) {
				res, err := c.CrawlMatch(ctx, args[0], filepath.Clean(stageDir))
				sum := crawler.Summary{Matches: 1}
				switch {
				case err != nil:
					return sum, err
				case res.Skipped:
					sum.Skipped = 1
				default:
					sum.Collected = 1
				}
				return sum, nil
			})
		},
	}
	flags.bind(cmd, false)
	cmd.Flags().StringVar(&stageDir, "stage-dir", "Matches", "folder under crawl.output_dir to write the match into")
	return cmd
}

func runCrawl(cmd *cobra.Command, flags *crawlFlags,
	run func(context.Context, app.Crawler) (crawler.Summary, error),
) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()
	c, err := appInstance.Crawler(flags.options(cmd, appInstance))
	if err != nil {
		return fmt.Errorf("init crawler: %w", err)
	}

	sum, err := run(cmd.Context(), c)
	logger.Info("crawl finished",
		zap.Int("events", sum.Events),
		zap.Int("stages", sum.Stages),
		zap.Int("matches", sum.Matches),
		zap.Int("collected", sum.Collected),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("duplicates", sum.Duplicates),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "matches: %d collected, %d skipped, %d failed\n", sum.Collected, sum.Skipped, sum.Failed)
	return nil
}
