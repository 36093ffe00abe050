package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [root]",
		Short: "Load an artifact tree into the store",
		Long: `Walks root (default ingest.root) for match folders and loads each one in its own
transaction. Loading is idempotent: re-running over the same tree adds no rows.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	root := appInstance.Config().Ingest.Root
	if len(args) == 1 {
		root = args[0]
	}

	st, err := appInstance.Store(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	loader, err := appInstance.Loader(ctx)
	if err != nil {
		return fmt.Errorf("init loader: %w", err)
	}

	sum, err := loader.LoadTree(ctx, root)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ingest %s: %w", root, err)
	}
	appInstance.Logger().Info("ingest finished",
		zap.String("root", root),
		zap.Int("matches", sum.Matches),
		zap.Int("loaded", sum.Loaded),
		zap.Int("failed", sum.Failed),
		zap.Any("rows", sum.Rows),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "matches: %d loaded, %d failed\n", sum.Loaded, sum.Failed)
	tables := make([]string, 0, len(sum.Rows))
	for t := range sum.Rows {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(out, "  %-24s %d\n", t, sum.Rows[t])
	}
	return nil
}
