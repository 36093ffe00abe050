// Package cmd defines and implements the CLI commands for the vlrscrape executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mshayan3/vlrscrape/internal/app"
	"github.com/mshayan3/vlrscrape/internal/config"
	"github.com/mshayan3/vlrscrape/internal/store"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what the commands need from the application container. It is an interface so
// tests can inject a fake.
type App interface {
	Close()
	Logger() *zap.Logger
	Config() config.Config
	DefaultCrawlOptions() app.CrawlOptions
	Crawler(opts app.CrawlOptions) (app.Crawler, error)
	Loader(ctx context.Context) (app.Loader, error)
	Store(ctx context.Context) (store.Store, error)
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath, command string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, command)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "vlrscrape",
		Short: "Crawl vlr.gg match data and load it into a relational store.",
		Long: `vlrscrape walks vlr.gg event listings down to individual matches, writes each
match's veto, player stats, rounds, economy and performance tables as CSV artifacts,
and loads an artifact tree into SQLite or PostgreSQL.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfgFile, cmd.CommandPath())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
