package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/di"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataPath    string
	logLevel    string
	envFile     string
	catalogFile string
	jsonOutput  bool
}

// configArgs converts the global flags to config.Load arguments.
func (g *globalFlags) configArgs() []string {
	args := []string{"-env-file", g.envFile}
	if g.dataPath != "" {
		args = append(args, "-data-path", g.dataPath)
	}
	if g.logLevel != "" {
		args = append(args, "-log-level", g.logLevel)
	}
	if g.catalogFile != "" {
		args = append(args, "-catalog-file", g.catalogFile)
	}
	return args
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "Search Steam apps and summarize their reviews",
		Long: `reviewctl runs the Steam reviews services from the command line.

It shares the summary database, catalog cache and search index with the
server, so summaries generated here are served by the API and vice versa.

Example usage:
  reviewctl search "stardew"          # Find apps by name
  reviewctl stats 413150              # Show review counts
  reviewctl summary 413150            # Show or generate a summary
  reviewctl report 413150 --reason "Summary is outdated"
  reviewctl find --min-score 8 roguelike`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.dataPath, "data-path", "", "directory holding the summary database, catalog cache and search index")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "path to .env file")
	pf.StringVar(&flags.catalogFile, "catalog-file", "", "local catalog JSON file used instead of the upstream app list")
	pf.BoolVar(&flags.jsonOutput, "json", false, "output as JSON")

	root.AddCommand(
		newSearchCmd(flags),
		newStatsCmd(flags),
		newHarvestCmd(flags),
		newSummaryCmd(flags),
		newReportCmd(flags),
		newReportsCmd(flags),
		newReasonsCmd(flags),
		newFindCmd(flags),
		newReindexCmd(flags),
	)

	return root
}

// withServices loads the configuration, wires the services and runs fn.
// Services are shut down when fn returns.
func withServices(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, i do.Injector) error) error {
	cfg, err := config.Load(flags.configArgs())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	injector := di.NewCLIContainer(cfg, log)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Debug("shutdown", "error", err)
		}
	}()

	if err := di.BootstrapServices(injector); err != nil {
		return err
	}

	return fn(cmd.Context(), injector)
}

func parseAppID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid app id %q: must be a positive integer", raw)
	}
	return id, nil
}
