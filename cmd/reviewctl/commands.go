package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/harvest"
	"github.com/Duerkos/steam-reviews-ai/internal/search"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
)

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find apps by name",
		Long: `Fuzzy-match the query against the app catalog, then rank the best matches
by how many reviews they have.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				cands, err := do.MustInvoke[*service.SearchService](i).Search(ctx, query, limit)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(cands)
				}
				return p.Candidates(cands)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default: ranker top-k)")
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <appid>",
		Short: "Show the review counts of an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				stats, err := do.MustInvoke[*service.SearchService](i).Stats(ctx, appID)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(stats)
				}
				return p.Stats(stats)
			})
		},
	}
}

func newHarvestCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "harvest <appid>",
		Short: "Collect recent reviews of an app",
		Long: `Page through the app's recent reviews until the limit is reached. Nothing
is stored; use summary to generate and store a summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				batch, err := do.MustInvoke[*harvest.Harvester](i).Harvest(ctx, appID, limit)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(batch)
				}
				return p.Batch(batch)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultReviewCap, "reviews to collect")
	return cmd
}

func newSummaryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <appid>",
		Short: "Show the review summary of an app",
		Long: `Serve the stored summary when it is still fresh, otherwise harvest reviews
and generate a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				res, err := do.MustInvoke[*service.SummaryService](i).Summarize(ctx, appID)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(res)
				}
				return p.Summary(appID, res)
			})
		},
	}
}

func newReportCmd(flags *globalFlags) *cobra.Command {
	var (
		reason  string
		content string
	)

	cmd := &cobra.Command{
		Use:   "report <appid>",
		Short: "Report a wrong summary",
		Long: `Flag the app's summary so that it is regenerated on the next lookup.
See reasons for the canonical reasons.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(reason) == "" {
				return fmt.Errorf("--reason is required")
			}
			var snapshot json.RawMessage
			if content != "" {
				snapshot = json.RawMessage(content)
			}
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				report, err := do.MustInvoke[*service.SummaryService](i).ReportBug(ctx, appID, snapshot, reason)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(report)
				}
				return p.Reports([]*domain.BugReport{report})
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the summary is wrong")
	cmd.Flags().StringVar(&content, "content", "", "summary content as seen, as JSON (default: stored content)")
	return cmd
}

func newReportsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reports <appid>",
		Short: "List bug reports filed against an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				reports, err := do.MustInvoke[*service.SummaryService](i).BugReports(ctx, appID)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(reports)
				}
				return p.Reports(reports)
			})
		},
	}
}

func newReasonsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reasons",
		Short: "List the canonical bug report reasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
			if p.json {
				return p.JSON(domain.BugReasons)
			}
			for _, r := range domain.BugReasons {
				p.Line(r)
			}
			return nil
		},
	}
}

func newFindCmd(flags *globalFlags) *cobra.Command {
	params := search.DefaultSearchParams()

	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Search stored summaries",
		Long: `Full-text search over stored summaries. Without a query every summary
matching the filters is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Query = strings.Join(args, " ")
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				result, err := do.MustInvoke[*service.SummaryIndexService](i).Search(ctx, params)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(result)
				}
				return p.SummaryHits(result)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&params.MinScore, "min-score", 0, "minimum summary score")
	f.IntVar(&params.MaxScore, "max-score", 0, "maximum summary score (0: no bound)")
	f.BoolVar(&params.ExcludeFlagged, "exclude-flagged", false, "hide summaries with a pending bug report")
	f.StringVar(&params.SortBy, "sort", params.SortBy, "sort order (relevance, score, recent, reviews)")
	f.IntVarP(&params.Limit, "limit", "n", params.Limit, "maximum results")
	f.IntVar(&params.Offset, "offset", 0, "pagination offset")
	return cmd
}

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the summary search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, flags, func(ctx context.Context, i do.Injector) error {
				res, err := do.MustInvoke[*service.SummaryIndexService](i).Reindex(ctx)
				if err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout(), flags.jsonOutput)
				if p.json {
					return p.JSON(res)
				}
				p.Line(fmt.Sprintf("Indexed %d of %d summaries (%d skipped) in %dms",
					res.Indexed, res.Summaries, res.Skipped, res.TookMs))
				return nil
			})
		},
	}
}
