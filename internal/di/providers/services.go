package providers

import (
	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/harvest"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/ranking"
	"github.com/Duerkos/steam-reviews-ai/internal/service"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
	"github.com/Duerkos/steam-reviews-ai/internal/summarizer/mistral"
)

// ProvidePopularityCache provides the cached review-count lookup shared by
// ranking, stats and the summary freshness check.
func ProvidePopularityCache(i do.Injector) (*service.PopularityCache, error) {
	client := do.MustInvoke[*SteamClient](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPopularityCache(client, service.DefaultPopularityCacheSize, service.DefaultPopularityTTL, log.Logger), nil
}

// ProvideRanker provides the candidate ranker.
func ProvideRanker(i do.Injector) (*ranking.Ranker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	popularity := do.MustInvoke[*service.PopularityCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := ranking.DefaultOptions()
	if cfg.Ranking.Threshold > 0 {
		opts.Threshold = cfg.Ranking.Threshold
	}
	if cfg.Ranking.TopK > 0 {
		opts.TopK = cfg.Ranking.TopK
	}

	return ranking.New(popularity, opts, log.Logger), nil
}

// ProvideSearchService provides the app name search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	ranker := do.MustInvoke[*ranking.Ranker](i)
	popularity := do.MustInvoke[*service.PopularityCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(catalogHandle.Loader, ranker, popularity, log.Logger), nil
}

// ProvideHarvester provides the review harvester.
func ProvideHarvester(i do.Injector) (*harvest.Harvester, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*SteamClient](i)
	log := do.MustInvoke[*logger.Logger](i)

	return harvest.New(client, harvest.Options{
		PageSize:  cfg.Steam.PageSize,
		Language:  cfg.Steam.Language,
		DayRange:  cfg.Steam.DayRange,
		TrimToCap: cfg.Steam.TrimToCap,
	}, log.Logger), nil
}

// ProvideSummarizer provides the language model summarizer. Without an API
// key the server still serves stored summaries but cannot generate new ones.
func ProvideSummarizer(i do.Injector) (summarizer.Summarizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Summarizer.APIKey == "" {
		log.Warn("MISTRAL_API_KEY is not set, summary generation disabled")
		return summarizer.Disabled{Reason: "MISTRAL_API_KEY is not set"}, nil
	}

	client, err := mistral.New(mistral.Config{
		APIKey:      cfg.Summarizer.APIKey,
		BaseURL:     cfg.Summarizer.BaseURL,
		Model:       cfg.Summarizer.Model,
		MaxAttempts: cfg.Summarizer.MaxAttempts,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Summarizer initialized", "model", cfg.Summarizer.Model)
	return client, nil
}

// ProvideSummaryService provides the summary cache service.
func ProvideSummaryService(i do.Injector) (*service.SummaryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	harvester := do.MustInvoke[*harvest.Harvester](i)
	sum := do.MustInvoke[summarizer.Summarizer](i)
	popularity := do.MustInvoke[*service.PopularityCache](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := service.SummaryOptions{
		Policy: domain.FreshnessPolicy{
			MaxAge:   cfg.Summary.MaxAge,
			MinRatio: cfg.Summary.MinRatio,
		},
		ReviewCap:             cfg.Steam.ReviewCap,
		PersistenceRetryDelay: cfg.Summary.PersistenceRetryDelay,
		RegenerateTimeout:     cfg.Summary.RegenerateTimeout,
	}

	return service.NewSummaryService(
		storeHandle.Store,
		harvester,
		sum,
		popularity,
		indexHandle.SearchIndex,
		opts,
		log.Logger,
	), nil
}
