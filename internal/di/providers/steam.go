package providers

import (
	"net/http"

	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/fetch"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/ratelimit"
	"github.com/Duerkos/steam-reviews-ai/internal/steam"
)

// FetcherHandle wraps the retrying fetcher with shutdown capability.
type FetcherHandle struct {
	*fetch.Client
}

// Shutdown implements do.Shutdownable.
func (h *FetcherHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideFetcher provides the retrying JSON fetcher used for every upstream call.
func ProvideFetcher(i do.Injector) (*FetcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	policy := fetch.Policy{
		TLSWait:     cfg.Fetch.TLSWait,
		EmptyWait:   cfg.Fetch.EmptyWait,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		MaxBackoff:  cfg.Fetch.MaxBackoff,
	}

	opts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Steam.HTTPTimeout}),
	}
	if cfg.Steam.RateLimit > 0 {
		opts = append(opts, fetch.WithLimiter(ratelimit.New(cfg.Steam.RateLimit, cfg.Steam.RateBurst)))
	}

	log.Debug("Fetcher configured",
		"max_attempts", policy.MaxAttempts,
		"tls_wait", policy.TLSWait,
		"empty_wait", policy.EmptyWait,
		"outbound_rps", cfg.Steam.RateLimit,
	)

	return &FetcherHandle{Client: fetch.New(policy, log.Logger, opts...)}, nil
}

// SteamClient is the typed upstream client.
type SteamClient = steam.Client

// ProvideSteamClient provides the Steam store and Web API client.
func ProvideSteamClient(i do.Injector) (*SteamClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	fetcher := do.MustInvoke[*FetcherHandle](i)

	return steam.New(fetcher.Client, cfg.Steam.StoreURL, cfg.Steam.APIURL, log.Logger), nil
}
