// Package providers contains dependency injection providers for the Steam reviews server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// ProvideConfig loads configuration from the process flags and environment.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger builds the process logger from config and logs a short
// description of the running setup.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	dev := cfg.App.Environment == "development"
	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   dev,
		Environment: cfg.App.Environment,
	})

	catalogSource := "steam"
	if cfg.Catalog.File != "" {
		catalogSource = cfg.Catalog.File
	}
	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"data_path", cfg.Storage.DataPath,
		"catalog_source", catalogSource,
		"summarizer_enabled", cfg.Summarizer.APIKey != "",
		"review_cap", cfg.Steam.ReviewCap,
	)

	return log, nil
}
