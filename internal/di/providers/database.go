package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/store/sqlite"
)

// StoreHandle wraps the summary store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite summary store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Storage.SummaryDBPath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
