package providers

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/catalog"
	"github.com/Duerkos/steam-reviews-ai/internal/config"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// SnapshotHandle wraps the badger catalog snapshot with shutdown capability.
type SnapshotHandle struct {
	*catalog.Snapshot
}

// Shutdown implements do.Shutdownable.
func (h *SnapshotHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalogSnapshot provides the on-disk catalog snapshot.
func ProvideCatalogSnapshot(i do.Injector) (*SnapshotHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Storage.CatalogCachePath()
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog cache directory: %w", err)
	}

	snap, err := catalog.OpenSnapshot(path, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}

	log.Info("Catalog snapshot opened", "path", path)

	return &SnapshotHandle{Snapshot: snap}, nil
}

// CatalogHandle wraps the catalog loader.
type CatalogHandle struct {
	*catalog.Loader
	File *catalog.FileSource // nil unless a local catalog file is configured
}

// ProvideCatalog provides the catalog loader. A configured catalog file
// replaces the upstream app list.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	snap := do.MustInvoke[*SnapshotHandle](i)

	if cfg.Catalog.File != "" {
		file := catalog.NewFileSource(cfg.Catalog.File, log.Logger)
		loader := catalog.NewLoader(file, snap.Snapshot, cfg.Catalog.Refresh, log.Logger)
		log.Info("Catalog source: local file", "path", cfg.Catalog.File)
		return &CatalogHandle{Loader: loader, File: file}, nil
	}

	client := do.MustInvoke[*SteamClient](i)
	loader := catalog.NewLoader(client, snap.Snapshot, cfg.Catalog.Refresh, log.Logger)
	log.Info("Catalog source: upstream", "refresh", cfg.Catalog.Refresh)

	return &CatalogHandle{Loader: loader}, nil
}
