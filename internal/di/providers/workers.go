package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// CatalogWatcherHandle keeps a file-backed catalog in sync with its file.
type CatalogWatcherHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideCatalogWatcher starts watching the catalog file when one is
// configured. Without a file it returns an idle handle.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)

	ctx, cancel := context.WithCancel(context.Background())
	h := &CatalogWatcherHandle{cancel: cancel, done: make(chan struct{})}

	if catalogHandle.File == nil {
		close(h.done)
		return h, nil
	}

	go func() {
		defer close(h.done)
		err := catalogHandle.WatchFile(ctx, catalogHandle.File)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Catalog file watcher stopped", "path", catalogHandle.File.Path(), "error", err)
		}
	}()

	log.Info("Catalog file watcher started", "path", catalogHandle.File.Path())

	return h, nil
}
