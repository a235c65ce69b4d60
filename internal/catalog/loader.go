// Package catalog loads and caches the flat app catalog the fuzzy search
// runs against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// DefaultRefresh is how long a loaded catalog is reused.
const DefaultRefresh = 24 * time.Hour

// Source downloads the full catalog.
type Source interface {
	AppList(ctx context.Context) ([]domain.CatalogEntry, error)
}

// Origin names where the in-memory catalog came from.
type Origin string

// Catalog origins.
const (
	OriginNone     Origin = ""
	OriginSnapshot Origin = "snapshot"
	OriginUpstream Origin = "upstream"
	OriginFile     Origin = "file"
)

// Status describes the loaded catalog.
type Status struct {
	Entries  int       `json:"entries"`
	LoadedAt time.Time `json:"loaded_at"`
	Origin   Origin    `json:"origin"`
}

// Loader serves the catalog from memory, then from the badger snapshot, then
// from the source. A catalog is reused for the refresh interval, except one
// installed from a watched file, which stays until the file changes or
// Invalidate is called.
type Loader struct {
	source   Source
	snapshot *Snapshot
	refresh  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	entries  []domain.CatalogEntry
	byID     map[int64]string
	loadedAt time.Time
	origin   Origin

	loadMu sync.Mutex
}

// NewLoader creates a loader. snapshot may be nil.
func NewLoader(source Source, snapshot *Snapshot, refresh time.Duration, log *slog.Logger) *Loader {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Loader{
		source:   source,
		snapshot: snapshot,
		refresh:  refresh,
		logger:   logger.OrNop(log).With("component", "catalog"),
		now:      time.Now,
	}
}

// Entries returns the catalog, loading it if the in-memory copy is missing
// or older than the refresh interval. When a reload fails and an older copy
// is held, the older copy is returned.
func (l *Loader) Entries(ctx context.Context) ([]domain.CatalogEntry, error) {
	if entries, ok := l.cached(); ok {
		return entries, nil
	}

	// One loader at a time; later callers find the cache warm.
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	if entries, ok := l.cached(); ok {
		return entries, nil
	}

	if l.snapshot != nil {
		entries, savedAt, err := l.snapshot.Load()
		switch {
		case err == nil && l.now().Sub(savedAt) < l.refresh:
			l.set(entries, savedAt, OriginSnapshot)
			l.logger.Info("catalog loaded from snapshot", "entries", len(entries), "saved_at", savedAt)
			return entries, nil
		case err != nil && !errors.Is(err, ErrNoSnapshot):
			l.logger.Warn("catalog snapshot unreadable", "error", err)
		}
	}

	start := l.now()
	entries, err := l.source.AppList(ctx)
	if err != nil {
		if stale, ok := l.stale(); ok {
			l.logger.Warn("catalog refresh failed, serving previous copy", "error", err, "entries", len(stale))
			return stale, nil
		}
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	loadedAt := l.now()
	l.set(entries, loadedAt, OriginUpstream)
	l.logger.Info("catalog downloaded",
		"entries", len(entries),
		"duration_ms", loadedAt.Sub(start).Milliseconds(),
	)

	if l.snapshot != nil {
		if err := l.snapshot.Save(entries, loadedAt, l.refresh); err != nil {
			l.logger.Warn("catalog snapshot save failed", "error", err)
		}
	}
	return entries, nil
}

// Replace installs entries as the current catalog, as the file watcher does
// on every change.
func (l *Loader) Replace(entries []domain.CatalogEntry, origin Origin) {
	l.set(entries, l.now(), origin)
}

// Invalidate forces the next Entries call to reload.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadedAt = time.Time{}
}

// Status reports what is currently loaded.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Status{Entries: len(l.entries), LoadedAt: l.loadedAt, Origin: l.origin}
}

// Name returns the catalog name of an app, or "" when it is not loaded.
func (l *Loader) Name(appID int64) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byID[appID]
}

// WatchFile loads the file source immediately and keeps the catalog in sync
// with it until ctx is done.
func (l *Loader) WatchFile(ctx context.Context, f *FileSource) error {
	entries, err := f.AppList(ctx)
	if err != nil {
		return err
	}
	l.Replace(entries, OriginFile)
	l.logger.Info("catalog loaded from file", "path", f.Path(), "entries", len(entries))

	return f.Watch(ctx, func(entries []domain.CatalogEntry) {
		l.Replace(entries, OriginFile)
	})
}

func (l *Loader) cached() ([]domain.CatalogEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.entries == nil || l.loadedAt.IsZero() {
		return nil, false
	}
	if l.origin != OriginFile && l.now().Sub(l.loadedAt) >= l.refresh {
		return nil, false
	}
	return l.entries, true
}

func (l *Loader) stale() ([]domain.CatalogEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries, l.entries != nil
}

func (l *Loader) set(entries []domain.CatalogEntry, at time.Time, origin Origin) {
	byID := make(map[int64]string, len(entries))
	for _, e := range entries {
		byID[e.ID] = e.Name
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.byID = byID
	l.loadedAt = at
	l.origin = origin
}
