package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// fileDebounce collapses the burst of events editors emit on save.
const fileDebounce = 250 * time.Millisecond

// FileSource reads the catalog from a local JSON file. Both the upstream
// GetAppList shape and a bare array of {appid, name} are accepted.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for path.
func NewFileSource(path string, log *slog.Logger) *FileSource {
	return &FileSource{
		path:   filepath.Clean(path),
		logger: logger.OrNop(log).With("component", "catalog_file", "path", path),
	}
}

// Path returns the watched file.
func (f *FileSource) Path() string { return f.path }

// AppList reads and parses the file.
func (f *FileSource) AppList(_ context.Context) ([]domain.CatalogEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) ([]domain.CatalogEntry, error) {
	data = bytes.TrimSpace(data)

	var raw []domain.CatalogEntry
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode catalog file: %w", err)
		}
	} else {
		var wrapped struct {
			AppList struct {
				Apps []domain.CatalogEntry `json:"apps"`
			} `json:"applist"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode catalog file: %w", err)
		}
		raw = wrapped.AppList.Apps
	}

	entries := make([]domain.CatalogEntry, 0, len(raw))
	for _, e := range raw {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Watch calls onChange with the freshly parsed catalog every time the file is
// written or replaced, until ctx is done. The parent directory is watched so
// atomic renames are seen. Parse failures are logged and skipped.
func (f *FileSource) Watch(ctx context.Context, onChange func([]domain.CatalogEntry)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	go func() {
		defer w.Close()

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(fileDebounce)
				} else {
					timer.Reset(fileDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				entries, err := f.AppList(ctx)
				if err != nil {
					f.logger.Warn("catalog file reload failed", "error", err)
					continue
				}
				f.logger.Info("catalog file reloaded", "entries", len(entries))
				onChange(entries)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("catalog watcher error", "error", err)
			}
		}
	}()

	return nil
}
