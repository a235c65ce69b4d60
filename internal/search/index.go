package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

// SearchIndex wraps a Bleve index of summary documents.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild

	// names resolves app names for documents. Optional.
	names func(appID int64) string
}

var _ store.SummaryIndexer = (*SearchIndex)(nil)

// Options configures the search index.
type Options struct {
	Path   string       // Index directory; empty keeps the index in memory
	Logger *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// NewSearchIndex creates or opens a search index.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := logger.OrNop(opts.Logger).With("component", "search")

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &SearchIndex{index: index, logger: log}, nil
	}

	indexPath := opts.Path
	versionPath := indexPath + ".version"

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			log.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			log.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			log.Warn("failed to write search version file", "error", writeErr)
		}
		log.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		log.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: log,
	}, nil
}

// SetNameResolver sets the function used to attach app names to documents.
func (s *SearchIndex) SetNameResolver(fn func(appID int64) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = fn
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexSummary indexes a stored summary, replacing any previous document for the app.
func (s *SearchIndex) IndexSummary(_ context.Context, rec *domain.SummaryRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := NewSummaryDocument(rec, s.resolveName(rec.AppID))
	if err != nil {
		return fmt.Errorf("build document for %d: %w", rec.AppID, err)
	}
	return s.index.Index(DocID(rec.AppID), doc.ToMap())
}

// DeleteSummary removes an app from the index.
func (s *SearchIndex) DeleteSummary(_ context.Context, appID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(DocID(appID))
}

// IndexSummaries indexes records in batches. Records whose content cannot be
// decoded are skipped and counted.
func (s *SearchIndex) IndexSummaries(records []*domain.SummaryRecord) (indexed, skipped int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		batch := s.index.NewBatch()
		for _, rec := range records[i:end] {
			doc, docErr := NewSummaryDocument(rec, s.resolveName(rec.AppID))
			if docErr != nil {
				s.logger.Warn("skipping summary with unreadable content", "appid", rec.AppID, "error", docErr)
				skipped++
				continue
			}
			if err := batch.Index(DocID(rec.AppID), doc.ToMap()); err != nil {
				return indexed, skipped, fmt.Errorf("batch index %d: %w", rec.AppID, err)
			}
			indexed++
		}

		if err := s.index.Batch(batch); err != nil {
			return indexed, skipped, fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return indexed, skipped, nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the existing index and creates a new one.
//
// IMPORTANT: This acquires an exclusive lock and blocks all other operations.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}

// resolveName must be called with mu held.
func (s *SearchIndex) resolveName(appID int64) string {
	if s.names == nil {
		return ""
	}
	return s.names(appID)
}
