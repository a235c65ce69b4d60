package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// ErrNoSnapshot is returned when no unexpired snapshot is stored.
var ErrNoSnapshot = errors.New("no catalog snapshot")

const (
	prefixCatalog = "catalog:"
	keyMeta       = prefixCatalog + "meta"
	prefixChunk   = prefixCatalog + "chunk:"

	// chunkSize keeps each value well under badger's batch limit.
	chunkSize = 5000
)

type snapshotMeta struct {
	SavedAt time.Time `json:"saved_at"`
	Chunks  int       `json:"chunks"`
	Entries int       `json:"entries"`
}

// Snapshot persists the catalog in badger with a TTL so restarts within the
// refresh interval skip the upstream download.
type Snapshot struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenSnapshot opens (or creates) a snapshot store at path.
func OpenSnapshot(path string, log *slog.Logger) (*Snapshot, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return openSnapshot(opts, log)
}

// OpenInMemorySnapshot opens a snapshot store that lives only in memory.
func OpenInMemorySnapshot(log *slog.Logger) (*Snapshot, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openSnapshot(opts, log)
}

func openSnapshot(opts badger.Options, log *slog.Logger) (*Snapshot, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Snapshot{
		db:     db,
		logger: logger.OrNop(log).With("component", "catalog_snapshot"),
	}, nil
}

// Close closes the underlying database.
func (s *Snapshot) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot. Every key expires after ttl.
func (s *Snapshot) Save(entries []domain.CatalogEntry, savedAt time.Time, ttl time.Duration) error {
	if err := s.db.DropPrefix([]byte(prefixCatalog)); err != nil {
		return fmt.Errorf("drop old snapshot: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	chunks := 0
	for start := 0; start < len(entries); start += chunkSize {
		end := min(start+chunkSize, len(entries))
		data, err := json.Marshal(entries[start:end])
		if err != nil {
			return fmt.Errorf("marshal chunk %d: %w", chunks, err)
		}
		if err := wb.SetEntry(badger.NewEntry(chunkKey(chunks), data).WithTTL(ttl)); err != nil {
			return fmt.Errorf("write chunk %d: %w", chunks, err)
		}
		chunks++
	}

	meta, err := json.Marshal(snapshotMeta{SavedAt: savedAt.UTC(), Chunks: chunks, Entries: len(entries)})
	if err != nil {
		return err
	}
	// Meta goes last so a partial write is never readable.
	if err := wb.SetEntry(badger.NewEntry([]byte(keyMeta), meta).WithTTL(ttl)); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	s.logger.Debug("catalog snapshot saved", "entries", len(entries), "chunks", chunks)
	return nil
}

// Load returns the stored catalog and when it was saved.
// Returns ErrNoSnapshot if nothing is stored or the snapshot expired.
func (s *Snapshot) Load() ([]domain.CatalogEntry, time.Time, error) {
	var (
		meta    snapshotMeta
		entries []domain.CatalogEntry
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode meta: %w", err)
		}

		entries = make([]domain.CatalogEntry, 0, meta.Entries)
		for i := range meta.Chunks {
			item, err := txn.Get(chunkKey(i))
			if err != nil {
				return err
			}
			var chunk []domain.CatalogEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			}); err != nil {
				return fmt.Errorf("decode chunk %d: %w", i, err)
			}
			entries = append(entries, chunk...)
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return entries, meta.SavedAt, nil
}

func chunkKey(i int) []byte {
	return fmt.Appendf(nil, "%s%06d", prefixChunk, i)
}
