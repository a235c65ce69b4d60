package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
)

type fakeSource struct {
	entries []domain.CatalogEntry
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) AppList(context.Context) ([]domain.CatalogEntry, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func makeEntries(n int) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, n)
	for i := range out {
		out[i] = domain.CatalogEntry{ID: int64(i + 1), Name: fmt.Sprintf("Game %d", i+1)}
	}
	return out
}

func newSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s, err := OpenInMemorySnapshot(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSnapshot_SaveLoadAcrossChunks(t *testing.T) {
	s := newSnapshot(t)
	entries := makeEntries(chunkSize*2 + 17)
	savedAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(entries, savedAt, time.Hour))

	got, at, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.True(t, at.Equal(savedAt))
}

func TestSnapshot_SaveReplacesPrevious(t *testing.T) {
	s := newSnapshot(t)
	require.NoError(t, s.Save(makeEntries(chunkSize+1), time.Now(), time.Hour))
	require.NoError(t, s.Save(makeEntries(3), time.Now(), time.Hour))

	got, _, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSnapshot_Empty(t *testing.T) {
	s := newSnapshot(t)
	_, _, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoader_CachesForRefreshInterval(t *testing.T) {
	src := &fakeSource{entries: makeEntries(3)}
	c := &clock{t: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLoader(src, nil, time.Hour, nil)
	l.now = c.Now

	for range 3 {
		got, err := l.Entries(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 3)
	}
	assert.Equal(t, int32(1), src.calls.Load())

	c.Advance(time.Hour)
	_, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, OriginUpstream, l.Status().Origin)
}

func TestLoader_UsesSnapshotBeforeUpstream(t *testing.T) {
	snap := newSnapshot(t)
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, snap.Save(makeEntries(5), now.Add(-time.Hour), 24*time.Hour))

	src := &fakeSource{entries: makeEntries(9)}
	l := NewLoader(src, snap, 24*time.Hour, nil)
	l.now = func() time.Time { return now }

	got, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Zero(t, src.calls.Load())
	assert.Equal(t, OriginSnapshot, l.Status().Origin)
}

func TestLoader_DownloadSavesSnapshot(t *testing.T) {
	snap := newSnapshot(t)
	src := &fakeSource{entries: makeEntries(4)}

	_, err := NewLoader(src, snap, time.Hour, nil).Entries(context.Background())
	require.NoError(t, err)

	// A second process starting within the interval reads the snapshot.
	src2 := &fakeSource{err: errors.New("must not be called")}
	got, err := NewLoader(src2, snap, time.Hour, nil).Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Zero(t, src2.calls.Load())
}

func TestLoader_FailureServesPreviousCopy(t *testing.T) {
	src := &fakeSource{entries: makeEntries(2)}
	c := &clock{t: time.Now()}
	l := NewLoader(src, nil, time.Minute, nil)
	l.now = c.Now

	_, err := l.Entries(context.Background())
	require.NoError(t, err)

	src.err = errors.New("upstream down")
	c.Advance(2 * time.Minute)

	got, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLoader_FailureWithoutCopy(t *testing.T) {
	l := NewLoader(&fakeSource{err: errors.New("upstream down")}, nil, time.Minute, nil)
	_, err := l.Entries(context.Background())
	assert.ErrorContains(t, err, "upstream down")
}

func TestLoader_ConcurrentCallersLoadOnce(t *testing.T) {
	src := &fakeSource{entries: makeEntries(10)}
	l := NewLoader(src, nil, time.Hour, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Entries(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []domain.CatalogEntry
	}{
		{
			name: "upstream shape",
			in:   `{"applist":{"apps":[{"appid":10,"name":"Counter-Strike"},{"appid":11,"name":""}]}}`,
			want: []domain.CatalogEntry{{ID: 10, Name: "Counter-Strike"}},
		},
		{
			name: "bare array",
			in:   ` [{"appid":620,"name":"Portal 2"}]`,
			want: []domain.CatalogEntry{{ID: 620, Name: "Portal 2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCatalog([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseCatalog([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoader_WatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apps.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"appid":1,"name":"Doom"}]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := NewFileSource(path, nil)
	l := NewLoader(f, nil, time.Hour, nil)
	require.NoError(t, l.WatchFile(ctx, f))

	status := l.Status()
	assert.Equal(t, 1, status.Entries)
	assert.Equal(t, OriginFile, status.Origin)

	require.NoError(t, os.WriteFile(path, []byte(`[{"appid":1,"name":"Doom"},{"appid":2,"name":"Doom II"}]`), 0o644))

	assert.Eventually(t, func() bool {
		return l.Status().Entries == 2
	}, 5*time.Second, 20*time.Millisecond)

	got, err := l.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Doom II", got[1].Name)
}

func TestLoader_FileCatalogDoesNotExpire(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	src := &fakeSource{entries: makeEntries(7)}
	l := NewLoader(src, nil, time.Hour, nil)
	l.now = c.Now
	l.Replace(makeEntries(2), OriginFile)

	c.Advance(3 * time.Hour)
	got, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, OriginFile, l.Status().Origin)
	assert.Zero(t, src.calls.Load())

	l.Invalidate()
	got, err = l.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, OriginUpstream, l.Status().Origin)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoader_Name(t *testing.T) {
	l := NewLoader(&fakeSource{entries: makeEntries(3)}, nil, time.Hour, nil)
	assert.Empty(t, l.Name(2))

	_, err := l.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Game 2", l.Name(2))
	assert.Empty(t, l.Name(99))
}
