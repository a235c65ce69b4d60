package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(filepath.Join(t.TempDir(), "summaries.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := newTestStore(t)

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
	}
	for _, p := range pragmas {
		var got string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if got != p.want {
			t.Errorf("PRAGMA %s: got %s, want %s", p.name, got, p.want)
		}
	}
}

func TestOpen_CreatesTables(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"summaries", "bug_reports"} {
		var n int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		if err != nil || n != 1 {
			t.Errorf("table %s: count=%d err=%v", table, n, err)
		}
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpen_ReopenKeepsSummaries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summaries.db")

	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.InsertSummary(ctx, testRecord(400, `{"summary":"Puzzles.","score":10}`)); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}
	s1.Close()

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetSummary(ctx, 400)
	if err != nil {
		t.Fatalf("GetSummary after reopen: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version: got %d, want 1", got.Version)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2026, 3, 14, 15, 9, 26, 535897932, loc)

	raw := formatTime(in)
	out, err := parseTime(raw)
	if err != nil {
		t.Fatalf("parseTime(%q): %v", raw, err)
	}
	if !out.Equal(in) {
		t.Errorf("got %v, want %v", out, in)
	}
	if out.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", out.Location())
	}
}

func TestNullBytes(t *testing.T) {
	if nullBytes(nil).Valid {
		t.Error("nil should be NULL")
	}
	if v := nullBytes([]byte(`{}`)); !v.Valid || v.String != "{}" {
		t.Errorf("got %+v", v)
	}
}
