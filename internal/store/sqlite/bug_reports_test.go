package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

func TestReportBug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord(400, `{"summary":"stored"}`)
	rec.TimesConsulted = 7
	if err := s.InsertSummary(ctx, rec); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	reportDate := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	report := &domain.BugReport{
		ReportID:   "bug-abc",
		AppID:      400,
		ReportDate: reportDate,
		Reason:     "Wrong remarks",
	}
	if err := s.ReportBug(ctx, report); err != nil {
		t.Fatalf("ReportBug: %v", err)
	}

	// Filled from the stored record.
	if report.TimesConsulted != 7 {
		t.Errorf("TimesConsulted: got %d, want 7", report.TimesConsulted)
	}
	if !report.SummaryDate.Equal(rec.SummaryDate) {
		t.Errorf("SummaryDate: got %v, want %v", report.SummaryDate, rec.SummaryDate)
	}
	if string(report.ContentSnapshot) != `{"summary":"stored"}` {
		t.Errorf("ContentSnapshot: got %s", report.ContentSnapshot)
	}

	got, err := s.GetSummary(ctx, 400)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if !got.BugFlag {
		t.Error("expected bug flag to be set")
	}

	reports, err := s.ListBugReports(ctx, 400)
	if err != nil {
		t.Fatalf("ListBugReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].Reason != "Wrong remarks" || !reports[0].ReportDate.Equal(reportDate) {
		t.Errorf("unexpected report: %+v", reports[0])
	}
}

func TestReportBug_KeepsGivenSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertSummary(ctx, testRecord(401, `{"summary":"stored"}`)); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	report := &domain.BugReport{
		ReportID:        "bug-snap",
		AppID:           401,
		ReportDate:      time.Now(),
		ContentSnapshot: json.RawMessage(`{"summary":"what the user saw"}`),
		Reason:          "Too long",
	}
	if err := s.ReportBug(ctx, report); err != nil {
		t.Fatalf("ReportBug: %v", err)
	}

	reports, _ := s.ListBugReports(ctx, 401)
	if len(reports) != 1 || string(reports[0].ContentSnapshot) != `{"summary":"what the user saw"}` {
		t.Errorf("snapshot not preserved: %+v", reports)
	}
}

func TestReportBug_AppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertSummary(ctx, testRecord(402, `{"summary":"x"}`)); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"bug-1", "bug-2", "bug-3"} {
		r := &domain.BugReport{ReportID: id, AppID: 402, ReportDate: base.Add(time.Duration(i) * time.Hour), Reason: "Too long"}
		if err := s.ReportBug(ctx, r); err != nil {
			t.Fatalf("ReportBug(%s): %v", id, err)
		}
	}

	dup := &domain.BugReport{ReportID: "bug-2", AppID: 402, ReportDate: base, Reason: "Too long"}
	if err := s.ReportBug(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for duplicate id, got %v", err)
	}

	reports, err := s.ListBugReports(ctx, 402)
	if err != nil {
		t.Fatalf("ListBugReports: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for i, want := range []string{"bug-1", "bug-2", "bug-3"} {
		if reports[i].ReportID != want {
			t.Errorf("reports[%d]: got %s, want %s", i, reports[i].ReportID, want)
		}
	}
}

func TestReportBug_NoSummary(t *testing.T) {
	s := newTestStore(t)

	err := s.ReportBug(context.Background(), &domain.BugReport{ReportID: "bug-x", AppID: 999, ReportDate: time.Now(), Reason: "Too long"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	reports, err := s.ListBugReports(context.Background(), 999)
	if err != nil {
		t.Fatalf("ListBugReports: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}
