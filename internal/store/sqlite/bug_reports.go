package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

const bugReportColumns = `report_id, appid, summary_date, report_date,
	content_snapshot, times_consulted, reason`

func scanBugReport(scanner interface{ Scan(dest ...any) error }) (*domain.BugReport, error) {
	var r domain.BugReport

	var (
		summaryDate string
		reportDate  string
		snapshot    sql.NullString
	)

	err := scanner.Scan(
		&r.ReportID,
		&r.AppID,
		&summaryDate,
		&reportDate,
		&snapshot,
		&r.TimesConsulted,
		&r.Reason,
	)
	if err != nil {
		return nil, err
	}

	r.SummaryDate, err = parseTime(summaryDate)
	if err != nil {
		return nil, err
	}
	r.ReportDate, err = parseTime(reportDate)
	if err != nil {
		return nil, err
	}
	if snapshot.Valid {
		r.ContentSnapshot = json.RawMessage(snapshot.String)
	}

	return &r, nil
}

// ReportBug flags the app's summary and appends the report in a single
// transaction. SummaryDate and TimesConsulted are taken from the stored
// record, as is the snapshot when the report carries none.
// Returns store.ErrSummaryNotFound if the app has no summary.
func (s *Store) ReportBug(ctx context.Context, report *domain.BugReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		summaryDate string
		content     sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE summaries SET bug_flag = 1
		WHERE appid = ?
		RETURNING summary_date, times_consulted, content`,
		report.AppID,
	).Scan(&summaryDate, &report.TimesConsulted, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrSummaryNotFound
	}
	if err != nil {
		return err
	}

	report.SummaryDate, err = parseTime(summaryDate)
	if err != nil {
		return err
	}
	if len(report.ContentSnapshot) == 0 && content.Valid {
		report.ContentSnapshot = json.RawMessage(content.String)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bug_reports (`+bugReportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ReportID,
		report.AppID,
		formatTime(report.SummaryDate),
		formatTime(report.ReportDate),
		nullBytes(report.ContentSnapshot),
		report.TimesConsulted,
		report.Reason,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	return tx.Commit()
}

// ListBugReports returns the reports filed against an app, oldest first.
func (s *Store) ListBugReports(ctx context.Context, appID int64) ([]*domain.BugReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bugReportColumns+` FROM bug_reports WHERE appid = ? ORDER BY report_date, report_id`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.BugReport
	for rows.Next() {
		r, err := scanBugReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}
