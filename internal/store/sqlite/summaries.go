package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/store"
)

// summaryColumns is the ordered list of columns selected in summary queries.
// Must match the scan order in scanSummary.
const summaryColumns = `appid, summary_date, total_reviews, content, raw_reviews,
	times_consulted, bug_flag, version`

// scanSummary scans a sql.Row (or sql.Rows via its Scan method) into a domain.SummaryRecord.
func scanSummary(scanner interface{ Scan(dest ...any) error }) (*domain.SummaryRecord, error) {
	var rec domain.SummaryRecord

	var (
		summaryDate string
		content     sql.NullString
		rawReviews  sql.NullString
		bugFlag     int
	)

	err := scanner.Scan(
		&rec.AppID,
		&summaryDate,
		&rec.TotalReviewsAtSummary,
		&content,
		&rawReviews,
		&rec.TimesConsulted,
		&bugFlag,
		&rec.Version,
	)
	if err != nil {
		return nil, err
	}

	rec.SummaryDate, err = parseTime(summaryDate)
	if err != nil {
		return nil, err
	}
	rec.BugFlag = bugFlag != 0

	if content.Valid {
		rec.Content = json.RawMessage(content.String)
	}
	if rawReviews.Valid {
		var batch domain.ReviewBatch
		if err := json.Unmarshal([]byte(rawReviews.String), &batch); err != nil {
			return nil, fmt.Errorf("decode raw reviews for %d: %w", rec.AppID, err)
		}
		rec.RawReviews = &batch
	}

	return &rec, nil
}

func encodeRawReviews(batch *domain.ReviewBatch) (sql.NullString, error) {
	if batch == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(batch)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode raw reviews: %w", err)
	}
	return nullBytes(b), nil
}

// GetSummary retrieves the record for an app.
// Returns store.ErrSummaryNotFound if none exists.
func (s *Store) GetSummary(ctx context.Context, appID int64) (*domain.SummaryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM summaries WHERE appid = ?`, appID)

	rec, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertSummary creates the first record for an app.
// Returns store.ErrAlreadyExists if a record is already present.
func (s *Store) InsertSummary(ctx context.Context, rec *domain.SummaryRecord) error {
	raw, err := encodeRawReviews(rec.RawReviews)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (
			appid, summary_date, total_reviews, content, raw_reviews,
			times_consulted, bug_flag, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(appid) DO NOTHING`,
		rec.AppID,
		formatTime(rec.SummaryDate),
		rec.TotalReviewsAtSummary,
		nullBytes(rec.Content),
		raw,
		rec.TimesConsulted,
		boolToInt(rec.BugFlag),
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("summary for app %d already exists", rec.AppID))
	}

	rec.Version = 1
	return nil
}

// ReplaceSummary overwrites a record if its version still matches.
// Returns store.ErrVersionConflict if another writer replaced it first and
// store.ErrSummaryNotFound if there is nothing to replace.
func (s *Store) ReplaceSummary(ctx context.Context, rec *domain.SummaryRecord, expectedVersion int64) error {
	raw, err := encodeRawReviews(rec.RawReviews)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE summaries SET
			summary_date = ?,
			total_reviews = ?,
			content = ?,
			raw_reviews = ?,
			times_consulted = times_consulted + 1,
			bug_flag = 0,
			version = version + 1
		WHERE appid = ? AND version = ?`,
		formatTime(rec.SummaryDate),
		rec.TotalReviewsAtSummary,
		nullBytes(rec.Content),
		raw,
		rec.AppID,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM summaries WHERE appid = ?`, rec.AppID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrSummaryNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrVersionConflict
	}

	stored, err := scanSummary(tx.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM summaries WHERE appid = ?`, rec.AppID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	*rec = *stored
	return nil
}

// TouchSummary increments times_consulted and returns the updated record.
// Returns store.ErrSummaryNotFound if none exists.
func (s *Store) TouchSummary(ctx context.Context, appID int64) (*domain.SummaryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE summaries SET times_consulted = times_consulted + 1
		WHERE appid = ?
		RETURNING `+summaryColumns, appID)

	rec, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CountSummaries returns the number of stored summaries.
func (s *Store) CountSummaries(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summaries`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// StreamSummaries yields every stored summary ordered by app id.
func (s *Store) StreamSummaries(ctx context.Context) iter.Seq2[*domain.SummaryRecord, error] {
	return func(yield func(*domain.SummaryRecord, error) bool) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+summaryColumns+` FROM summaries ORDER BY appid`)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			rec, err := scanSummary(rows)
			if !yield(rec, err) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
