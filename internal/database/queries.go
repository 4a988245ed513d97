package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dailypaper/internal/domain"
)

const runColumns = `id, started_at, finished_at, since, category_count, article_count, status, error`

// RecordRun stores a finished run and returns its ID.
func (d *Database) RecordRun(ctx context.Context, run domain.Run) (int64, error) {
	query := `insert into digest_runs
	(started_at, finished_at, since, category_count, article_count, status, error)
	values (?, ?, ?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		run.StartedAt.UnixMicro(),
		run.FinishedAt.UnixMicro(),
		run.Since.UnixMicro(),
		run.CategoryCount,
		run.ArticleCount,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert ID: %w", err)
	}

	return id, nil
}

// LastSuccessfulRun returns the most recent sent run, or nil when none exists.
func (d *Database) LastSuccessfulRun(ctx context.Context) (*domain.Run, error) {
	query := `select ` + runColumns + `
	from digest_runs
	where status = ?
	order by started_at desc, id desc
	limit 1`

	run, err := scanRun(d.db.QueryRowContext(ctx, query, string(domain.RunStatusSent)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return &run, nil
}

// ListRuns returns up to limit runs, newest first.
func (d *Database) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `select ` + runColumns + `
	from digest_runs
	order by started_at desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "ListRuns")
		}
	}()

	var runs []domain.Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan row: %w", scanErr)
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.Run, error) {
	var (
		run                          domain.Run
		startedAt, finishedAt, since int64
		status                       string
	)

	err := row.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&since,
		&run.CategoryCount,
		&run.ArticleCount,
		&status,
		&run.Error,
	)
	if err != nil {
		return domain.Run{}, err
	}

	run.StartedAt = time.UnixMicro(startedAt).UTC()
	run.FinishedAt = time.UnixMicro(finishedAt).UTC()
	run.Since = time.UnixMicro(since).UTC()
	run.Status = domain.RunStatus(status)

	return run, nil
}
