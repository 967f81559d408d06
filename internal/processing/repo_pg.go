package processing

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const itemColumns = `id, application_id, status, priority, attempts, max_attempts, error_message, processing_seconds, started_at, completed_at, created_at`

func (r *PGRepo) Create(ctx context.Context, item Item) error {
	const query = `
INSERT INTO processing_items (id, application_id, status, priority, attempts, max_attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.DB.ExecContext(ctx, query, item.ID, item.ApplicationID, item.Status, item.Priority, item.Attempts, item.MaxAttempts)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Item, error) {
	query := `SELECT ` + itemColumns + ` FROM processing_items WHERE id = $1 LIMIT 1`
	item, err := scanItem(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *PGRepo) Update(ctx context.Context, item Item) error {
	const query = `
UPDATE processing_items SET
  status = $2,
  attempts = $3,
  error_message = $4,
  processing_seconds = $5,
  started_at = $6,
  completed_at = $7
WHERE id = $1`
	var seconds, started, completed any
	if item.ProcessingSeconds != nil {
		seconds = *item.ProcessingSeconds
	}
	if item.StartedAt != nil {
		started = *item.StartedAt
	}
	if item.CompletedAt != nil {
		completed = *item.CompletedAt
	}
	res, err := r.DB.ExecContext(ctx, query, item.ID, item.Status, item.Attempts, item.ErrorMessage, seconds, started, completed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) RequeueStale(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `
UPDATE processing_items SET
  status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'retrying' END,
  completed_at = CASE WHEN attempts >= max_attempts THEN now() ELSE completed_at END,
  error_message = $2
WHERE status = 'processing' AND started_at < $1`
	res, err := r.DB.ExecContext(ctx, query, cutoff, staleMessage)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PGRepo) ListRunnable(ctx context.Context, limit int) ([]Item, error) {
	query := `SELECT ` + itemColumns + `
FROM processing_items
WHERE status IN ('pending', 'retrying')
ORDER BY priority, created_at, id
LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item      Item
		seconds   sql.NullFloat64
		started   sql.NullTime
		completed sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.ApplicationID,
		&item.Status,
		&item.Priority,
		&item.Attempts,
		&item.MaxAttempts,
		&item.ErrorMessage,
		&seconds,
		&started,
		&completed,
		&item.CreatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	if seconds.Valid {
		v := seconds.Float64
		item.ProcessingSeconds = &v
	}
	if started.Valid {
		t := started.Time
		item.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		item.CompletedAt = &t
	}
	return item, nil
}
