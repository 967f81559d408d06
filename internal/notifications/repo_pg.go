package notifications

import (
	"context"
	"database/sql"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

func (r *PGRepo) Create(ctx context.Context, n Notification) error {
	const query = `
INSERT INTO notifications (id, recipient_id, title, message, type, priority, action_url, related_application_id, related_job_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`
	_, err := r.DB.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Title,
		n.Message,
		n.Type,
		n.Priority,
		n.ActionURL,
		nullableString(n.RelatedApplicationID),
		nullableString(n.RelatedJobID),
	)
	return err
}

func (r *PGRepo) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	const query = `
SELECT id, recipient_id, title, message, type, priority, is_read, read_at, action_url, related_application_id, related_job_id, created_at
FROM notifications
WHERE recipient_id = $1 AND (NOT $2 OR is_read = FALSE)
ORDER BY created_at DESC, id
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var (
			n             Notification
			readAt        sql.NullTime
			applicationID sql.NullString
			jobID         sql.NullString
		)
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.Priority,
			&n.IsRead,
			&readAt,
			&n.ActionURL,
			&applicationID,
			&jobID,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		n.RelatedApplicationID = applicationID.String
		n.RelatedJobID = jobID.String
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID).Scan(&count)
	return count, err
}

func (r *PGRepo) MarkRead(ctx context.Context, recipientID, notificationID string, at time.Time) error {
	const query = `
UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $3)
WHERE id = $1 AND recipient_id = $2`
	res, err := r.DB.ExecContext(ctx, query, notificationID, recipientID, at)
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

func (r *PGRepo) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE recipient_id = $1 AND is_read = FALSE`, recipientID, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
