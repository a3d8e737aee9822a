package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/eventhub/internal/domain"
)

const notificationColumns = `id, user_id, type, title, message, created_at, read, event_id, ticket_id`

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	var typ string
	err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.Timestamp, &n.Read, &n.EventID, &n.TicketID)
	n.Type = domain.NotificationType(typ)
	return n, err
}

func (r *Repository) ListNotifications(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	ns := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}

func (r *Repository) UpdateNotification(ctx context.Context, userID, id uuid.UUID, mutate func(*domain.Notification) error) (domain.Notification, error) {
	var out domain.Notification
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := scanNotification(tx.QueryRow(ctx, `
			SELECT `+notificationColumns+` FROM notifications
			WHERE id = $1 AND user_id = $2 FOR UPDATE
		`, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(&n); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE notifications SET read = $2 WHERE id = $1`, n.ID, n.Read); err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

// MarkAllNotificationsRead returns how many notifications went from unread to
// read.
func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "mark all read")
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) DeleteNotification(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "delete notification")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND read = false`, userID).Scan(&n)
	return n, errors.Wrap(err, "count unread")
}

// CreateNotification inserts n. A non-empty dedupeKey makes the insert a
// no-op when the user already has a notification with that key; the result
// reports whether a row was written.
func (r *Repository) CreateNotification(ctx context.Context, n domain.Notification, dedupeKey string) (bool, error) {
	var key *string
	if dedupeKey != "" {
		key = &dedupeKey
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, created_at, read, event_id, ticket_id, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, dedupe_key) DO NOTHING
	`, n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.Timestamp, n.Read, n.EventID, n.TicketID, key)
	if err != nil {
		return false, errors.Wrap(err, "create notification")
	}
	return tag.RowsAffected() == 1, nil
}
