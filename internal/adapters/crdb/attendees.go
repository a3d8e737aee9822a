package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/eventhub/internal/domain"
)

const attendeeColumns = `id, event_id, user_id, name, email, ticket_type, status, check_in_status, check_in_time`

func scanAttendee(row pgx.Row) (domain.Attendee, error) {
	var a domain.Attendee
	var userID *uuid.UUID
	var status string
	err := row.Scan(&a.ID, &a.EventID, &userID, &a.Name, &a.Email, &a.TicketType, &status, &a.CheckInStatus, &a.CheckInTime)
	if userID != nil {
		a.UserID = *userID
	}
	a.Status = domain.AttendeeStatus(status)
	return a, err
}

func (r *Repository) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]domain.Attendee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attendeeColumns+`
		FROM attendees WHERE event_id = $1
		ORDER BY name ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "list attendees")
	}
	defer rows.Close()

	attendees := []domain.Attendee{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// UpdateAttendee locks the attendee row of eventID, applies mutate and
// persists status and check-in fields, optionally writing eventType to the
// outbox.
func (r *Repository) UpdateAttendee(ctx context.Context, eventID, attendeeID uuid.UUID, eventType string, mutate func(*domain.Attendee) error) (domain.Attendee, error) {
	var out domain.Attendee
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAttendee(tx.QueryRow(ctx, `
			SELECT `+attendeeColumns+` FROM attendees
			WHERE id = $1 AND event_id = $2 FOR UPDATE
		`, attendeeID, eventID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(&a); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE attendees SET status = $2, check_in_status = $3, check_in_time = $4 WHERE id = $1
		`, a.ID, string(a.Status), a.CheckInStatus, a.CheckInTime)
		if err != nil {
			return err
		}
		if eventType != "" {
			if err := r.enqueue(ctx, tx, AggregateAttendee, a.ID, eventType, a); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	return out, err
}

func (r *Repository) InsertAttendees(ctx context.Context, attendees []domain.Attendee) error {
	batch := &pgx.Batch{}
	for _, a := range attendees {
		var userID *uuid.UUID
		if a.UserID != uuid.Nil {
			id := a.UserID
			userID = &id
		}
		batch.Queue(`
			INSERT INTO attendees (id, event_id, user_id, name, email, ticket_type, status, check_in_status, check_in_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, a.ID, a.EventID, userID, a.Name, a.Email, a.TicketType, string(a.Status), a.CheckInStatus, a.CheckInTime)
	}
	return errors.Wrap(r.pool.SendBatch(ctx, batch).Close(), "insert attendees")
}
