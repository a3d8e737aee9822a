package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
)

const (
	SerializationFailureCode = "40001"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() { observability.DBTxDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}

	return mapTxError(tx.Commit(ctx))
}

func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
		return domain.ErrSerializationFailure
	}
	return err
}

const ticketColumns = `id, user_id, event_id, event_title, event_date, event_time, location, ticket_type, price::FLOAT8, purchase_date, status`

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var status string
	err := row.Scan(&t.ID, &t.UserID, &t.EventID, &t.EventTitle, &t.EventDate, &t.EventTime, &t.Location, &t.TicketType, &t.Price, &t.PurchaseDate, &status)
	t.Status = domain.TicketStatus(status)
	return t, err
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	tickets := []domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *Repository) ListTicketsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets WHERE user_id = $1
		ORDER BY event_date ASC, id ASC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	return collectTickets(rows)
}

// ListUpcomingTickets returns upcoming tickets whose event starts before the
// given instant.
func (r *Repository) ListUpcomingTickets(ctx context.Context, before time.Time) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets WHERE status = 'upcoming' AND event_date < $1
		ORDER BY event_date ASC, id ASC
	`, before)
	if err != nil {
		return nil, errors.Wrap(err, "list upcoming tickets")
	}
	return collectTickets(rows)
}

func (r *Repository) GetTicket(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	return t, errors.Wrap(err, "get ticket")
}

// UpdateTicket locks the ticket, applies mutate and persists the new status.
// When eventType is set the resulting ticket is written to the outbox in the
// same transaction.
func (r *Repository) UpdateTicket(ctx context.Context, id uuid.UUID, eventType string, mutate func(*domain.Ticket) error) (domain.Ticket, error) {
	var out domain.Ticket
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		t, err := scanTicket(tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(&t); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE tickets SET status = $2 WHERE id = $1`, t.ID, string(t.Status)); err != nil {
			return err
		}
		if eventType != "" {
			if err := r.enqueue(ctx, tx, AggregateTicket, t.ID, eventType, t); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	return out, err
}

func (r *Repository) InsertTickets(ctx context.Context, tickets []domain.Ticket) error {
	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(`
			INSERT INTO tickets (id, user_id, event_id, event_title, event_date, event_time, location, ticket_type, price, purchase_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, t.ID, t.UserID, t.EventID, t.EventTitle, t.EventDate, t.EventTime, t.Location, t.TicketType, t.Price, t.PurchaseDate, string(t.Status))
	}
	return errors.Wrap(r.pool.SendBatch(ctx, batch).Close(), "insert tickets")
}
