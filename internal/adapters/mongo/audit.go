package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogger appends one document per state change made through the API.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
	now    func() time.Time
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
		now:    time.Now,
	}
}

type AuditEntry struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	ActorID   uuid.UUID `bson:"actor_id"`
	Entity    string    `bson:"entity"`
	EntityID  uuid.UUID `bson:"entity_id"`
	EventID   uuid.UUID `bson:"event_id"`
	Status    string    `bson:"status"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data,omitempty"`
}

func (a *AuditLogger) insert(ctx context.Context, e AuditEntry) error {
	e.ID = uuid.New()
	e.Timestamp = a.now().UTC()
	if _, err := a.coll.InsertOne(ctx, e); err != nil {
		a.logger.WithError(err).WithField("action", e.Action).WithField("entity_id", e.EntityID).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

func (a *AuditLogger) LogTicket(ctx context.Context, action string, ticket domain.Ticket) error {
	return a.insert(ctx, AuditEntry{
		Action:   action,
		ActorID:  ticket.UserID,
		Entity:   "ticket",
		EntityID: ticket.ID,
		EventID:  ticket.EventID,
		Status:   string(ticket.Status),
		Data:     bson.M{"ticket_type": ticket.TicketType, "price": ticket.Price},
	})
}

func (a *AuditLogger) LogAttendee(ctx context.Context, action string, actor uuid.UUID, attendee domain.Attendee) error {
	data := bson.M{"check_in_status": attendee.CheckInStatus}
	if attendee.CheckInTime != nil {
		data["check_in_time"] = attendee.CheckInTime.UTC()
	}
	return a.insert(ctx, AuditEntry{
		Action:   action,
		ActorID:  actor,
		Entity:   "attendee",
		EntityID: attendee.ID,
		EventID:  attendee.EventID,
		Status:   string(attendee.Status),
		Data:     data,
	})
}

// History returns the entries recorded for one entity, oldest first.
func (a *AuditLogger) History(ctx context.Context, entityID uuid.UUID) ([]AuditEntry, error) {
	cur, err := a.coll.Find(ctx, bson.M{"entity_id": entityID}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	var entries []AuditEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return entries, nil
}
