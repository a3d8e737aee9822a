package mongo

import (
	"context"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/robertarktes/eventhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("events"),
		logger: logger,
	}
}

type EventDoc struct {
	ID            uuid.UUID       `bson:"_id"`
	Title         string          `bson:"title"`
	Description   string          `bson:"description"`
	Date          time.Time       `bson:"date"`
	Time          string          `bson:"time"`
	Location      string          `bson:"location"`
	Category      string          `bson:"category"`
	TicketTypes   []TicketTypeDoc `bson:"ticket_types"`
	OrganizerID   uuid.UUID       `bson:"organizer_id"`
	AttendeeCount int             `bson:"attendee_count"`
	Published     bool            `bson:"published"`
	CreatedAt     time.Time       `bson:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at"`
}

type TicketTypeDoc struct {
	Name     string  `bson:"name"`
	Price    float64 `bson:"price"`
	Quantity int     `bson:"quantity"`
}

func eventDocFrom(e domain.Event) EventDoc {
	doc := EventDoc{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Date:          e.Date,
		Time:          e.Time,
		Location:      e.Location,
		Category:      e.Category,
		OrganizerID:   e.OrganizerID,
		AttendeeCount: e.AttendeeCount,
		Published:     e.Published,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	for _, tt := range e.TicketTypes {
		doc.TicketTypes = append(doc.TicketTypes, TicketTypeDoc{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
	}
	return doc
}

func (d EventDoc) toDomain() domain.Event {
	e := domain.Event{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Date:          d.Date,
		Time:          d.Time,
		Location:      d.Location,
		Category:      d.Category,
		TicketTypes:   make([]domain.TicketType, 0, len(d.TicketTypes)),
		OrganizerID:   d.OrganizerID,
		AttendeeCount: d.AttendeeCount,
		Published:     d.Published,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, tt := range d.TicketTypes {
		e.TicketTypes = append(e.TicketTypes, domain.TicketType{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
	}
	return e
}

func (c *CatalogRepository) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	var event EventDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Event{}, domain.ErrNotFound
	}
	if err != nil {
		c.logger.WithError(err).Error("failed to get event")
		return domain.Event{}, errors.Wrap(err, "get event")
	}
	return event.toDomain(), nil
}

func containsPattern(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// ListPublished returns published events matching f, soonest first.
func (c *CatalogRepository) ListPublished(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	query := bson.M{"published": true}
	if f.Search != "" {
		query["$or"] = bson.A{
			bson.M{"title": containsPattern(f.Search)},
			bson.M{"description": containsPattern(f.Search)},
		}
	}
	if f.Category != "" && f.Category != "all" {
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	if f.Location != "" {
		query["location"] = containsPattern(f.Location)
	}

	cur, err := c.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		c.logger.WithError(err).Error("failed to list events")
		return nil, errors.Wrap(err, "list events")
	}
	var docs []EventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}
	events := make([]domain.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toDomain())
	}
	return events, nil
}

func (c *CatalogRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	_, err := c.coll.InsertOne(ctx, eventDocFrom(event))
	if err != nil {
		c.logger.WithError(err).Error("failed to create event")
		return errors.Wrap(err, "create event")
	}
	return nil
}

func (c *CatalogRepository) IncrementAttendeeCount(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := c.coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"attendee_count": delta}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		c.logger.WithError(err).Error("failed to update attendee count")
		return errors.Wrap(err, "update attendee count")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *CatalogRepository) DeleteAll(ctx context.Context) error {
	_, err := c.coll.DeleteMany(ctx, bson.M{})
	return errors.Wrap(err, "delete events")
}
