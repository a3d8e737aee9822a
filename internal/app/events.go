package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
)

type EventCatalog interface {
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListPublished(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
}

type EventService struct {
	catalog EventCatalog
}

func NewEventService(catalog EventCatalog) *EventService {
	return &EventService{catalog: catalog}
}

func (s *EventService) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	return s.catalog.ListPublished(ctx, f)
}

// Get hides drafts from public readers.
func (s *EventService) Get(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	event, err := s.catalog.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if !event.Published {
		return domain.Event{}, domain.ErrNotFound
	}
	return event, nil
}
