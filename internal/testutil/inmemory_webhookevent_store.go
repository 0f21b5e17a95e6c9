package testutil

import (
	"context"

	"github.com/flexprice/grants/internal/domain/webhookevent"
	ierr "github.com/flexprice/grants/internal/errors"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[webhookevent.ProcessedEvent]
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[webhookevent.ProcessedEvent](),
	}
}

func (s *InMemoryWebhookEventStore) Record(ctx context.Context, e *webhookevent.ProcessedEvent) (bool, error) {
	err := s.InMemoryStore.Create(ctx, e.Provider+":"+e.EventID, *e)
	if ierr.IsAlreadyExists(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *InMemoryWebhookEventStore) Delete(ctx context.Context, provider, eventID string) error {
	s.InMemoryStore.Delete(ctx, provider+":"+eventID)
	return nil
}

// Has reports whether the event is currently recorded
func (s *InMemoryWebhookEventStore) Has(provider, eventID string) bool {
	_, err := s.InMemoryStore.Get(context.Background(), provider+":"+eventID)
	return err == nil
}
