package testutil

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/registration"
	"github.com/samber/lo"
)

// InMemoryRegistrationStore implements registration.Repository
type InMemoryRegistrationStore struct {
	*InMemoryStore[registration.PendingRegistration]
}

func NewInMemoryRegistrationStore() *InMemoryRegistrationStore {
	return &InMemoryRegistrationStore{
		InMemoryStore: NewInMemoryStore[registration.PendingRegistration](),
	}
}

func (s *InMemoryRegistrationStore) Create(ctx context.Context, r *registration.PendingRegistration) error {
	return s.InMemoryStore.Create(ctx, r.AccountID, *r)
}

func (s *InMemoryRegistrationStore) Get(ctx context.Context, accountID string) (*registration.PendingRegistration, error) {
	r, err := s.InMemoryStore.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *InMemoryRegistrationStore) Complete(ctx context.Context, accountID string, at time.Time) (bool, error) {
	n := s.MutateWhere(ctx,
		func(r registration.PendingRegistration) bool { return r.AccountID == accountID && r.CompletedAt == nil },
		func(r registration.PendingRegistration) registration.PendingRegistration {
			r.CompletedAt = lo.ToPtr(at)
			return r
		},
	)
	return n == 1, nil
}
