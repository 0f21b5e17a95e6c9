package testutil

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/addon"
	"github.com/flexprice/grants/internal/types"
)

// InMemoryAddonStore implements addon.Repository
type InMemoryAddonStore struct {
	*InMemoryStore[addon.Addon]
}

func NewInMemoryAddonStore() *InMemoryAddonStore {
	return &InMemoryAddonStore{
		InMemoryStore: NewInMemoryStore[addon.Addon](),
	}
}

func (s *InMemoryAddonStore) Create(ctx context.Context, a *addon.Addon) error {
	return s.InMemoryStore.Create(ctx, a.ID, *a)
}

func (s *InMemoryAddonStore) ListByAccountID(ctx context.Context, accountID string) ([]*addon.Addon, error) {
	return s.list(ctx, func(a addon.Addon) bool { return a.AccountID == accountID }), nil
}

func (s *InMemoryAddonStore) ListBySourceID(ctx context.Context, sourceID string) ([]*addon.Addon, error) {
	return s.list(ctx, func(a addon.Addon) bool { return a.SourceID == sourceID }), nil
}

func (s *InMemoryAddonStore) UpdateStatusBySourceID(ctx context.Context, sourceID string, status types.AddonStatus) (int64, error) {
	return s.MutateWhere(ctx,
		func(a addon.Addon) bool { return a.SourceID == sourceID && a.Status != status },
		func(a addon.Addon) addon.Addon {
			a.Status = status
			a.UpdatedAt = time.Now().UTC()
			return a
		},
	), nil
}

func (s *InMemoryAddonStore) list(ctx context.Context, fn FilterFunc[addon.Addon]) []*addon.Addon {
	items := s.List(ctx, fn, func(i, j addon.Addon) bool { return i.CreatedAt.Before(j.CreatedAt) })
	result := make([]*addon.Addon, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result
}
