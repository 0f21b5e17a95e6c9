package webhookevent

import "context"

type Repository interface {
	// Record inserts the event and returns false if it was already recorded
	Record(ctx context.Context, e *ProcessedEvent) (bool, error)
	Delete(ctx context.Context, provider, eventID string) error
}
