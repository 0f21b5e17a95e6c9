package postgres

import (
	"context"

	"github.com/flexprice/grants/internal/domain/webhookevent"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

func (r *webhookEventRepository) Record(ctx context.Context, e *webhookevent.ProcessedEvent) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (provider, event_id, event_type, processed_at)
		VALUES (:provider, :event_id, :event_type, :processed_at)
		ON CONFLICT (provider, event_id) DO NOTHING`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record processed webhook event").
			WithReportableDetails(map[string]interface{}{
				"event_id": e.EventID,
			}).
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	return rows == 1, nil
}

func (r *webhookEventRepository) Delete(ctx context.Context, provider, eventID string) error {
	query := `DELETE FROM processed_webhook_events WHERE provider = $1 AND event_id = $2`

	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, provider, eventID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete processed webhook event").
			WithReportableDetails(map[string]interface{}{
				"event_id": eventID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
