package postgres

import (
	"context"

	"github.com/flexprice/grants/internal/domain/addon"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
	"github.com/flexprice/grants/internal/types"
)

const addonColumns = `id, account_id, slots, source_id, source_type, price_id, price,
	billing_model, status, created_at, updated_at`

type addonRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAddonRepository(db *postgres.DB, logger *logger.Logger) addon.Repository {
	return &addonRepository{db: db, logger: logger}
}

func (r *addonRepository) Create(ctx context.Context, a *addon.Addon) error {
	query := `
		INSERT INTO account_addons (` + addonColumns + `)
		VALUES (
			:id, :account_id, :slots, :source_id, :source_type, :price_id, :price,
			:billing_model, :status, :created_at, :updated_at
		)`

	r.logger.Debugw("creating addon record",
		"addon_id", a.ID,
		"account_id", a.AccountID,
		"source_id", a.SourceID,
		"slots", a.Slots,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, a); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create addon record").
			WithReportableDetails(map[string]interface{}{
				"account_id": a.AccountID,
				"source_id":  a.SourceID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *addonRepository) ListByAccountID(ctx context.Context, accountID string) ([]*addon.Addon, error) {
	query := `SELECT ` + addonColumns + ` FROM account_addons WHERE account_id = $1 ORDER BY created_at`

	var addons []*addon.Addon
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &addons, query, accountID); err != nil {
		return nil, wrapQueryError(err, "Addon", map[string]interface{}{"account_id": accountID})
	}
	return addons, nil
}

func (r *addonRepository) ListBySourceID(ctx context.Context, sourceID string) ([]*addon.Addon, error) {
	query := `SELECT ` + addonColumns + ` FROM account_addons WHERE source_id = $1 ORDER BY created_at`

	var addons []*addon.Addon
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &addons, query, sourceID); err != nil {
		return nil, wrapQueryError(err, "Addon", map[string]interface{}{"source_id": sourceID})
	}
	return addons, nil
}

// UpdateStatusBySourceID moves every record of a subscription to the status. Slots stay granted.
func (r *addonRepository) UpdateStatusBySourceID(ctx context.Context, sourceID string, status types.AddonStatus) (int64, error) {
	query := `
		UPDATE account_addons
		SET status = $2, updated_at = NOW()
		WHERE source_id = $1 AND status <> $2`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, sourceID, status)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to update addon status").
			WithReportableDetails(map[string]interface{}{
				"source_id": sourceID,
				"status":    status,
			}).
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	return rows, nil
}
