package postgres

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/registration"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
)

type registrationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRegistrationRepository(db *postgres.DB, logger *logger.Logger) registration.Repository {
	return &registrationRepository{db: db, logger: logger}
}

func (r *registrationRepository) Create(ctx context.Context, reg *registration.PendingRegistration) error {
	query := `
		INSERT INTO pending_registrations (account_id, profile_url, created_at, completed_at)
		VALUES (:account_id, :profile_url, :created_at, :completed_at)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, reg); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create pending registration").
			WithReportableDetails(map[string]interface{}{
				"account_id": reg.AccountID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *registrationRepository) Get(ctx context.Context, accountID string) (*registration.PendingRegistration, error) {
	query := `
		SELECT account_id, profile_url, created_at, completed_at
		FROM pending_registrations
		WHERE account_id = $1`

	var reg registration.PendingRegistration
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &reg, query, accountID); err != nil {
		return nil, wrapQueryError(err, "Pending registration", map[string]interface{}{"account_id": accountID})
	}
	return &reg, nil
}

// Complete closes the registration only while it is still open. Concurrent grants race on
// the same row and exactly one of them sees an affected row.
func (r *registrationRepository) Complete(ctx context.Context, accountID string, at time.Time) (bool, error) {
	query := `
		UPDATE pending_registrations
		SET completed_at = $2
		WHERE account_id = $1 AND completed_at IS NULL`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, accountID, at)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to complete pending registration").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
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
