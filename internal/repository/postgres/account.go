package postgres

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/account"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
	"github.com/flexprice/grants/internal/types"
)

const accountColumns = `id, email, plan_code, renewable_credits, payasyougo_credits, extra_slots,
	subscription_status, provider_subscription_id, provider_customer_id, next_billing_date,
	cancellation_scheduled_at, cancellation_effective_date, pre_cancellation_plan_code,
	welcome_email_sent, created_at, updated_at`

type accountRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return &accountRepository{db: db, logger: logger}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (
			:id, :email, :plan_code, :renewable_credits, :payasyougo_credits, :extra_slots,
			:subscription_status, :provider_subscription_id, :provider_customer_id, :next_billing_date,
			:cancellation_scheduled_at, :cancellation_effective_date, :pre_cancellation_plan_code,
			:welcome_email_sent, :created_at, :updated_at
		)`

	a.Email = account.NormalizeEmail(a.Email)

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, a)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create account").
			WithReportableDetails(map[string]interface{}{
				"account_id": a.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id, map[string]interface{}{"account_id": id})
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = $1`
	normalized := account.NormalizeEmail(email)
	return r.getOne(ctx, query, normalized, map[string]interface{}{"email": normalized})
}

func (r *accountRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider_subscription_id = $1`
	return r.getOne(ctx, query, subscriptionID, map[string]interface{}{"subscription_id": subscriptionID})
}

func (r *accountRepository) GetByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider_customer_id = $1`
	return r.getOne(ctx, query, customerID, map[string]interface{}{"customer_id": customerID})
}

func (r *accountRepository) getOne(ctx context.Context, query string, arg interface{}, details map[string]interface{}) (*account.Account, error) {
	var a account.Account
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &a, query, arg); err != nil {
		return nil, wrapQueryError(err, "Account", details)
	}
	return &a, nil
}

// ApplyPlanGrant overwrites the plan, resets the renewable allotment and adds any bundled
// pay-as-you-go credits in a single statement
func (r *accountRepository) ApplyPlanGrant(ctx context.Context, id string, grant account.PlanGrant) error {
	if grant.RenewableCredits < 0 || grant.PayAsYouGoCredits < 0 {
		return negativeAmountError(id)
	}

	query := `
		UPDATE accounts
		SET
			plan_code = $2,
			renewable_credits = $3,
			payasyougo_credits = payasyougo_credits + $4,
			provider_subscription_id = $5,
			provider_customer_id = COALESCE(NULLIF($6, ''), provider_customer_id),
			next_billing_date = COALESCE($7, next_billing_date),
			subscription_status = $8,
			updated_at = NOW()
		WHERE id = $1`

	r.logger.Debugw("applying plan grant",
		"account_id", id,
		"plan_code", grant.PlanCode,
		"renewable_credits", grant.RenewableCredits,
		"payasyougo_credits", grant.PayAsYouGoCredits,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		grant.PlanCode,
		grant.RenewableCredits,
		grant.PayAsYouGoCredits,
		grant.SubscriptionID,
		grant.CustomerID,
		grant.NextBillingDate,
		types.SubscriptionStatusActive,
	)
	if err != nil {
		return updateError(err, "Failed to apply plan grant", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

// ResetRenewableCredits sets the renewable allotment, it never adds to the current value
func (r *accountRepository) ResetRenewableCredits(ctx context.Context, id string, credits int64, nextBillingDate *time.Time) error {
	if credits < 0 {
		return negativeAmountError(id)
	}

	query := `
		UPDATE accounts
		SET
			renewable_credits = $2,
			next_billing_date = COALESCE($3, next_billing_date),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, credits, nextBillingDate)
	if err != nil {
		return updateError(err, "Failed to reset renewable credits", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

// AddPayAsYouGoCredits increments the balance atomically and refreshes the customer id
// when one is given. The plan code is not part of this statement.
func (r *accountRepository) AddPayAsYouGoCredits(ctx context.Context, id string, amount int64, customerID string) error {
	if amount < 0 {
		return negativeAmountError(id)
	}

	query := `
		UPDATE accounts
		SET
			payasyougo_credits = payasyougo_credits + $2,
			provider_customer_id = COALESCE(NULLIF($3, ''), provider_customer_id),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, amount, customerID)
	if err != nil {
		return updateError(err, "Failed to add pay-as-you-go credits", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

func (r *accountRepository) AddExtraSlots(ctx context.Context, id string, slots int64) error {
	if slots < 0 {
		return negativeAmountError(id)
	}

	query := `
		UPDATE accounts
		SET
			extra_slots = extra_slots + $2,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, slots)
	if err != nil {
		return updateError(err, "Failed to add extra slots", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

// DowngradeToFree resets plan and renewable credits and clears the subscription and any
// scheduled cancellation. Purchased pay-as-you-go credits and slots are kept.
func (r *accountRepository) DowngradeToFree(ctx context.Context, id string, plan account.FreePlan) error {
	query := `
		UPDATE accounts
		SET
			plan_code = $2,
			renewable_credits = $3,
			subscription_status = $4,
			provider_subscription_id = NULL,
			next_billing_date = NULL,
			cancellation_scheduled_at = NULL,
			cancellation_effective_date = NULL,
			pre_cancellation_plan_code = NULL,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		plan.PlanCode,
		plan.RenewableCredits,
		types.SubscriptionStatusCancelled,
	)
	if err != nil {
		return updateError(err, "Failed to downgrade account", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

func (r *accountRepository) ActivateSubscription(ctx context.Context, id string, subscriptionID string) error {
	query := `
		UPDATE accounts
		SET
			subscription_status = $2,
			provider_subscription_id = COALESCE(NULLIF($3, ''), provider_subscription_id),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, types.SubscriptionStatusActive, subscriptionID)
	if err != nil {
		return updateError(err, "Failed to activate subscription", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

// ScheduleCancellation snapshots the current plan code in the same statement that records
// the effective date, so the snapshot always matches the plan at scheduling time
func (r *accountRepository) ScheduleCancellation(ctx context.Context, id string, schedule account.CancellationSchedule) error {
	query := `
		UPDATE accounts
		SET
			cancellation_scheduled_at = $2,
			cancellation_effective_date = $3,
			pre_cancellation_plan_code = plan_code,
			subscription_status = $4,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		schedule.ScheduledAt,
		schedule.EffectiveDate,
		types.SubscriptionStatusCancellationScheduled,
	)
	if err != nil {
		return updateError(err, "Failed to schedule cancellation", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

func (r *accountRepository) SetCustomerID(ctx context.Context, id string, customerID string) error {
	query := `UPDATE accounts SET provider_customer_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, customerID)
	if err != nil {
		return updateError(err, "Failed to store customer id", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

func (r *accountRepository) MarkWelcomeEmailSent(ctx context.Context, id string) error {
	query := `UPDATE accounts SET welcome_email_sent = TRUE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return updateError(err, "Failed to mark welcome email as sent", id)
	}
	return checkAffected(result, "Account", map[string]interface{}{"account_id": id})
}

func updateError(err error, hint, id string) error {
	return ierr.WithError(err).
		WithHint(hint).
		WithReportableDetails(map[string]interface{}{
			"account_id": id,
		}).
		Mark(ierr.ErrDatabase)
}

func negativeAmountError(id string) error {
	return ierr.NewError("credit and slot amounts must not be negative").
		WithHint("Entitlement changes only add or reset to non-negative values").
		WithReportableDetails(map[string]interface{}{
			"account_id": id,
		}).
		Mark(ierr.ErrValidation)
}
