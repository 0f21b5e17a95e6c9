package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/addon"
	"github.com/flexprice/grants/internal/domain/webhookevent"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
	"github.com/flexprice/grants/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	ctx     context.Context
	sqlDB   *sql.DB
	mock    sqlmock.Sqlmock
	db      *postgres.DB
	account account.Repository
}

func TestRepositories(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	sqlDB, mock, err := sqlmock.New()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.sqlDB = sqlDB
	s.mock = mock
	s.db = postgres.Wrap(sqlx.NewDb(sqlDB, "postgres"), logger.NewNoop(), nil)
	s.account = NewAccountRepository(s.db, logger.NewNoop())
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.sqlDB.Close()
}

func (s *RepositorySuite) TestGetByEmailNormalizes() {
	rows := sqlmock.NewRows([]string{"id", "email", "plan_code", "payasyougo_credits", "provider_customer_id"}).
		AddRow("acct_1", "a@x.com", "gold", int64(5), "cus_1")

	s.mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE lower\(email\) = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	a, err := s.account.GetByEmail(s.ctx, "  A@X.com ")
	s.Require().NoError(err)
	s.Equal("acct_1", a.ID)
	s.Equal(int64(5), a.PayAsYouGoCredits)
	s.Equal("cus_1", a.GetCustomerID())
}

func (s *RepositorySuite) TestGetByCustomerIDNotFound() {
	s.mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE provider_customer_id = \$1`).
		WithArgs("cus_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.account.GetByCustomerID(s.ctx, "cus_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestGetBySubscriptionIDDatabaseError() {
	s.mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE provider_subscription_id = \$1`).
		WithArgs("sub_1").
		WillReturnError(sql.ErrConnDone)

	_, err := s.account.GetBySubscriptionID(s.ctx, "sub_1")
	s.Error(err)
	s.False(ierr.IsNotFound(err))
	s.Equal(ierr.ErrCodeProcessing, ierr.ReconciliationCode(err))
}

func (s *RepositorySuite) TestAddPayAsYouGoCreditsIsAnIncrement() {
	s.mock.ExpectExec(`UPDATE accounts SET payasyougo_credits = payasyougo_credits \+ \$2`).
		WithArgs("acct_1", int64(100), "cus_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.account.AddPayAsYouGoCredits(s.ctx, "acct_1", 100, "cus_1"))
}

func (s *RepositorySuite) TestAddPayAsYouGoCreditsRejectsNegative() {
	err := s.account.AddPayAsYouGoCredits(s.ctx, "acct_1", -1, "")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RepositorySuite) TestAddExtraSlotsAccountMissing() {
	s.mock.ExpectExec(`UPDATE accounts SET extra_slots = extra_slots \+ \$2`).
		WithArgs("acct_missing", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.account.AddExtraSlots(s.ctx, "acct_missing", 2)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestApplyPlanGrant() {
	next := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	s.mock.ExpectExec(`UPDATE accounts SET plan_code = \$2, renewable_credits = \$3, payasyougo_credits = payasyougo_credits \+ \$4`).
		WithArgs("acct_1", "gold", int64(500), int64(0), "sub_1", "cus_1", &next, types.SubscriptionStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.account.ApplyPlanGrant(s.ctx, "acct_1", account.PlanGrant{
		PlanCode:         "gold",
		RenewableCredits: 500,
		SubscriptionID:   "sub_1",
		CustomerID:       "cus_1",
		NextBillingDate:  &next,
	})
	s.NoError(err)
}

func (s *RepositorySuite) TestResetRenewableCreditsSetsValue() {
	s.mock.ExpectExec(`UPDATE accounts SET renewable_credits = \$2, next_billing_date`).
		WithArgs("acct_1", int64(500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.account.ResetRenewableCredits(s.ctx, "acct_1", 500, nil))
}

func (s *RepositorySuite) TestScheduleCancellationSnapshotsPlan() {
	now := time.Now().UTC()
	effective := now.Add(24 * time.Hour)

	s.mock.ExpectExec(`pre_cancellation_plan_code = plan_code`).
		WithArgs("acct_1", now, &effective, types.SubscriptionStatusCancellationScheduled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.account.ScheduleCancellation(s.ctx, "acct_1", account.CancellationSchedule{
		ScheduledAt:   now,
		EffectiveDate: &effective,
	})
	s.NoError(err)
}

func (s *RepositorySuite) TestDowngradeToFree() {
	s.mock.ExpectExec(`UPDATE accounts SET plan_code = \$2, renewable_credits = \$3, subscription_status = \$4`).
		WithArgs("acct_1", "free", int64(10), types.SubscriptionStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.account.DowngradeToFree(s.ctx, "acct_1", account.FreePlan{PlanCode: "free", RenewableCredits: 10}))
}

func (s *RepositorySuite) TestAddonCreateAndStatus() {
	repo := NewAddonRepository(s.db, logger.NewNoop())

	s.mock.ExpectExec(`INSERT INTO account_addons`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`UPDATE account_addons SET status = \$2`).
		WithArgs("sub_addon", types.AddonStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := addon.NewAddon("acct_1", 1, types.AddonSourceSubscription, "sub_addon")
	s.NoError(repo.Create(s.ctx, a))

	n, err := repo.UpdateStatusBySourceID(s.ctx, "sub_addon", types.AddonStatusCancelled)
	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *RepositorySuite) TestRegistrationCompleteOnce() {
	repo := NewRegistrationRepository(s.db, logger.NewNoop())
	at := time.Now().UTC()

	s.mock.ExpectExec(`UPDATE pending_registrations SET completed_at = \$2 WHERE account_id = \$1 AND completed_at IS NULL`).
		WithArgs("acct_1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`UPDATE pending_registrations`).
		WithArgs("acct_1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	completed, err := repo.Complete(s.ctx, "acct_1", at)
	s.NoError(err)
	s.True(completed)

	completed, err = repo.Complete(s.ctx, "acct_1", at)
	s.NoError(err)
	s.False(completed)
}

func (s *RepositorySuite) TestWebhookEventRecord() {
	repo := NewWebhookEventRepository(s.db, logger.NewNoop())

	s.mock.ExpectExec(`INSERT INTO processed_webhook_events (.+) ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO processed_webhook_events (.+) ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := &webhookevent.ProcessedEvent{Provider: "chargebee", EventID: "ev_1", EventType: "invoice_generated", ProcessedAt: time.Now()}

	inserted, err := repo.Record(s.ctx, e)
	s.NoError(err)
	s.True(inserted)

	inserted, err = repo.Record(s.ctx, e)
	s.NoError(err)
	s.False(inserted)
}
