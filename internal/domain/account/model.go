package account

import (
	"strings"
	"time"

	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// Account is the entitlement state of a user as seen by billing reconciliation
type Account struct {
	ID                        string                   `db:"id" json:"id"`
	Email                     string                   `db:"email" json:"email"`
	PlanCode                  string                   `db:"plan_code" json:"plan_code"`
	RenewableCredits          int64                    `db:"renewable_credits" json:"renewable_credits"`
	PayAsYouGoCredits         int64                    `db:"payasyougo_credits" json:"payasyougo_credits"`
	ExtraSlots                int64                    `db:"extra_slots" json:"extra_slots"`
	SubscriptionStatus        types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	ProviderSubscriptionID    *string                  `db:"provider_subscription_id" json:"provider_subscription_id,omitempty"`
	ProviderCustomerID        *string                  `db:"provider_customer_id" json:"provider_customer_id,omitempty"`
	NextBillingDate           *time.Time               `db:"next_billing_date" json:"next_billing_date,omitempty"`
	CancellationScheduledAt   *time.Time               `db:"cancellation_scheduled_at" json:"cancellation_scheduled_at,omitempty"`
	CancellationEffectiveDate *time.Time               `db:"cancellation_effective_date" json:"cancellation_effective_date,omitempty"`
	PreCancellationPlanCode   *string                  `db:"pre_cancellation_plan_code" json:"pre_cancellation_plan_code,omitempty"`
	WelcomeEmailSent          bool                     `db:"welcome_email_sent" json:"welcome_email_sent"`
	types.BaseModel
}

// NewAccount returns a free account for the email. Accounts are created at sign-up,
// outside of billing reconciliation; this is used by seeding and tests.
func NewAccount(email, freePlanCode string, freeRenewableCredits int64) *Account {
	return &Account{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACCOUNT),
		Email:              NormalizeEmail(email),
		PlanCode:           freePlanCode,
		RenewableCredits:   freeRenewableCredits,
		SubscriptionStatus: types.SubscriptionStatusFree,
		BaseModel:          types.GetDefaultBaseModel(),
	}
}

func (a *Account) GetCustomerID() string {
	return lo.FromPtr(a.ProviderCustomerID)
}

func (a *Account) GetSubscriptionID() string {
	return lo.FromPtr(a.ProviderSubscriptionID)
}

// NormalizeEmail is the form emails are stored and compared in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PlanGrant overwrites the plan of an account after a recurring subscription is created
type PlanGrant struct {
	PlanCode          string
	RenewableCredits  int64
	PayAsYouGoCredits int64
	SubscriptionID    string
	CustomerID        string
	NextBillingDate   *time.Time
}

// CancellationSchedule records that the subscription ends at the end of the current term.
// The downgrade itself is applied by an external scheduler.
type CancellationSchedule struct {
	ScheduledAt   time.Time
	EffectiveDate *time.Time
}

// FreePlan describes the state an account is reset to on cancellation
type FreePlan struct {
	PlanCode         string
	RenewableCredits int64
}
