package registration

import "time"

// PendingRegistration is a sign-up started before payment. It is created by the
// onboarding flow and completed by the first entitlement grant after payment.
type PendingRegistration struct {
	AccountID   string     `db:"account_id" json:"account_id"`
	ProfileURL  string     `db:"profile_url" json:"profile_url"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

func (r *PendingRegistration) IsCompleted() bool {
	return r.CompletedAt != nil
}
