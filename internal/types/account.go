package types

// SubscriptionStatus is the billing state of an account as last reported by the provider
type SubscriptionStatus string

const (
	SubscriptionStatusFree                  SubscriptionStatus = "free"
	SubscriptionStatusCreated               SubscriptionStatus = "created"
	SubscriptionStatusActive                SubscriptionStatus = "active"
	SubscriptionStatusCancellationScheduled SubscriptionStatus = "cancellation_scheduled"
	SubscriptionStatusCancelled             SubscriptionStatus = "cancelled"
)

// BillingModel describes how a mapped price is charged
type BillingModel string

const (
	BillingModelMonthly BillingModel = "monthly"
	BillingModelOneTime BillingModel = "one_time"
)

func (b BillingModel) Validate() bool {
	switch b {
	case BillingModelMonthly, BillingModelOneTime:
		return true
	}
	return false
}

// AddonStatus tracks the provider lifecycle of an addon purchase. Slots granted by an addon
// are never taken back when the status changes.
type AddonStatus string

const (
	AddonStatusActive    AddonStatus = "active"
	AddonStatusCancelled AddonStatus = "cancelled"
)

// AddonSourceType is the kind of provider object an addon grant originated from
type AddonSourceType string

const (
	AddonSourceSubscription AddonSourceType = "subscription"
	AddonSourceInvoice      AddonSourceType = "invoice"
)
