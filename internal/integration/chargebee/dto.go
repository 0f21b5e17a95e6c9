package chargebee

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// EventType is the closed set of Chargebee event types this service reacts to
type EventType string

const (
	EventSubscriptionCreated               EventType = "subscription_created"
	EventSubscriptionActivated             EventType = "subscription_activated"
	EventSubscriptionCancellationScheduled EventType = "subscription_cancellation_scheduled"
	EventSubscriptionCancelled             EventType = "subscription_cancelled"
	EventSubscriptionRenewed               EventType = "subscription_renewed"
	EventSubscriptionReactivated           EventType = "subscription_reactivated"
	EventInvoiceGenerated                  EventType = "invoice_generated"
	EventPaymentSucceeded                  EventType = "payment_succeeded"
	EventPaymentFailed                     EventType = "payment_failed"
)

// Line item entity types. Plan priced items and one-off charges are tagged differently.
const (
	EntityTypePlanItemPrice   = "plan_item_price"
	EntityTypeChargeItemPrice = "charge_item_price"
	EntityTypeAddonItemPrice  = "addon_item_price"
)

const (
	ItemTypePlan   = "plan"
	ItemTypeAddon  = "addon"
	ItemTypeCharge = "charge"
)

const InvoiceStatusPaid = "paid"

// Event represents the envelope of a Chargebee webhook event
type Event struct {
	ID            string          `json:"id"`
	OccurredAt    int64           `json:"occurred_at"`
	Source        string          `json:"source"`
	Object        string          `json:"object"`
	APIVersion    string          `json:"api_version"`
	EventType     EventType       `json:"event_type"`
	WebhookStatus string          `json:"webhook_status"`
	Content       json.RawMessage `json:"content"`
}

// ParseContent decodes the content of the event. Missing content decodes to an empty value.
func (e *Event) ParseContent() (*Content, error) {
	var content Content
	if len(e.Content) == 0 {
		return &content, nil
	}
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Content represents the content field of a webhook event
type Content struct {
	Transaction  *Transaction  `json:"transaction,omitempty"`
	Invoice      *Invoice      `json:"invoice,omitempty"`
	Customer     *Customer     `json:"customer,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// CustomerEmail returns the email carried in the event, if any
func (c *Content) CustomerEmail() string {
	if c.Customer == nil {
		return ""
	}
	return c.Customer.Email
}

// CustomerID returns the first customer id found in the event
func (c *Content) CustomerID() string {
	switch {
	case c.Customer != nil && c.Customer.ID != "":
		return c.Customer.ID
	case c.Invoice != nil && c.Invoice.CustomerID != "":
		return c.Invoice.CustomerID
	case c.Subscription != nil && c.Subscription.CustomerID != "":
		return c.Subscription.CustomerID
	case c.Transaction != nil:
		return c.Transaction.CustomerID
	}
	return ""
}

// Subscription represents a subscription in the webhook content
type Subscription struct {
	ID                string             `json:"id"`
	CustomerID        string             `json:"customer_id"`
	Status            string             `json:"status"`
	PlanID            string             `json:"plan_id,omitempty"`
	SubscriptionItems []SubscriptionItem `json:"subscription_items,omitempty"`
	CurrentTermStart  int64              `json:"current_term_start,omitempty"`
	CurrentTermEnd    int64              `json:"current_term_end,omitempty"`
	NextBillingAt     int64              `json:"next_billing_at,omitempty"`
	CancelledAt       int64              `json:"cancelled_at,omitempty"`
	CreatedAt         int64              `json:"created_at"`
}

// SubscriptionItem is one item price attached to a subscription
type SubscriptionItem struct {
	ItemPriceID string `json:"item_price_id"`
	ItemType    string `json:"item_type"`
	Quantity    int    `json:"quantity,omitempty"`
}

// PlanItemPriceID returns the item price id of the plan item, falling back to the
// legacy plan_id field
func (s *Subscription) PlanItemPriceID() string {
	item, ok := lo.Find(s.SubscriptionItems, func(i SubscriptionItem) bool {
		return i.ItemType == ItemTypePlan
	})
	if ok {
		return item.ItemPriceID
	}
	return s.PlanID
}

// ItemPriceIDs returns every item price id on the subscription, plan item first
func (s *Subscription) ItemPriceIDs() []string {
	ids := make([]string, 0, len(s.SubscriptionItems)+1)
	if plan := s.PlanItemPriceID(); plan != "" {
		ids = append(ids, plan)
	}
	for _, item := range s.SubscriptionItems {
		ids = append(ids, item.ItemPriceID)
	}
	return lo.Uniq(lo.Compact(ids))
}

// Invoice represents an invoice in the webhook content
type Invoice struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	Recurring      *bool      `json:"recurring,omitempty"`
	Status         string     `json:"status"`
	CurrencyCode   string     `json:"currency_code"`
	Total          int64      `json:"total"`
	AmountPaid     int64      `json:"amount_paid"`
	Date           int64      `json:"date"`
	PaidAt         int64      `json:"paid_at,omitempty"`
	LineItems      []LineItem `json:"line_items,omitempty"`
}

func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOneTime reports whether the invoice is a one-time purchase: it has no linked
// subscription or is explicitly marked as non-recurring
func (i *Invoice) IsOneTime() bool {
	return i.SubscriptionID == "" || (i.Recurring != nil && !*i.Recurring)
}

// LineItem represents a line item in an invoice
type LineItem struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	DateFrom       int64  `json:"date_from"`
	DateTo         int64  `json:"date_to"`
	UnitAmount     int64  `json:"unit_amount"`
	Quantity       int    `json:"quantity,omitempty"`
	Amount         int64  `json:"amount"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	Description    string `json:"description,omitempty"`
}

// Customer represents a customer in the webhook content
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Transaction represents a transaction in the webhook content
type Transaction struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Amount         int64           `json:"amount"`
	CurrencyCode   string          `json:"currency_code"`
	Date           int64           `json:"date"`
	LinkedInvoices []LinkedInvoice `json:"linked_invoices,omitempty"`
}

type LinkedInvoice struct {
	InvoiceID     string `json:"invoice_id"`
	AppliedAmount int64  `json:"applied_amount"`
	InvoiceStatus string `json:"invoice_status"`
}

// TimestampToTime converts a Chargebee unix timestamp, zero meaning absent
func TimestampToTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
