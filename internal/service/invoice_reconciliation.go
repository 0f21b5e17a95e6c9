package service

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/account"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// InvoiceReconciliationService turns paid invoices into renewals or one-time grants
type InvoiceReconciliationService interface {
	HandleInvoiceGenerated(ctx context.Context, content *chargebee.Content) error
}

type invoiceReconciliationService struct {
	ServiceParams
	resolver   UserResolver
	granter    *entitlementGranter
	onboarding OnboardingService
}

func NewInvoiceReconciliationService(params ServiceParams, resolver UserResolver, onboarding OnboardingService) InvoiceReconciliationService {
	return &invoiceReconciliationService{
		ServiceParams: params,
		resolver:      resolver,
		granter:       newEntitlementGranter(params),
		onboarding:    onboarding,
	}
}

func (s *invoiceReconciliationService) HandleInvoiceGenerated(ctx context.Context, content *chargebee.Content) error {
	if content == nil || content.Invoice == nil {
		return ierr.NewError("event has no invoice").
			WithHint("Invoice events must carry the invoice").
			Mark(ierr.ErrValidation)
	}

	invoice := content.Invoice
	if !invoice.IsPaid() {
		s.Logger.Infow("skipping unpaid invoice",
			"invoice_id", invoice.ID,
			"status", invoice.Status)
		return nil
	}

	if invoice.IsOneTime() {
		return s.handleOneTimePurchase(ctx, content)
	}
	return s.handleRenewal(ctx, content)
}

// handleRenewal resets the renewable allotment. It resolves strictly by subscription id.
func (s *invoiceReconciliationService) handleRenewal(ctx context.Context, content *chargebee.Content) error {
	invoice := content.Invoice

	acct, err := s.resolver.BySubscriptionID(ctx, invoice.SubscriptionID)
	if err != nil {
		return err
	}

	priceID := renewalPriceID(content)
	entry, err := s.Catalog.Get(priceID)
	if err != nil {
		return ierr.WithError(err).
			WithReportableDetails(map[string]any{
				"invoice_id":      invoice.ID,
				"subscription_id": invoice.SubscriptionID,
			}).
			Mark(ierr.ErrUnknownPlanID)
	}

	if entry.IsAddon || !entry.IsMonthly() {
		s.Logger.Infow("renewal of non-plan price needs no reset",
			"account_id", acct.ID,
			"invoice_id", invoice.ID,
			"price_id", priceID,
			"is_addon", entry.IsAddon)
		return nil
	}

	next := nextBillingDate(content)
	if err := s.AccountRepo.ResetRenewableCredits(ctx, acct.ID, entry.RenewableCredits, next); err != nil {
		return err
	}

	s.Logger.Infow("reset renewable credits for renewal",
		"account_id", acct.ID,
		"invoice_id", invoice.ID,
		"price_id", priceID,
		"renewable_credits", entry.RenewableCredits,
		"previous_credits", acct.RenewableCredits,
		"next_billing_date", next)
	return nil
}

func (s *invoiceReconciliationService) handleOneTimePurchase(ctx context.Context, content *chargebee.Content) error {
	invoice := content.Invoice
	customerID := lo.CoalesceOrEmpty(invoice.CustomerID, content.CustomerID())

	acct, err := s.resolver.ByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}

	return applyOneTimeInvoice(ctx, s.ServiceParams, s.granter, s.onboarding, acct, invoice, customerID)
}

// applyOneTimeInvoice grants the first mapped line item of the invoice and runs the
// onboarding side effects
func applyOneTimeInvoice(
	ctx context.Context,
	params ServiceParams,
	granter *entitlementGranter,
	onboarding OnboardingService,
	acct *account.Account,
	invoice *chargebee.Invoice,
	customerID string,
) error {
	item, entry, ok := granter.matchLineItem(invoice.LineItems)
	if !ok {
		params.Logger.Warnw("no line item maps to a known price, ignoring invoice",
			"account_id", acct.ID,
			"invoice_id", invoice.ID,
			"line_items", invoice.LineItems)
		return nil
	}

	params.Logger.Infow("processing one-time purchase",
		"account_id", acct.ID,
		"invoice_id", invoice.ID,
		"line_item_id", item.ID,
		"price_id", entry.PriceID,
		"is_addon", entry.IsAddon)

	if err := granter.grantOneTime(ctx, acct, entry, grantSource{
		Type:       types.AddonSourceInvoice,
		ID:         invoice.ID,
		CustomerID: customerID,
	}); err != nil {
		return err
	}

	onboarding.OnEntitlementGranted(ctx, acct.ID, lo.CoalesceOrEmpty(entry.DisplayName, entry.PriceID))
	return nil
}

// renewalPriceID prefers the plan item of the subscription in the event, then the
// plan priced line item of the invoice
func renewalPriceID(content *chargebee.Content) string {
	if content.Subscription != nil {
		if id := content.Subscription.PlanItemPriceID(); id != "" {
			return id
		}
	}
	item, ok := lo.Find(content.Invoice.LineItems, func(li chargebee.LineItem) bool {
		return li.EntityType == chargebee.EntityTypePlanItemPrice
	})
	if ok {
		return item.EntityID
	}
	return ""
}

// nextBillingDate uses the subscription's next billing time, else one month after the
// invoice date
func nextBillingDate(content *chargebee.Content) *time.Time {
	if content.Subscription != nil {
		if next := chargebee.TimestampToTime(content.Subscription.NextBillingAt); next != nil {
			return next
		}
	}
	if date := chargebee.TimestampToTime(content.Invoice.Date); date != nil {
		return lo.ToPtr(date.AddDate(0, 1, 0))
	}
	return nil
}
