package service

import (
	"context"

	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/samber/lo"
)

// PaymentRecoveryService re-applies one-time grants that a failed invoice reconciliation
// left out. An account that already holds pay-as-you-go credits is assumed to have been
// granted and is left alone. Pay-as-you-go credits are re-applied without checking for an
// earlier grant, but addon slots are not: an invoice that already has an addon record is
// skipped, so recovery never grants the same addon purchase twice.
type PaymentRecoveryService interface {
	HandlePaymentSucceeded(ctx context.Context, content *chargebee.Content) error
}

type paymentRecoveryService struct {
	ServiceParams
	resolver   UserResolver
	granter    *entitlementGranter
	onboarding OnboardingService
}

func NewPaymentRecoveryService(params ServiceParams, resolver UserResolver, onboarding OnboardingService) PaymentRecoveryService {
	return &paymentRecoveryService{
		ServiceParams: params,
		resolver:      resolver,
		granter:       newEntitlementGranter(params),
		onboarding:    onboarding,
	}
}

func (s *paymentRecoveryService) HandlePaymentSucceeded(ctx context.Context, content *chargebee.Content) error {
	if content == nil || content.Invoice == nil {
		s.Logger.Infow("payment has no invoice, nothing to recover")
		return nil
	}

	invoice := content.Invoice
	customerID := lo.CoalesceOrEmpty(content.CustomerID(), invoice.CustomerID)

	if !invoice.IsOneTime() {
		s.Logger.Debugw("payment for recurring invoice, no recovery needed",
			"customer_id", customerID,
			"invoice_id", invoice.ID)
		return nil
	}

	acct, err := s.resolver.ByCustomerIDOrEmail(ctx, customerID, content.CustomerEmail())
	if err != nil {
		return err
	}

	// Read-then-write: a concurrent invoice delivery can still grant alongside this one.
	if acct.PayAsYouGoCredits != 0 {
		s.Logger.Debugw("account already holds pay-as-you-go credits, no recovery needed",
			"account_id", acct.ID,
			"invoice_id", invoice.ID,
			"payasyougo_credits", acct.PayAsYouGoCredits)
		return nil
	}

	s.Logger.Infow("recovering one-time grant from payment",
		"account_id", acct.ID,
		"invoice_id", invoice.ID,
		"customer_id", customerID)

	return applyOneTimeInvoice(ctx, s.ServiceParams, s.granter, s.onboarding, acct, invoice, customerID)
}
