package service

import (
	"time"

	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/registration"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/testutil"
	"github.com/samber/lo"
)

// reconciliationSuite wires every billing service over the in-memory stores
type reconciliationSuite struct {
	testutil.BaseServiceTestSuite
	params     ServiceParams
	resolver   UserResolver
	lifecycle  SubscriptionLifecycleService
	invoices   InvoiceReconciliationService
	recovery   PaymentRecoveryService
	addons     AddonLifecycleService
	onboarding OnboardingService
}

func (s *reconciliationSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()

	s.params = NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetCatalog(),
		stores.AccountRepo,
		stores.AddonRepo,
		stores.RegistrationRepo,
		s.GetCustomerClient(),
		s.GetNotifier(),
	)
	s.resolver = NewUserResolver(s.params)
	s.onboarding = NewOnboardingService(s.params)
	s.lifecycle = NewSubscriptionLifecycleService(s.params, s.resolver, s.onboarding)
	s.invoices = NewInvoiceReconciliationService(s.params, s.resolver, s.onboarding)
	s.recovery = NewPaymentRecoveryService(s.params, s.resolver, s.onboarding)
	s.addons = NewAddonLifecycleService(s.params, s.resolver)
}

// createPayingAccount seeds an account that already holds a subscription and customer id
func (s *reconciliationSuite) createPayingAccount(email, subscriptionID, customerID string) *account.Account {
	a := account.NewAccount(email, "silver", 200)
	if subscriptionID != "" {
		a.ProviderSubscriptionID = lo.ToPtr(subscriptionID)
	}
	if customerID != "" {
		a.ProviderCustomerID = lo.ToPtr(customerID)
	}
	s.Require().NoError(s.GetStores().AccountRepo.Create(s.GetContext(), a))
	return a
}

func (s *reconciliationSuite) createPendingRegistration(accountID string) {
	s.Require().NoError(s.GetStores().RegistrationRepo.Create(s.GetContext(), &registration.PendingRegistration{
		AccountID:  accountID,
		ProfileURL: "https://example.com/profile/" + accountID,
		CreatedAt:  time.Now().UTC(),
	}))
}

func subscriptionContent(subscriptionID, customerID, email, planPriceID string, extraItems ...chargebee.SubscriptionItem) *chargebee.Content {
	items := []chargebee.SubscriptionItem{{ItemPriceID: planPriceID, ItemType: chargebee.ItemTypePlan, Quantity: 1}}
	items = append(items, extraItems...)
	return &chargebee.Content{
		Customer: &chargebee.Customer{ID: customerID, Email: email},
		Subscription: &chargebee.Subscription{
			ID:                subscriptionID,
			CustomerID:        customerID,
			Status:            "active",
			SubscriptionItems: items,
		},
	}
}

func oneTimeInvoiceContent(invoiceID, customerID, entityType, priceID string) *chargebee.Content {
	return &chargebee.Content{
		Invoice: &chargebee.Invoice{
			ID:         invoiceID,
			CustomerID: customerID,
			Recurring:  lo.ToPtr(false),
			Status:     chargebee.InvoiceStatusPaid,
			LineItems: []chargebee.LineItem{
				{ID: "li_" + invoiceID, EntityType: entityType, EntityID: priceID, Quantity: 1},
			},
		},
	}
}

func renewalInvoiceContent(invoiceID, subscriptionID, customerID, planPriceID string, invoiceDate int64) *chargebee.Content {
	return &chargebee.Content{
		Invoice: &chargebee.Invoice{
			ID:             invoiceID,
			CustomerID:     customerID,
			SubscriptionID: subscriptionID,
			Recurring:      lo.ToPtr(true),
			Status:         chargebee.InvoiceStatusPaid,
			Date:           invoiceDate,
			LineItems: []chargebee.LineItem{
				{ID: "li_" + invoiceID, EntityType: chargebee.EntityTypePlanItemPrice, EntityID: planPriceID, Quantity: 1},
			},
		},
	}
}
