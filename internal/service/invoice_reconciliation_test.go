package service

import (
	"testing"
	"time"

	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/testutil"
	"github.com/flexprice/grants/internal/types"
	"github.com/stretchr/testify/suite"
)

type InvoiceReconciliationSuite struct {
	reconciliationSuite
}

func TestInvoiceReconciliation(t *testing.T) {
	suite.Run(t, new(InvoiceReconciliationSuite))
}

func (s *InvoiceReconciliationSuite) TestRenewalResetsWithoutCompounding() {
	acct := s.createPayingAccount("renew@example.com", "sub_renew", "cust_renew")
	s.Require().NoError(s.GetStores().AccountRepo.ResetRenewableCredits(s.GetContext(), acct.ID, 37, nil))

	nextBilling := time.Date(2026, 12, 19, 0, 0, 0, 0, time.UTC)
	content := renewalInvoiceContent("inv_renew", "sub_renew", "cust_renew", testutil.PriceSilverMonthly, 0)
	content.Subscription = &chargebee.Subscription{
		ID:            "sub_renew",
		NextBillingAt: nextBilling.Unix(),
		SubscriptionItems: []chargebee.SubscriptionItem{
			{ItemPriceID: testutil.PriceGoldMonthly, ItemType: chargebee.ItemTypePlan},
		},
	}

	// redelivery resets to the same allotment
	for i := 0; i < 3; i++ {
		s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))

		got := s.GetAccount(acct.ID)
		s.Equal(int64(500), got.RenewableCredits)
		s.Require().NotNil(got.NextBillingDate)
		s.True(nextBilling.Equal(*got.NextBillingDate))
	}

	got := s.GetAccount(acct.ID)
	s.Equal("silver", got.PlanCode)
	s.Equal(int64(0), got.PayAsYouGoCredits)
	s.Empty(s.GetNotifier().Welcome())
}

func (s *InvoiceReconciliationSuite) TestRenewalFallsBackToLineItemAndInvoiceDate() {
	acct := s.createPayingAccount("lineitem@example.com", "sub_li", "")
	invoiceDate := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	err := s.invoices.HandleInvoiceGenerated(s.GetContext(),
		renewalInvoiceContent("inv_li", "sub_li", "cust_li", testutil.PriceSilverMonthly, invoiceDate.Unix()))
	s.NoError(err)

	got := s.GetAccount(acct.ID)
	s.Equal(int64(200), got.RenewableCredits)
	s.Require().NotNil(got.NextBillingDate)
	s.True(invoiceDate.AddDate(0, 1, 0).Equal(*got.NextBillingDate))
}

func (s *InvoiceReconciliationSuite) TestRenewalNoOps() {
	acct := s.createPayingAccount("noop@example.com", "sub_noop", "cust_noop")

	tests := []struct {
		name    string
		content *chargebee.Content
	}{
		{
			name:    "addon_renewal",
			content: renewalInvoiceContent("inv_addon", "sub_noop", "cust_noop", testutil.PriceExtraSlotMonthly, 0),
		},
		{
			name: "unpaid_invoice",
			content: func() *chargebee.Content {
				c := renewalInvoiceContent("inv_unpaid", "sub_noop", "cust_noop", testutil.PriceGoldMonthly, 0)
				c.Invoice.Status = "payment_due"
				return c
			}(),
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), tc.content))

			got := s.GetAccount(acct.ID)
			s.Equal(int64(200), got.RenewableCredits)
			s.Equal(int64(0), got.ExtraSlots)
			s.Equal("silver", got.PlanCode)
		})
	}
}

func (s *InvoiceReconciliationSuite) TestRenewalResolvesStrictlyBySubscription() {
	s.createPayingAccount("strict@example.com", "sub_other", "cust_strict")
	content := renewalInvoiceContent("inv_strict", "sub_unknown", "cust_strict", testutil.PriceSilverMonthly, 0)
	content.Customer = &chargebee.Customer{ID: "cust_strict", Email: "strict@example.com"}

	err := s.invoices.HandleInvoiceGenerated(s.GetContext(), content)
	s.Error(err)
	s.True(ierr.IsUserNotFound(err))
	s.Equal(0, s.GetCustomerClient().Calls())
}

func (s *InvoiceReconciliationSuite) TestRenewalUnknownPrice() {
	s.createPayingAccount("unknown@example.com", "sub_unknown_price", "")

	err := s.invoices.HandleInvoiceGenerated(s.GetContext(),
		renewalInvoiceContent("inv_unknown", "sub_unknown_price", "cust", "Platinum-Monthly", 0))
	s.Error(err)
	s.True(ierr.IsUnknownPlanID(err))
	s.Equal(ierr.ErrCodeUnknownPlanID, ierr.ReconciliationCode(err))
}

func (s *InvoiceReconciliationSuite) TestPayAsYouGoPurchasesAreAdditive() {
	acct := s.createPayingAccount("payg@example.com", "", "cust_payg")
	s.Require().NoError(s.GetStores().AccountRepo.AddPayAsYouGoCredits(s.GetContext(), acct.ID, 5, ""))

	const purchases = 3
	for i := 0; i < purchases; i++ {
		content := oneTimeInvoiceContent(
			"inv_payg_"+string(rune('a'+i)), "cust_payg",
			chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
		s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))
	}

	got := s.GetAccount(acct.ID)
	s.Equal(int64(5+purchases*100), got.PayAsYouGoCredits)
	s.Equal("silver", got.PlanCode)
	s.Equal(int64(200), got.RenewableCredits)
	s.Len(s.GetNotifier().Welcome(), 1)
}

func (s *InvoiceReconciliationSuite) TestNonRecurringSubscriptionInvoiceIsOneTime() {
	acct := s.createPayingAccount("flagged@example.com", "sub_flagged", "cust_flagged")
	content := oneTimeInvoiceContent("inv_flagged", "cust_flagged", chargebee.EntityTypePlanItemPrice, testutil.PriceGoldPAYG)
	content.Invoice.SubscriptionID = "sub_flagged"

	s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))

	got := s.GetAccount(acct.ID)
	s.Equal(int64(300), got.PayAsYouGoCredits)
	s.Equal(int64(200), got.RenewableCredits)
	s.Equal("silver", got.PlanCode)
}

func (s *InvoiceReconciliationSuite) TestCustomerFallbackBackfillsForNextInvoice() {
	acct := s.CreateAccount("newbuyer@example.com")
	s.GetCustomerClient().AddCustomer("cust_newbuyer", "newbuyer@example.com")

	first := oneTimeInvoiceContent("inv_first", "cust_newbuyer", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
	s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), first))
	s.Equal(1, s.GetCustomerClient().Calls())
	s.Equal("cust_newbuyer", s.GetAccount(acct.ID).GetCustomerID())

	second := oneTimeInvoiceContent("inv_second", "cust_newbuyer", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
	s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), second))
	s.Equal(1, s.GetCustomerClient().Calls())

	got := s.GetAccount(acct.ID)
	s.Equal(int64(200), got.PayAsYouGoCredits)
	s.Equal("free", got.PlanCode)
}

func (s *InvoiceReconciliationSuite) TestUnresolvedPurchaseIsDropped() {
	s.GetCustomerClient().FailWith(ierr.NewError("timeout").Mark(ierr.ErrHTTPClient))

	err := s.invoices.HandleInvoiceGenerated(s.GetContext(),
		oneTimeInvoiceContent("inv_lost", "cust_lost", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG))
	s.Error(err)
	s.True(ierr.IsUserNotFound(err))
	s.Empty(s.GetNotifier().Welcome())
}

func (s *InvoiceReconciliationSuite) TestOneTimeAddonPurchase() {
	acct := s.createPayingAccount("slots@example.com", "", "cust_slots")

	content := oneTimeInvoiceContent("inv_slots", "cust_slots", chargebee.EntityTypeChargeItemPrice, testutil.PriceExtraSlotsOnce)
	s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))

	got := s.GetAccount(acct.ID)
	s.Equal(int64(5), got.ExtraSlots)
	s.Equal(int64(0), got.PayAsYouGoCredits)

	records, err := s.GetStores().AddonRepo.ListBySourceID(s.GetContext(), "inv_slots")
	s.NoError(err)
	s.Require().Len(records, 1)
	s.Equal(types.AddonSourceInvoice, records[0].SourceType)
	s.Equal(types.BillingModelOneTime, records[0].BillingModel)

	admin := s.GetNotifier().Admin()
	s.Require().NotEmpty(admin)
	s.Equal("Extra slots purchased", admin[0].Subject)
}

func (s *InvoiceReconciliationSuite) TestUnmatchedLineItemsAreIgnored() {
	acct := s.createPayingAccount("unmatched@example.com", "", "cust_unmatched")

	tests := []struct {
		name       string
		entityType string
		priceID    string
	}{
		{name: "unknown_price", entityType: chargebee.EntityTypeChargeItemPrice, priceID: "Mystery-Pack"},
		{name: "wrong_entity_type", entityType: "adhoc", priceID: testutil.PriceSilverPAYG},
		{name: "case_mismatch", entityType: chargebee.EntityTypeChargeItemPrice, priceID: "silver-payg-addon"},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			content := oneTimeInvoiceContent("inv_"+tc.name, "cust_unmatched", tc.entityType, tc.priceID)
			s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))
			s.Equal(int64(0), s.GetAccount(acct.ID).PayAsYouGoCredits)
		})
	}
}

func (s *InvoiceReconciliationSuite) TestPendingRegistrationCompletedOnce() {
	acct := s.createPayingAccount("pending@example.com", "", "cust_pending")
	s.createPendingRegistration(acct.ID)

	for _, id := range []string{"inv_p1", "inv_p2"} {
		content := oneTimeInvoiceContent(id, "cust_pending", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
		s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))
	}

	reg, err := s.GetStores().RegistrationRepo.Get(s.GetContext(), acct.ID)
	s.NoError(err)
	s.True(reg.IsCompleted())
	completedAt := *reg.CompletedAt

	completions := 0
	for _, n := range s.GetNotifier().Admin() {
		if n.Subject == "Registration completed" {
			completions++
		}
	}
	s.Equal(1, completions)
	s.Len(s.GetNotifier().Welcome(), 1)

	// a later grant leaves the completed registration untouched
	content := oneTimeInvoiceContent("inv_p3", "cust_pending", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
	s.NoError(s.invoices.HandleInvoiceGenerated(s.GetContext(), content))
	reg, err = s.GetStores().RegistrationRepo.Get(s.GetContext(), acct.ID)
	s.NoError(err)
	s.True(completedAt.Equal(*reg.CompletedAt))
}

func (s *InvoiceReconciliationSuite) TestMissingInvoice() {
	err := s.invoices.HandleInvoiceGenerated(s.GetContext(), &chargebee.Content{})
	s.Error(err)
	s.Equal(ierr.ErrCodeProcessing, ierr.ReconciliationCode(err))
}
