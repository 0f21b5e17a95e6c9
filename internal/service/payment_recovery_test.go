package service

import (
	"testing"

	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type PaymentRecoverySuite struct {
	reconciliationSuite
}

func TestPaymentRecovery(t *testing.T) {
	suite.Run(t, new(PaymentRecoverySuite))
}

func paymentContent(invoice *chargebee.Invoice, customerID, email string) *chargebee.Content {
	return &chargebee.Content{
		Transaction: &chargebee.Transaction{
			ID:         "txn_" + invoice.ID,
			CustomerID: customerID,
			Status:     "success",
			LinkedInvoices: []chargebee.LinkedInvoice{
				{InvoiceID: invoice.ID, InvoiceStatus: chargebee.InvoiceStatusPaid},
			},
		},
		Customer: &chargebee.Customer{ID: customerID, Email: email},
		Invoice:  invoice,
	}
}

func (s *PaymentRecoverySuite) TestRecoversFailedInvoiceResolution() {
	acct := s.CreateAccount("recover@example.com")
	s.GetCustomerClient().FailWith(ierr.NewError("provider down").Mark(ierr.ErrHTTPClient))

	invoiceContent := oneTimeInvoiceContent("inv_recover", "cust_recover", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG)
	err := s.invoices.HandleInvoiceGenerated(s.GetContext(), invoiceContent)
	s.True(ierr.IsUserNotFound(err))
	s.Equal(int64(0), s.GetAccount(acct.ID).PayAsYouGoCredits)

	err = s.recovery.HandlePaymentSucceeded(s.GetContext(),
		paymentContent(invoiceContent.Invoice, "cust_recover", "recover@example.com"))
	s.NoError(err)

	got := s.GetAccount(acct.ID)
	s.Equal(int64(100), got.PayAsYouGoCredits)
	s.Equal("free", got.PlanCode)
	s.Equal("cust_recover", got.GetCustomerID())
	s.Len(s.GetNotifier().Welcome(), 1)
}

func (s *PaymentRecoverySuite) TestRecoveryViaProviderLookup() {
	acct := s.CreateAccount("api@example.com")
	s.GetCustomerClient().AddCustomer("cust_api", "api@example.com")

	invoice := oneTimeInvoiceContent("inv_api", "cust_api", chargebee.EntityTypeChargeItemPrice, testutil.PriceGoldPAYG).Invoice
	s.NoError(s.recovery.HandlePaymentSucceeded(s.GetContext(), paymentContent(invoice, "cust_api", "")))

	got := s.GetAccount(acct.ID)
	s.Equal(int64(300), got.PayAsYouGoCredits)
	s.Equal("cust_api", got.GetCustomerID())
	s.Equal(1, s.GetCustomerClient().Calls())
}

func (s *PaymentRecoverySuite) TestRecoverySkips() {
	tests := []struct {
		name    string
		setup   func() (string, *chargebee.Content)
		credits int64
	}{
		{
			name: "account_already_has_credits",
			setup: func() (string, *chargebee.Content) {
				acct := s.createPayingAccount("holder@example.com", "", "cust_holder")
				s.Require().NoError(s.GetStores().AccountRepo.AddPayAsYouGoCredits(s.GetContext(), acct.ID, 100, ""))
				invoice := oneTimeInvoiceContent("inv_holder", "cust_holder", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG).Invoice
				return acct.ID, paymentContent(invoice, "cust_holder", "holder@example.com")
			},
			credits: 100,
		},
		{
			name: "recurring_invoice",
			setup: func() (string, *chargebee.Content) {
				acct := s.createPayingAccount("recurring@example.com", "sub_recurring", "cust_recurring")
				invoice := renewalInvoiceContent("inv_recurring", "sub_recurring", "cust_recurring", testutil.PriceSilverMonthly, 0).Invoice
				return acct.ID, paymentContent(invoice, "cust_recurring", "recurring@example.com")
			},
			credits: 0,
		},
		{
			name: "no_mapped_line_item",
			setup: func() (string, *chargebee.Content) {
				acct := s.createPayingAccount("mystery@example.com", "", "cust_mystery")
				invoice := oneTimeInvoiceContent("inv_mystery", "cust_mystery", chargebee.EntityTypeChargeItemPrice, "Mystery-Pack").Invoice
				return acct.ID, paymentContent(invoice, "cust_mystery", "mystery@example.com")
			},
			credits: 0,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			accountID, content := tc.setup()
			s.NoError(s.recovery.HandlePaymentSucceeded(s.GetContext(), content))
			s.Equal(tc.credits, s.GetAccount(accountID).PayAsYouGoCredits)
		})
	}
}

func (s *PaymentRecoverySuite) TestRecoveryUnknownCustomer() {
	invoice := oneTimeInvoiceContent("inv_ghost", "cust_ghost", chargebee.EntityTypeChargeItemPrice, testutil.PriceSilverPAYG).Invoice

	err := s.recovery.HandlePaymentSucceeded(s.GetContext(), paymentContent(invoice, "cust_ghost", "ghost@example.com"))
	s.Error(err)
	s.True(ierr.IsUserNotFound(err))
}

func (s *PaymentRecoverySuite) TestRecurringPaymentSkipsCustomerLookup() {
	invoice := renewalInvoiceContent("inv_unlinked", "sub_unlinked", "cust_unlinked", testutil.PriceSilverMonthly, 0).Invoice

	err := s.recovery.HandlePaymentSucceeded(s.GetContext(), paymentContent(invoice, "cust_unlinked", "unlinked@example.com"))
	s.NoError(err)
	s.Equal(0, s.GetCustomerClient().Calls())
}

func (s *PaymentRecoverySuite) TestRecoveryDoesNotRegrantAddon() {
	acct := s.createPayingAccount("slots-recover@example.com", "", "cust_slots_recover")
	invoice := oneTimeInvoiceContent("inv_slots", "cust_slots_recover", chargebee.EntityTypeAddonItemPrice, testutil.PriceExtraSlotsOnce).Invoice
	payment := paymentContent(invoice, "cust_slots_recover", "slots-recover@example.com")

	s.NoError(s.recovery.HandlePaymentSucceeded(s.GetContext(), payment))
	s.NoError(s.recovery.HandlePaymentSucceeded(s.GetContext(), payment))

	got := s.GetAccount(acct.ID)
	s.Equal(int64(5), got.ExtraSlots)
	s.Equal(int64(0), got.PayAsYouGoCredits)
}

func (s *PaymentRecoverySuite) TestPaymentWithoutInvoice() {
	s.NoError(s.recovery.HandlePaymentSucceeded(s.GetContext(), &chargebee.Content{
		Transaction: &chargebee.Transaction{ID: "txn_1", CustomerID: "cust_1"},
	}))
}
