package service

import (
	"testing"

	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/testutil"
	"github.com/flexprice/grants/internal/types"
	"github.com/stretchr/testify/suite"
)

type AddonLifecycleSuite struct {
	reconciliationSuite
}

func TestAddonLifecycle(t *testing.T) {
	suite.Run(t, new(AddonLifecycleSuite))
}

func addonSubscriptionContent(subscriptionID, customerID, email string) *chargebee.Content {
	return &chargebee.Content{
		Customer: &chargebee.Customer{ID: customerID, Email: email},
		Subscription: &chargebee.Subscription{
			ID:         subscriptionID,
			CustomerID: customerID,
			SubscriptionItems: []chargebee.SubscriptionItem{
				{ItemPriceID: testutil.PriceExtraSlotMonthly, ItemType: chargebee.ItemTypeAddon, Quantity: 1},
			},
		},
	}
}

func (s *AddonLifecycleSuite) TestCreatedGrantsOncePerSubscription() {
	acct := s.createPayingAccount("addon@example.com", "sub_plan", "cust_addon")
	content := addonSubscriptionContent("sub_addon", "cust_addon", "addon@example.com")

	s.NoError(s.addons.HandleSubscriptionCreated(s.GetContext(), content))
	s.Equal(int64(1), s.GetAccount(acct.ID).ExtraSlots)

	// the primary endpoint sees the same subscription
	s.NoError(s.lifecycle.HandleSubscriptionCreated(s.GetContext(), content))
	s.NoError(s.addons.HandleSubscriptionCreated(s.GetContext(), content))

	got := s.GetAccount(acct.ID)
	s.Equal(int64(1), got.ExtraSlots)
	s.Equal("silver", got.PlanCode)
	s.Equal("sub_plan", got.GetSubscriptionID())

	records, err := s.GetStores().AddonRepo.ListBySourceID(s.GetContext(), "sub_addon")
	s.NoError(err)
	s.Len(records, 1)
}

func (s *AddonLifecycleSuite) TestCreatedIgnoresPlanSubscriptions() {
	acct := s.CreateAccount("plan@example.com")

	err := s.addons.HandleSubscriptionCreated(s.GetContext(),
		subscriptionContent("sub_plan_only", "cust_plan", "plan@example.com", testutil.PriceGoldMonthly))
	s.NoError(err)

	got := s.GetAccount(acct.ID)
	s.Equal("free", got.PlanCode)
	s.Equal(int64(0), got.ExtraSlots)
}

func (s *AddonLifecycleSuite) TestCreatedUnknownPrice() {
	s.CreateAccount("unknown@example.com")

	err := s.addons.HandleSubscriptionCreated(s.GetContext(),
		subscriptionContent("sub_unknown", "cust_unknown", "unknown@example.com", "Mega-Slots"))
	s.True(ierr.IsUnknownPlanID(err))
}

func (s *AddonLifecycleSuite) TestStatusFollowsSubscriptionSlotsPersist() {
	acct := s.createPayingAccount("status@example.com", "", "cust_status")
	content := addonSubscriptionContent("sub_status", "cust_status", "status@example.com")
	s.Require().NoError(s.addons.HandleSubscriptionCreated(s.GetContext(), content))

	steps := []struct {
		name   string
		handle func() error
		want   types.AddonStatus
	}{
		{
			name:   "renewed",
			handle: func() error { return s.addons.HandleSubscriptionRenewed(s.GetContext(), content) },
			want:   types.AddonStatusActive,
		},
		{
			name:   "cancelled",
			handle: func() error { return s.addons.HandleSubscriptionCancelled(s.GetContext(), content) },
			want:   types.AddonStatusCancelled,
		},
		{
			name:   "cancelled_again",
			handle: func() error { return s.addons.HandleSubscriptionCancelled(s.GetContext(), content) },
			want:   types.AddonStatusCancelled,
		},
		{
			name:   "reactivated",
			handle: func() error { return s.addons.HandleSubscriptionReactivated(s.GetContext(), content) },
			want:   types.AddonStatusActive,
		},
	}

	for _, step := range steps {
		s.Run(step.name, func() {
			s.NoError(step.handle())

			records, err := s.GetStores().AddonRepo.ListBySourceID(s.GetContext(), "sub_status")
			s.NoError(err)
			s.Require().Len(records, 1)
			s.Equal(step.want, records[0].Status)
			s.Equal(int64(1), s.GetAccount(acct.ID).ExtraSlots)
		})
	}
}

func (s *AddonLifecycleSuite) TestPaymentFailedNotifiesAdmin() {
	acct := s.createPayingAccount("failed@example.com", "", "cust_failed")

	err := s.addons.HandlePaymentFailed(s.GetContext(), &chargebee.Content{
		Customer: &chargebee.Customer{ID: "cust_failed"},
		Invoice: &chargebee.Invoice{
			ID:             "inv_failed",
			CustomerID:     "cust_failed",
			SubscriptionID: "sub_failed",
			Status:         "payment_due",
		},
	})
	s.NoError(err)

	admin := s.GetNotifier().Admin()
	s.Require().Len(admin, 1)
	s.Equal("Addon payment failed", admin[0].Subject)
	s.Equal(acct.ID, admin[0].Fields["account_id"])
	s.Equal("inv_failed", admin[0].Fields["invoice_id"])
	s.Equal("sub_failed", admin[0].Fields["subscription_id"])
	s.NotContains(admin[0].Fields, "email")

	got := s.GetAccount(acct.ID)
	s.Equal(acct.PayAsYouGoCredits, got.PayAsYouGoCredits)
	s.Equal(acct.ExtraSlots, got.ExtraSlots)
}
