package catalog

import (
	"testing"

	"github.com/flexprice/grants/internal/config"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CatalogSuite struct {
	suite.Suite
}

func TestCatalog(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) validEntries() []Entry {
	return []Entry{
		{
			PriceID:          "Gold-Monthly",
			PlanCode:         "gold",
			BillingModel:     types.BillingModelMonthly,
			RenewableCredits: 500,
			Price:            decimal.NewFromInt(49),
		},
		{
			PriceID:           "Silver-PAYG-Addon",
			PlanCode:          "payg",
			BillingModel:      types.BillingModelOneTime,
			PayAsYouGoCredits: 100,
		},
		{
			PriceID:      "Extra-Slot-Monthly",
			IsAddon:      true,
			BillingModel: types.BillingModelMonthly,
			ExtraSlots:   1,
		},
	}
}

func (s *CatalogSuite) TestLookup() {
	c, err := New(s.validEntries())
	s.Require().NoError(err)
	s.Equal(3, c.Len())

	e, ok := c.Lookup("Gold-Monthly")
	s.True(ok)
	s.Equal("gold", e.PlanCode)
	s.True(e.IsMonthly())
	s.True(e.Price.Equal(decimal.NewFromInt(49)))

	_, ok = c.Lookup("gold-monthly")
	s.False(ok, "price ids are case sensitive")

	_, err = c.Get("Platinum-Monthly")
	s.Error(err)
	s.True(ierr.IsUnknownPlanID(err))
	s.Equal(ierr.ErrCodeUnknownPlanID, ierr.ReconciliationCode(err))
}

func (s *CatalogSuite) TestValidation() {
	tests := []struct {
		name  string
		entry Entry
	}{
		{
			name:  "empty price id",
			entry: Entry{BillingModel: types.BillingModelOneTime, PayAsYouGoCredits: 10},
		},
		{
			name:  "unknown billing model",
			entry: Entry{PriceID: "x", BillingModel: "weekly"},
		},
		{
			name:  "negative credits",
			entry: Entry{PriceID: "x", BillingModel: types.BillingModelOneTime, PayAsYouGoCredits: -1},
		},
		{
			name:  "negative price",
			entry: Entry{PriceID: "x", BillingModel: types.BillingModelOneTime, Price: decimal.NewFromInt(-1)},
		},
		{
			name:  "addon without slots",
			entry: Entry{PriceID: "x", IsAddon: true, BillingModel: types.BillingModelMonthly},
		},
		{
			name:  "monthly plan without plan code",
			entry: Entry{PriceID: "x", BillingModel: types.BillingModelMonthly, RenewableCredits: 10},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			_, err := New([]Entry{tc.entry})
			s.Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *CatalogSuite) TestDuplicatePriceID() {
	entries := s.validEntries()
	entries = append(entries, entries[0])

	_, err := New(entries)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CatalogSuite) TestNewFromConfig() {
	cfg := config.GetDefaultConfig()
	cfg.Plans = []config.PlanConfig{
		{PriceID: "Gold-Monthly", PlanCode: "gold", BillingModel: types.BillingModelMonthly, RenewableCredits: 500, Price: "49.00"},
		{PriceID: "Silver-PAYG-Addon", PlanCode: "payg", BillingModel: types.BillingModelOneTime, PayAsYouGoCredits: 100},
	}

	c, err := NewFromConfig(cfg)
	s.Require().NoError(err)
	s.Equal([]string{"Gold-Monthly", "Silver-PAYG-Addon"}, c.PriceIDs())

	e, ok := c.Lookup("Gold-Monthly")
	s.True(ok)
	s.True(e.Price.Equal(decimal.RequireFromString("49")))

	cfg.Plans[0].Price = "forty-nine"
	_, err = NewFromConfig(cfg)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
