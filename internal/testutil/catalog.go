package testutil

import (
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/types"
	"github.com/shopspring/decimal"
)

// Price ids of the test catalog
const (
	PriceSilverMonthly    = "Silver-Monthly"
	PriceGoldMonthly      = "Gold-Monthly"
	PriceGoldLaunch       = "Gold-Monthly-Launch"
	PriceSilverPAYG       = "Silver-PAYG-Addon"
	PriceGoldPAYG         = "Gold-PAYG-Addon"
	PriceExtraSlotMonthly = "Extra-Slot-Monthly"
	PriceExtraSlotsOnce   = "Extra-Slots-5-OneTime"
)

// TestCatalogEntries mirrors the plans shipped in config.yaml
func TestCatalogEntries() []catalog.Entry {
	return []catalog.Entry{
		{PriceID: PriceSilverMonthly, PlanCode: "silver", DisplayName: "Silver", BillingModel: types.BillingModelMonthly, RenewableCredits: 200, Price: decimal.RequireFromString("19.00")},
		{PriceID: PriceGoldMonthly, PlanCode: "gold", DisplayName: "Gold", BillingModel: types.BillingModelMonthly, RenewableCredits: 500, Price: decimal.RequireFromString("49.00")},
		{PriceID: PriceGoldLaunch, PlanCode: "gold", DisplayName: "Gold Launch", BillingModel: types.BillingModelMonthly, RenewableCredits: 500, PayAsYouGoCredits: 100, Price: decimal.RequireFromString("49.00")},
		{PriceID: PriceSilverPAYG, DisplayName: "Silver credit pack", BillingModel: types.BillingModelOneTime, PayAsYouGoCredits: 100, Price: decimal.RequireFromString("10.00")},
		{PriceID: PriceGoldPAYG, DisplayName: "Gold credit pack", BillingModel: types.BillingModelOneTime, PayAsYouGoCredits: 300, Price: decimal.RequireFromString("25.00")},
		{PriceID: PriceExtraSlotMonthly, DisplayName: "Extra slot", IsAddon: true, BillingModel: types.BillingModelMonthly, ExtraSlots: 1, Price: decimal.RequireFromString("5.00")},
		{PriceID: PriceExtraSlotsOnce, DisplayName: "Five extra slots", IsAddon: true, BillingModel: types.BillingModelOneTime, ExtraSlots: 5, Price: decimal.RequireFromString("20.00")},
	}
}

func NewTestCatalog() *catalog.Catalog {
	c, err := catalog.New(TestCatalogEntries())
	if err != nil {
		panic(err)
	}
	return c
}
