package service

import (
	"context"
	"strconv"

	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/addon"
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/email"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// acceptedLineItemTypes are the line item entity types a one-time purchase can be matched on
var acceptedLineItemTypes = []string{
	chargebee.EntityTypePlanItemPrice,
	chargebee.EntityTypeChargeItemPrice,
	chargebee.EntityTypeAddonItemPrice,
}

// grantSource identifies the provider object a grant originates from
type grantSource struct {
	Type       types.AddonSourceType
	ID         string
	CustomerID string
}

// entitlementGranter applies the additive grants shared by subscription, invoice and
// recovery handling
type entitlementGranter struct {
	ServiceParams
}

func newEntitlementGranter(params ServiceParams) *entitlementGranter {
	return &entitlementGranter{ServiceParams: params}
}

// matchLineItem returns the first line item whose entity maps to a catalog entry
func (g *entitlementGranter) matchLineItem(items []chargebee.LineItem) (chargebee.LineItem, catalog.Entry, bool) {
	for _, item := range items {
		if !lo.Contains(acceptedLineItemTypes, item.EntityType) {
			continue
		}
		if entry, ok := g.Catalog.Lookup(item.EntityID); ok {
			return item, entry, true
		}
	}
	return chargebee.LineItem{}, catalog.Entry{}, false
}

// grantOneTime applies a one-time purchase. It never touches the plan of the account.
func (g *entitlementGranter) grantOneTime(ctx context.Context, acct *account.Account, entry catalog.Entry, src grantSource) error {
	if entry.IsAddon {
		return g.grantAddon(ctx, acct, entry, src)
	}

	if entry.PayAsYouGoCredits == 0 {
		g.Logger.Warnw("mapped price grants no pay-as-you-go credits, nothing to apply",
			"account_id", acct.ID,
			"price_id", entry.PriceID,
			"source_id", src.ID)
		return nil
	}

	if err := g.AccountRepo.AddPayAsYouGoCredits(ctx, acct.ID, entry.PayAsYouGoCredits, src.CustomerID); err != nil {
		return err
	}

	g.Logger.Infow("granted pay-as-you-go credits",
		"account_id", acct.ID,
		"price_id", entry.PriceID,
		"credits", entry.PayAsYouGoCredits,
		"balance_before", acct.PayAsYouGoCredits,
		"source_id", src.ID)
	return nil
}

// grantAddon adds the slots of an addon entry and records the purchase. A source that
// already has an addon record is not granted again.
func (g *entitlementGranter) grantAddon(ctx context.Context, acct *account.Account, entry catalog.Entry, src grantSource) error {
	existing, err := g.AddonRepo.ListBySourceID(ctx, src.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		g.Logger.Infow("addon already granted for source, skipping",
			"account_id", acct.ID,
			"source_id", src.ID,
			"source_type", src.Type)
		return nil
	}

	if err := g.AccountRepo.AddExtraSlots(ctx, acct.ID, entry.ExtraSlots); err != nil {
		return err
	}

	record := addon.NewAddon(acct.ID, entry.ExtraSlots, src.Type, src.ID)
	record.PriceID = entry.PriceID
	record.Price = entry.Price
	record.BillingModel = entry.BillingModel

	// The slots are already granted; a missing record only loses the audit trail.
	if err := g.AddonRepo.Create(ctx, record); err != nil {
		g.Logger.Errorw("failed to record addon after granting slots",
			"account_id", acct.ID,
			"source_id", src.ID,
			"slots", entry.ExtraSlots,
			"error", err)
	}

	g.Logger.Infow("granted addon slots",
		"account_id", acct.ID,
		"price_id", entry.PriceID,
		"slots", entry.ExtraSlots,
		"source_id", src.ID,
		"source_type", src.Type)

	g.Notifier.NotifyAdmin(ctx, acct.ID, email.AdminNotification{
		Subject: "Extra slots purchased",
		Body:    "An account bought extra slots",
		Fields: map[string]string{
			"account_id": acct.ID,
			"email":      acct.Email,
			"price_id":   entry.PriceID,
			"slots":      strconv.FormatInt(entry.ExtraSlots, 10),
			"source_id":  src.ID,
		},
	})
	return nil
}
