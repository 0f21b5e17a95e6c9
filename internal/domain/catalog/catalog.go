package catalog

import (
	"sort"

	"github.com/flexprice/grants/internal/config"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Entry is the entitlement descriptor granted for one provider price id
type Entry struct {
	PriceID           string
	PlanCode          string
	DisplayName       string
	IsAddon           bool
	BillingModel      types.BillingModel
	RenewableCredits  int64
	PayAsYouGoCredits int64
	ExtraSlots        int64
	Price             decimal.Decimal
}

// IsMonthly reports whether the entry renews every billing period
func (e Entry) IsMonthly() bool {
	return e.BillingModel == types.BillingModelMonthly
}

// Catalog is the plan mapping table. It is built once at startup and never mutated,
// so a single instance can be shared by every handler without locking.
type Catalog struct {
	entries map[string]Entry
}

// New validates the entries and builds an immutable catalog keyed by price id.
// Price ids are matched exactly, including case.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Plan mapping entry %d is invalid", i).
				WithReportableDetails(map[string]interface{}{
					"price_id": e.PriceID,
				}).
				Mark(ierr.ErrValidation)
		}
		if _, ok := c.entries[e.PriceID]; ok {
			return nil, ierr.NewErrorf("duplicate price id %s", e.PriceID).
				WithHint("Each price id can only be mapped once").
				Mark(ierr.ErrValidation)
		}
		c.entries[e.PriceID] = e
	}

	return c, nil
}

// NewFromConfig builds the catalog from the plans section of the configuration
func NewFromConfig(cfg *config.Configuration) (*Catalog, error) {
	entries := make([]Entry, 0, len(cfg.Plans))
	for _, p := range cfg.Plans {
		price := decimal.Zero
		if p.Price != "" {
			parsed, err := decimal.NewFromString(p.Price)
			if err != nil {
				return nil, ierr.WithError(err).
					WithHintf("Invalid price for plan %s", p.PriceID).
					Mark(ierr.ErrValidation)
			}
			price = parsed
		}

		entries = append(entries, Entry{
			PriceID:           p.PriceID,
			PlanCode:          p.PlanCode,
			DisplayName:       p.DisplayName,
			IsAddon:           p.IsAddon,
			BillingModel:      p.BillingModel,
			RenewableCredits:  p.RenewableCredits,
			PayAsYouGoCredits: p.PayAsYouGoCredits,
			ExtraSlots:        p.ExtraSlots,
			Price:             price,
		})
	}
	return New(entries)
}

// Lookup returns the entry mapped to the price id
func (c *Catalog) Lookup(priceID string) (Entry, bool) {
	e, ok := c.entries[priceID]
	return e, ok
}

// Get is Lookup returning an unknown_plan_id error when nothing is mapped
func (c *Catalog) Get(priceID string) (Entry, error) {
	e, ok := c.entries[priceID]
	if !ok {
		return Entry{}, ierr.NewErrorf("price id %q is not in the plan catalog", priceID).
			WithHint("Add the price id to the plans configuration").
			WithReportableDetails(map[string]interface{}{
				"price_id": priceID,
			}).
			Mark(ierr.ErrUnknownPlanID)
	}
	return e, nil
}

// Len returns the number of mapped price ids
func (c *Catalog) Len() int {
	return len(c.entries)
}

// PriceIDs returns the mapped price ids in sorted order, logged at startup
func (c *Catalog) PriceIDs() []string {
	ids := lo.Keys(c.entries)
	sort.Strings(ids)
	return ids
}

func validateEntry(e Entry) error {
	if e.PriceID == "" {
		return ierr.NewError("price_id is required").Mark(ierr.ErrValidation)
	}
	if !e.BillingModel.Validate() {
		return ierr.NewErrorf("unknown billing model %q", e.BillingModel).Mark(ierr.ErrValidation)
	}
	if e.RenewableCredits < 0 || e.PayAsYouGoCredits < 0 || e.ExtraSlots < 0 {
		return ierr.NewError("credit and slot amounts must not be negative").Mark(ierr.ErrValidation)
	}
	if e.Price.IsNegative() {
		return ierr.NewError("price must not be negative").Mark(ierr.ErrValidation)
	}
	if e.IsAddon && e.ExtraSlots == 0 {
		return ierr.NewError("addon entries must grant at least one slot").Mark(ierr.ErrValidation)
	}
	if !e.IsAddon && e.IsMonthly() && e.PlanCode == "" {
		return ierr.NewError("monthly plans require a plan_code").Mark(ierr.ErrValidation)
	}
	return nil
}
