package addon

import (
	"github.com/flexprice/grants/internal/types"
	"github.com/shopspring/decimal"
)

// Addon records a purchase of extra slots. Rows are append-only, slots are never
// decremented and only the status follows the provider lifecycle.
type Addon struct {
	ID           string                `db:"id" json:"id"`
	AccountID    string                `db:"account_id" json:"account_id"`
	Slots        int64                 `db:"slots" json:"slots"`
	SourceID     string                `db:"source_id" json:"source_id"`
	SourceType   types.AddonSourceType `db:"source_type" json:"source_type"`
	PriceID      string                `db:"price_id" json:"price_id"`
	Price        decimal.Decimal       `db:"price" json:"price"`
	BillingModel types.BillingModel    `db:"billing_model" json:"billing_model"`
	Status       types.AddonStatus     `db:"status" json:"status"`
	types.BaseModel
}

func NewAddon(accountID string, slots int64, sourceType types.AddonSourceType, sourceID string) *Addon {
	return &Addon{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADDON),
		AccountID:  accountID,
		Slots:      slots,
		SourceID:   sourceID,
		SourceType: sourceType,
		Status:     types.AddonStatusActive,
		BaseModel:  types.GetDefaultBaseModel(),
	}
}
