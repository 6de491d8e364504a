package pricing

import (
	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/shopspring/decimal"
)

// ItemLine is the priced rendering of one cart line. Voucher-redeemed
// and free-signup lines carry their catalog price for struck-through
// display but contribute zero to the subtotal.
type ItemLine struct {
	ServiceID    string          `json:"service_id"`
	Name         string          `json:"name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CatalogPrice decimal.Decimal `json:"catalog_price"`
	Struck       bool            `json:"struck,omitempty"`
	VoucherCode  string          `json:"voucher_code,omitempty"`
}

// DiscountLine is one applied discount. Percentage is the backend value
// as given; DisplayPercentage is clamped to [0,100] for rendering only.
type DiscountLine struct {
	Kind              domain.DiscountKind `json:"kind"`
	Percentage        decimal.Decimal     `json:"percentage"`
	DisplayPercentage decimal.Decimal     `json:"display_percentage"`
	Amount            decimal.Decimal     `json:"amount"`
}

// Breakdown is the itemized pricing summary. All monetary fields are
// rounded to two decimals; the composition itself runs at full
// precision. Totals are provisional until order creation confirms them
// server side.
type Breakdown struct {
	Items         []ItemLine      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discounts     []DiscountLine  `json:"discounts"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	PickupFee     decimal.Decimal `json:"pickup_fee"`
	Total         decimal.Decimal `json:"total"`
	Clamped       bool            `json:"clamped,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}
