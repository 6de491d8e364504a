// Package pricing composes the provisional cart total from the cart,
// resolved catalog prices and the backend's discount eligibility. Pure
// arithmetic: eligibility decisions belong to the backend, and nothing
// here mutates its inputs.
package pricing

import (
	"fmt"
	"log"
	"time"

	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Fees are the delivery leg costs. When PickupSameAsDelivery is set the
// pickup fee mirrors the delivery fee instead of its own value.
type Fees struct {
	Delivery             decimal.Decimal
	Pickup               decimal.Decimal
	PickupSameAsDelivery bool
}

// Quote is the composer input: a cart, the price per service id, the
// eligibility snapshot and the fees.
type Quote struct {
	Cart        *domain.Cart
	Services    map[string]domain.Service
	Eligibility domain.Eligibility
	Fees        Fees
	Now         time.Time
}

// Compose prices the quote. Each eligible discount is computed against
// the original subtotal in a fixed order (signup, referral, promotion,
// points); discounts never compound. A negative final total clamps to
// zero. A cart line whose service is missing from the catalog is priced
// at zero and surfaced as a warning, never an error.
func Compose(q Quote) Breakdown {
	b := Breakdown{
		Items:     make([]ItemLine, 0, len(q.Cart.Items)),
		Discounts: []DiscountLine{},
	}

	subtotal := decimal.Zero
	for _, item := range q.Cart.Items {
		svc, ok := q.Services[item.ServiceID]
		if !ok {
			b.Warnings = append(b.Warnings,
				fmt.Sprintf("service %s not found in catalog, priced at 0", item.ServiceID))
		}

		line := ItemLine{
			ServiceID:    item.ServiceID,
			Name:         svc.Name,
			Quantity:     item.Quantity,
			CatalogPrice: svc.Price,
			VoucherCode:  item.VoucherCode,
		}

		if item.Payable() {
			line.UnitPrice = svc.Price
			line.LineTotal = svc.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(line.LineTotal)
		} else {
			line.Struck = true
			line.UnitPrice = decimal.Zero
			line.LineTotal = decimal.Zero
		}

		b.Items = append(b.Items, line)
	}

	discountTotal := decimal.Zero
	for _, d := range activeDiscounts(q.Eligibility, q.Now) {
		amount := subtotal.Mul(d.pct).Div(hundred)
		discountTotal = discountTotal.Add(amount)
		b.Discounts = append(b.Discounts, DiscountLine{
			Kind:              d.kind,
			Percentage:        d.pct,
			DisplayPercentage: clampPercent(d.pct),
			Amount:            amount,
		})
	}

	delivery := q.Fees.Delivery
	pickup := q.Fees.Pickup
	if q.Fees.PickupSameAsDelivery {
		pickup = delivery
	}

	total := subtotal.Sub(discountTotal).Add(delivery).Add(pickup)
	if total.IsNegative() {
		log.Printf("pricing: discounts exceed subtotal plus fees (total %s), clamping to 0", total)
		b.Warnings = append(b.Warnings, "discounts exceed order total, total clamped to 0")
		b.Clamped = true
		total = decimal.Zero
	}

	// Single rounding pass at the end to avoid cumulative drift
	b.Subtotal = subtotal.Round(2)
	b.DiscountTotal = discountTotal.Round(2)
	b.DeliveryFee = delivery.Round(2)
	b.PickupFee = pickup.Round(2)
	b.Total = total.Round(2)
	for i := range b.Discounts {
		b.Discounts[i].Amount = b.Discounts[i].Amount.Round(2)
	}
	for i := range b.Items {
		b.Items[i].UnitPrice = b.Items[i].UnitPrice.Round(2)
		b.Items[i].LineTotal = b.Items[i].LineTotal.Round(2)
		b.Items[i].CatalogPrice = b.Items[i].CatalogPrice.Round(2)
	}

	return b
}

type activeDiscount struct {
	kind domain.DiscountKind
	pct  decimal.Decimal
}

// activeDiscounts walks the closed discount set in composition order.
func activeDiscounts(e domain.Eligibility, now time.Time) []activeDiscount {
	var out []activeDiscount

	if e.Signup.IsActive && !e.Signup.Used && e.Signup.Percentage.IsPositive() {
		out = append(out, activeDiscount{domain.DiscountSignup, e.Signup.Percentage})
	}
	if e.Referral.Eligible && e.Referral.Percentage.IsPositive() {
		out = append(out, activeDiscount{domain.DiscountReferral, e.Referral.Percentage})
	}
	if e.Promotion.IsActive && e.Promotion.InWindow(now) && e.Promotion.Percentage.IsPositive() {
		out = append(out, activeDiscount{domain.DiscountPromotion, e.Promotion.Percentage})
	}
	if !e.Points.IsApplied && e.Points.Percentage.IsPositive() {
		out = append(out, activeDiscount{domain.DiscountPoints, e.Points.Percentage})
	}

	return out
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
