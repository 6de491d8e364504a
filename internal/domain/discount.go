package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind is the closed set of discounts the storefront knows how
// to compose. The backend decides eligibility; this service only does
// the arithmetic.
type DiscountKind string

const (
	DiscountSignup    DiscountKind = "signup"
	DiscountReferral  DiscountKind = "referral"
	DiscountPromotion DiscountKind = "promotion"
	DiscountPoints    DiscountKind = "points"
)

// Eligibility is a read-only snapshot of the user's discount state as
// reported by the backend.
type Eligibility struct {
	Signup    SignupDiscount    `json:"signup"`
	Referral  ReferralDiscount  `json:"referral"`
	Points    PointsDiscount    `json:"redeemed_points"`
	Promotion PromotionDiscount `json:"applied_promotion"`
}

// SignupDiscount is granted once per account.
type SignupDiscount struct {
	Percentage decimal.Decimal `json:"percentage"`
	IsActive   bool            `json:"is_active"`
	Used       bool            `json:"used"`
}

// ReferralDiscount stays available until the user's first order
// completes.
type ReferralDiscount struct {
	Percentage decimal.Decimal `json:"percentage"`
	Eligible   bool            `json:"eligible"`
}

// PointsDiscount is unlocked by redeeming loyalty points, single use.
type PointsDiscount struct {
	Percentage decimal.Decimal `json:"percentage"`
	IsApplied  bool            `json:"is_applied"`
}

// PromotionDiscount is campaign wide and time bounded.
type PromotionDiscount struct {
	Percentage decimal.Decimal `json:"discount_percentage"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	IsActive   bool            `json:"is_active"`
}

// InWindow reports whether now falls within [StartDate, EndDate).
func (p PromotionDiscount) InWindow(now time.Time) bool {
	return !now.Before(p.StartDate) && now.Before(p.EndDate)
}
