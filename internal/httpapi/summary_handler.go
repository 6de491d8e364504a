package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kleankickx/storefront-api/internal/catalog"
	"github.com/kleankickx/storefront-api/internal/discounts"
	"github.com/kleankickx/storefront-api/internal/pricing"
	"github.com/kleankickx/storefront-api/internal/store"
)

type SummaryHandler struct {
	store     *store.Store
	catalog   *catalog.Resolver
	discounts *discounts.Client
	timeout   time.Duration
}

func NewSummaryHandler(cartStore *store.Store, resolver *catalog.Resolver, discountClient *discounts.Client, timeout time.Duration) *SummaryHandler {
	return &SummaryHandler{
		store:     cartStore,
		catalog:   resolver,
		discounts: discountClient,
		timeout:   timeout,
	}
}

// SummaryResponse carries the provisional breakdown plus everything the
// page needs to explain it: the expiry signal and any degraded lookups.
type SummaryResponse struct {
	Breakdown pricing.Breakdown `json:"breakdown"`
	Expired   bool              `json:"expired,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// GetSummary prices the cart. Fees arrive as query parameters because
// the delivery form lives client side; pickup_same_as_delivery=true
// mirrors the delivery fee onto the pickup leg.
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	fees, err := parseFees(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_fees", err.Error())
		return
	}

	cart, expired := h.store.Load(ctx, userID)

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ServiceID)
	}
	services := h.catalog.ResolveAll(ctx, ids)

	eligibility, warnings := h.discounts.FetchEligibility(ctx, userID)

	breakdown := pricing.Compose(pricing.Quote{
		Cart:        cart,
		Services:    services,
		Eligibility: eligibility,
		Fees:        fees,
		Now:         time.Now(),
	})

	respondJSON(w, http.StatusOK, SummaryResponse{
		Breakdown: breakdown,
		Expired:   expired,
		Warnings:  warnings,
	})
}

func parseFees(r *http.Request) (pricing.Fees, error) {
	var fees pricing.Fees
	q := r.URL.Query()

	if raw := q.Get("delivery_fee"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return fees, fmt.Errorf("delivery_fee must be a non-negative decimal")
		}
		fees.Delivery = d
	}
	if raw := q.Get("pickup_fee"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return fees, fmt.Errorf("pickup_fee must be a non-negative decimal")
		}
		fees.Pickup = d
	}
	fees.PickupSameAsDelivery = q.Get("pickup_same_as_delivery") == "true"

	return fees, nil
}
