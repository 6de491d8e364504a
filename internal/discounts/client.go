// Package discounts fetches the user's discount eligibility from the
// backend. The backend owns every eligibility decision; a failed lookup
// degrades that discount to not-eligible instead of blocking the page.
package discounts

import (
	"context"
	"errors"
	"log"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/domain"
)

type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// FetchEligibility assembles the discount snapshot for a user. Warnings
// name the lookups that failed so the UI can mark the summary as
// possibly incomplete.
func (c *Client) FetchEligibility(ctx context.Context, userID string) (domain.Eligibility, []string) {
	var (
		e        domain.Eligibility
		warnings []string
	)

	if err := c.api.GetJSON(ctx, "/users/"+userID+"/discounts/signup", &e.Signup); err != nil && !ignorable(err) {
		log.Printf("signup discount lookup for %s failed: %v", userID, err)
		warnings = append(warnings, "signup discount status unavailable")
	}
	if err := c.api.GetJSON(ctx, "/users/"+userID+"/discounts/referral", &e.Referral); err != nil && !ignorable(err) {
		log.Printf("referral discount lookup for %s failed: %v", userID, err)
		warnings = append(warnings, "referral discount status unavailable")
	}
	if err := c.api.GetJSON(ctx, "/users/"+userID+"/discounts/points", &e.Points); err != nil && !ignorable(err) {
		log.Printf("points discount lookup for %s failed: %v", userID, err)
		warnings = append(warnings, "redeemed points status unavailable")
	}
	if err := c.api.GetJSON(ctx, "/promotions/active", &e.Promotion); err != nil && !ignorable(err) {
		log.Printf("active promotion lookup failed: %v", err)
		warnings = append(warnings, "promotion status unavailable")
	}

	return e, warnings
}

// ignorable: a 404 just means the user has no such discount.
func ignorable(err error) bool {
	return errors.Is(err, backend.ErrNotFound)
}
