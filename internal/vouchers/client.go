// Package vouchers verifies gift voucher codes against the backend and
// classifies rejections so the cart can drop dead voucher lines with a
// specific message.
package vouchers

import (
	"context"
	"errors"
	"fmt"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCode     = errors.New("voucher code is invalid")
	ErrAlreadyRedeemed = errors.New("voucher has already been redeemed")
	ErrExpired         = errors.New("voucher has expired")
)

// Voucher is a verified gift credit tied to one catalog service.
type Voucher struct {
	Code      string          `json:"code"`
	ServiceID string          `json:"service_id"`
	Value     decimal.Decimal `json:"value"`
	Status    string          `json:"status"`
}

type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

type verifyRequest struct {
	Code string `json:"code"`
}

// Verify asks the backend whether the code can still be redeemed.
func (c *Client) Verify(ctx context.Context, code string) (*Voucher, error) {
	var v Voucher
	err := c.api.PostJSON(ctx, "/vouchers/verify", verifyRequest{Code: code}, &v)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("voucher verification failed: %w", err)
	}

	switch v.Status {
	case "valid":
		return &v, nil
	case "redeemed":
		return nil, ErrAlreadyRedeemed
	case "expired":
		return nil, ErrExpired
	default:
		return nil, ErrInvalidCode
	}
}

// IsRejection reports whether the error is a backend verdict on the
// code itself, as opposed to a transport failure. Only verdicts justify
// removing the voucher line from the cart.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrAlreadyRedeemed) ||
		errors.Is(err, ErrExpired)
}
