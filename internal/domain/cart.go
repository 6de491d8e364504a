package domain

import "time"

type Cart struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string     `json:"user_id" bson:"user_id"`
	Items     []CartItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

type CartItem struct {
	ServiceID           string    `json:"service_id" bson:"service_id"`
	Quantity            int       `json:"quantity" bson:"quantity"`
	IsVoucherRedeem     bool      `json:"is_voucher_redeem,omitempty" bson:"is_voucher_redeem,omitempty"`
	VoucherCode         string    `json:"voucher_code,omitempty" bson:"voucher_code,omitempty"`
	VoucherValue        string    `json:"voucher_value,omitempty" bson:"voucher_value,omitempty"`
	IsFreeSignupService bool      `json:"is_free_signup_service,omitempty" bson:"is_free_signup_service,omitempty"`
	Image               *Image    `json:"image,omitempty" bson:"image,omitempty"`
	AddedAt             time.Time `json:"added_at" bson:"added_at"`
}

// Image is the photo attached to a cart line. Data is the persisted
// base64 payload; PreviewHandle is an ephemeral reference issued by the
// image helper and is never persisted.
type Image struct {
	Data          string `json:"data" bson:"data"`
	ContentType   string `json:"content_type" bson:"content_type"`
	PreviewHandle string `json:"-" bson:"-"`
}

// Key identifies a line within a cart. Voucher-redeem lines are keyed by
// their code as well, so redeeming two vouchers for the same service
// yields two distinct lines.
func (i CartItem) Key() string {
	if i.IsVoucherRedeem {
		return i.ServiceID + "#" + i.VoucherCode
	}
	return i.ServiceID
}

// Payable reports whether the line contributes to the cart subtotal.
// Voucher-redeemed and free-signup lines are priced at zero.
func (i CartItem) Payable() bool {
	return !i.IsVoucherRedeem && !i.IsFreeSignupService
}

func (c *Cart) Find(key string) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].Key() == key {
			return &c.Items[idx]
		}
	}
	return nil
}

func (c *Cart) TotalQuantity() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
