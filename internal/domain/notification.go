package domain

import "time"

type NotificationKind string

const (
	NotificationCartExpired    NotificationKind = "cart_expired"
	NotificationVoucherRemoved NotificationKind = "voucher_removed"
)

// Notification is a one-time user-facing message queued for delivery by
// the notification pipeline.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
