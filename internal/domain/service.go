package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is an entry in the cleaning-service catalog, owned by the
// backend. Prices resolved here are provisional until order creation
// confirms them server side.
type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsBundle    bool            `json:"is_bundle"`
	CreatedAt   time.Time       `json:"created_at"`
}
