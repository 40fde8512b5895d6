package checkout

import (
	"time"

	"github.com/google/uuid"
)

// SubmitItem is one line of a client-held cart.
type SubmitItem struct {
	Name     string  `json:"name" validate:"required,max=64"`
	Weight   float64 `json:"weight" validate:"gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"qty" validate:"gte=1"`
	// Total is informational; the subtotal is always recomputed.
	Total float64 `json:"total"`
}

// SubmitInput is a whole client-held cart posted for checkout.
type SubmitInput struct {
	Items   []SubmitItem `json:"items" validate:"required,min=1,dive"`
	Total   float64      `json:"total"`
	Cashier string       `json:"cashier"`
}

// Receipt describes a committed sale.
type Receipt struct {
	SaleID         uuid.UUID `json:"transaction_id"`
	Total          float64   `json:"total"`
	ItemCount      int       `json:"item_count"`
	Timestamp      time.Time `json:"timestamp"`
	TotalMismatch  bool      `json:"total_mismatch,omitempty"`
	SubmittedTotal *float64  `json:"submitted_total,omitempty"`
}
