package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/money"
)

// LineItem is one weighed product in a cart. Subtotal is fixed when the item
// is created; later price changes do not touch it.
type LineItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Weight    float64   `json:"weight"`
	UnitPrice float64   `json:"price"`
	Quantity  int       `json:"qty"`
	Subtotal  float64   `json:"total"`
	AddedAt   time.Time `json:"added_at"`
}

// NewLineItem validates the structural fields and computes the subtotal.
func NewLineItem(name string, weight, unitPrice float64, quantity int) (LineItem, error) {
	name = strings.TrimSpace(name)
	violations := map[string]string{}
	if name == "" {
		violations["name"] = "required"
	}
	if weight <= 0 {
		violations["weight"] = "must be greater than zero"
	}
	if unitPrice < 0 {
		violations["price"] = "must be zero or greater"
	}
	if quantity < 1 {
		violations["qty"] = "must be at least 1"
	}
	if len(violations) > 0 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid line item").WithDetails(violations)
	}
	weight = money.Round2(weight)
	return LineItem{
		ID:        uuid.New(),
		Name:      name,
		Weight:    weight,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  money.Subtotal(weight, unitPrice, quantity),
	}, nil
}

// Total sums the subtotals of items.
func Total(items []LineItem) float64 {
	amounts := make([]float64, len(items))
	for i, item := range items {
		amounts[i] = item.Subtotal
	}
	return money.Sum(amounts...)
}
