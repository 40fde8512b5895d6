package sales

import (
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"github.com/google/uuid"
)

// LineItemDTO mirrors the line item fields the till submitted.
type LineItemDTO struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Price    float64 `json:"price"`
	Quantity int     `json:"qty"`
	Total    float64 `json:"total"`
}

// SaleDTO is a committed sale.
type SaleDTO struct {
	ID          uuid.UUID     `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	TotalAmount float64       `json:"total_amount"`
	CashierName string        `json:"cashier_name"`
	Items       []LineItemDTO `json:"items,omitempty"`
}

// DailySummary aggregates one calendar day of sales.
type DailySummary struct {
	Date             string    `json:"date"`
	TotalSales       float64   `json:"total_sales"`
	TransactionCount int64     `json:"transaction_count"`
	Recent           []SaleDTO `json:"recent"`
}

func toSaleDTO(s models.Sale) SaleDTO {
	out := SaleDTO{
		ID:          s.ID,
		Timestamp:   s.Timestamp.UTC(),
		TotalAmount: s.TotalAmount,
		CashierName: s.CashierName,
	}
	for _, item := range s.Items {
		out.Items = append(out.Items, LineItemDTO{
			Name:     item.ProductName,
			Weight:   item.Weight,
			Price:    item.PricePerUnit,
			Quantity: item.Quantity,
			Total:    item.TotalPrice,
		})
	}
	return out
}
