package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleLineItem is one weighed product captured inside a Sale.
type SaleLineItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SaleID       uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	Position     int       `gorm:"column:position;not null"`
	ProductName  string    `gorm:"column:product_name;not null"`
	Weight       float64   `gorm:"column:weight;type:numeric(10,2);not null"`
	PricePerUnit float64   `gorm:"column:price_per_unit;type:numeric(10,2);not null"`
	Quantity     int       `gorm:"column:quantity;not null;default:1"`
	TotalPrice   float64   `gorm:"column:total_price;type:numeric(12,2);not null"`
}

func (SaleLineItem) TableName() string { return "sale_line_items" }

func (i *SaleLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
