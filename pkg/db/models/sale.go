package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale is an immutable record of one completed checkout.
type Sale struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Timestamp   time.Time      `gorm:"column:timestamp;not null;index"`
	TotalAmount float64        `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CashierName string         `gorm:"column:cashier_name;not null"`
	Items       []SaleLineItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (Sale) TableName() string { return "sales" }

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return nil
}
