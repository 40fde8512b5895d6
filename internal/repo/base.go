package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by the pricing, sales and user repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx; a nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// TakeOptional runs query.Take and maps a missing row to (nil, nil), which is
// how lookups by name or id report absence to the services.
func TakeOptional[T any](query *gorm.DB) (*T, error) {
	var out T
	err := query.Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
