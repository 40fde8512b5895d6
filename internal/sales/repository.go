package sales

import (
	"context"
	"time"

	"github.com/angelmondragon/veggiepos-backend/internal/repo"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"github.com/angelmondragon/veggiepos-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists sales and their line items.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// CreateWithItems inserts the sale and its items. Callers run it inside a
// transaction so the pair is all-or-nothing.
func (r *Repository) CreateWithItems(ctx context.Context, sale *models.Sale) error {
	items := sale.Items
	sale.Items = nil
	if err := r.DB(ctx).Create(sale).Error; err != nil {
		sale.Items = items
		return err
	}
	for i := range items {
		items[i].SaleID = sale.ID
		items[i].Position = i
	}
	sale.Items = items
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&sale.Items).Error
}

// FindByID loads a sale with its items; nil when it does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return repo.TakeOptional[models.Sale](r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id))
}

// List returns sales newest first using keyset pagination.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	query := r.DB(ctx).Model(&models.Sale{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(timestamp < ?) OR (timestamp = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}
	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

type aggregateRow struct {
	Total float64
	Count int64
}

// Aggregate sums sales with timestamp in [from, to).
func (r *Repository) Aggregate(ctx context.Context, from, to time.Time) (float64, int64, error) {
	var row aggregateRow
	err := r.DB(ctx).Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Scan(&row).Error
	return row.Total, row.Count, err
}

// Recent returns the newest sales in [from, to), without items.
func (r *Repository) Recent(ctx context.Context, from, to time.Time, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.DB(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp DESC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
