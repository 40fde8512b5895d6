package pricing

import (
	"context"

	"github.com/angelmondragon/veggiepos-backend/internal/repo"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the price directory.
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

// List returns every product ordered by name in a single query.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.DB(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByName returns nil without error when the product does not exist.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	return repo.TakeOptional[models.Product](r.DB(ctx).Where("name = ?", name))
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// UpdatePrice applies the new price in one statement and reports how many
// rows matched.
func (r *Repository) UpdatePrice(ctx context.Context, name string, price float64) (int64, error) {
	res := r.DB(ctx).Model(&models.Product{}).Where("name = ?", name).Update("price", price)
	return res.RowsAffected, res.Error
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}
