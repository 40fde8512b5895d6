package pricing

import (
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO is the API shape of a price directory entry.
type ProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDTO(p models.Product) ProductDTO {
	return ProductDTO{ID: p.ID, Name: p.Name, Price: p.Price, UpdatedAt: p.UpdatedAt}
}

// Outcome distinguishes an applied price update from one that matched nothing.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNotFound Outcome = "not_found"
)

// CreateProductInput holds the validated payload to create a directory entry.
type CreateProductInput struct {
	Name  string
	Price float64
}

// DefaultPrices seeds an empty directory. Unknown carries price 0 so the
// fallback label prices nothing.
var DefaultPrices = []CreateProductInput{
	{Name: "Carrot", Price: 25},
	{Name: "Tomato", Price: 40},
	{Name: "Pumpkin", Price: 30},
	{Name: "Corn", Price: 20},
	{Name: "Red_Chili", Price: 80},
	{Name: "Bell_Pepper", Price: 90},
	{Name: "Cucumber", Price: 25},
	{Name: "Unknown", Price: 0},
}
