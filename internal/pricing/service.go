package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/money"
	"gorm.io/gorm"
)

// Service exposes the price directory.
type Service interface {
	// GetAll returns the whole directory from one read.
	GetAll(ctx context.Context) (map[string]float64, error)
	// Lookup returns 0 for names that are not in the directory.
	Lookup(ctx context.Context, name string) (float64, error)
	SetPrice(ctx context.Context, name string, price float64) (Outcome, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	// SeedDefaults fills an empty directory and reports how many rows were added.
	SeedDefaults(ctx context.Context) (int, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs a pricing service instance.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) GetAll(ctx context.Context) (map[string]float64, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list prices")
	}
	out := make(map[string]float64, len(products))
	for _, p := range products {
		out[p.Name] = p.Price
	}
	return out, nil
}

func (s *service) Lookup(ctx context.Context, name string) (float64, error) {
	product, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup price")
	}
	if product == nil {
		return 0, nil
	}
	return product.Price, nil
}

func (s *service) SetPrice(ctx context.Context, name string, price float64) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if price < 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater").
			WithDetails(map[string]any{"price": price})
	}
	rows, err := s.repo.UpdatePrice(ctx, name, money.Round2(price))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update price")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"product": name, "price": price})
	if rows == 0 {
		s.logg.Info(ctx, "price update ignored: product not found")
		return OutcomeNotFound, nil
	}
	s.logg.Info(ctx, "price updated")
	return OutcomeApplied, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	}
	product := &models.Product{Name: name, Price: money.Round2(input.Price)}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already exists").
				WithDetails(map[string]any{"name": name})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := toDTO(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toDTO(p))
	}
	return out, nil
}

func (s *service) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, entry := range DefaultPrices {
			if err := txRepo.Create(ctx, &models.Product{Name: entry.Name, Price: entry.Price}); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed prices")
	}
	if inserted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "products", inserted), "price directory seeded")
	}
	return inserted, nil
}
