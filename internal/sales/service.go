package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/money"
	"github.com/angelmondragon/veggiepos-backend/pkg/pagination"
	"github.com/google/uuid"
)

const recentLimit = 5

// Service exposes read-only sales reporting.
type Service interface {
	// Daily aggregates the calendar day containing day, in day's location.
	Daily(ctx context.Context, day time.Time) (*DailySummary, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[SaleDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Daily(ctx context.Context, day time.Time) (*DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	from, to := start.UTC(), start.AddDate(0, 0, 1).UTC()

	total, count, err := s.repo.Aggregate(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}
	recent, err := s.repo.Recent(ctx, from, to, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent sales")
	}
	summary := &DailySummary{
		Date:             start.Format("2006-01-02"),
		TotalSales:       money.Round2(total),
		TransactionCount: count,
		Recent:           make([]SaleDTO, 0, len(recent)),
	}
	for _, sale := range recent {
		summary.Recent = append(summary.Recent, toSaleDTO(sale))
	}
	return summary, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[SaleDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return pagination.BuildPage(rows, params.Limit, saleCursor, toSaleDTO), nil
}

func saleCursor(sale models.Sale) pagination.Cursor {
	return pagination.Cursor{At: sale.Timestamp, ID: sale.ID}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SaleDTO, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	if sale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	dto := toSaleDTO(*sale)
	return &dto, nil
}
