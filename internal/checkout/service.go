package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/veggiepos-backend/internal/cart"
	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
	"github.com/angelmondragon/veggiepos-backend/pkg/money"
	"gorm.io/gorm"
)

const (
	defaultCommitTimeout = 5 * time.Second
	anonymousCashier     = "Admin"
)

// Service turns carts into durable sales.
type Service interface {
	// Checkout commits the server-side cart of session.
	Checkout(ctx context.Context, session, cashier string) (*Receipt, error)
	// Submit commits a client-held cart after recomputing every amount.
	Submit(ctx context.Context, input SubmitInput) (*Receipt, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cartEngine is the part of cart.Engine checkout drives.
type cartEngine interface {
	BeginCheckout(session string) (cart.Snapshot, error)
	CompleteCheckout(session string)
	FailCheckout(session string)
}

type ServiceParams struct {
	Tx            txRunner
	Sales         *sales.Repository
	Carts         cartEngine
	CommitTimeout time.Duration
	Logger        *logger.Logger
	Metrics       *metrics.CheckoutMetrics
}

type service struct {
	tx            txRunner
	sales         *sales.Repository
	carts         cartEngine
	commitTimeout time.Duration
	logg          *logger.Logger
	metrics       *metrics.CheckoutMetrics
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.CommitTimeout
	if timeout <= 0 {
		timeout = defaultCommitTimeout
	}
	return &service{
		tx:            params.Tx,
		sales:         params.Sales,
		carts:         params.Carts,
		commitTimeout: timeout,
		logg:          params.Logger,
		metrics:       params.Metrics,
		now:           time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, session, cashier string) (*Receipt, error) {
	snapshot, err := s.carts.BeginCheckout(session)
	if err != nil {
		s.metrics.IncOutcome("rejected")
		return nil, err
	}

	receipt, err := s.commit(ctx, cashier, snapshot.Items)
	if err != nil {
		s.carts.FailCheckout(session)
		return nil, err
	}
	s.carts.CompleteCheckout(session)
	return receipt, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*Receipt, error) {
	if len(input.Items) == 0 {
		s.metrics.IncOutcome("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items := make([]cart.LineItem, 0, len(input.Items))
	violations := map[string]any{}
	for i, in := range input.Items {
		item, err := cart.NewLineItem(in.Name, in.Weight, in.Price, in.Quantity)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				violations[fmt.Sprintf("items[%d]", i)] = typed.Details()
			}
			continue
		}
		items = append(items, item)
	}
	if len(violations) > 0 {
		s.metrics.IncOutcome("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid line items").WithDetails(violations)
	}

	receipt, err := s.commit(ctx, input.Cashier, items)
	if err != nil {
		return nil, err
	}
	if !money.Equal(receipt.Total, input.Total) {
		submitted := input.Total
		receipt.TotalMismatch = true
		receipt.SubmittedTotal = &submitted
		s.metrics.IncTotalMismatch()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"sale_id":         receipt.SaleID.String(),
			"submitted_total": input.Total,
			"computed_total":  receipt.Total,
		})
		s.logg.Warn(logCtx, "checkout total mismatch; stored recomputed total")
	}
	return receipt, nil
}

// commit writes the sale and its items in one transaction under the commit
// timeout.
func (s *service) commit(ctx context.Context, cashier string, items []cart.LineItem) (*Receipt, error) {
	cashier = strings.TrimSpace(cashier)
	if cashier == "" {
		cashier = anonymousCashier
	}
	sale := &models.Sale{
		Timestamp:   s.now().UTC(),
		TotalAmount: cart.Total(items),
		CashierName: cashier,
		Items:       make([]models.SaleLineItem, 0, len(items)),
	}
	for _, item := range items {
		sale.Items = append(sale.Items, models.SaleLineItem{
			ProductName:  item.Name,
			Weight:       item.Weight,
			PricePerUnit: item.UnitPrice,
			Quantity:     item.Quantity,
			TotalPrice:   item.Subtotal,
		})
	}

	commitCtx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	started := s.now()
	err := s.tx.WithTx(commitCtx, func(tx *gorm.DB) error {
		return s.sales.WithTx(tx).CreateWithItems(commitCtx, sale)
	})
	if err != nil {
		return nil, s.commitFailed(ctx, commitCtx, err)
	}
	s.metrics.ObserveCommitted(sale.TotalAmount, s.now().Sub(started))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id": sale.ID.String(),
		"total":   sale.TotalAmount,
		"items":   len(sale.Items),
	})
	s.logg.Info(logCtx, "sale committed")

	return &Receipt{
		SaleID:    sale.ID,
		Total:     sale.TotalAmount,
		ItemCount: len(sale.Items),
		Timestamp: sale.Timestamp,
	}, nil
}

func (s *service) commitFailed(ctx, commitCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(commitCtx.Err(), context.DeadlineExceeded) {
		s.metrics.IncOutcome("timeout")
		s.logg.Error(ctx, "checkout commit timed out", err)
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "checkout commit timed out").
			WithDetails(map[string]any{"retryable": true})
	}
	s.metrics.IncOutcome("failed")
	s.logg.Error(ctx, "checkout commit failed", err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale").
		WithDetails(map[string]any{"retryable": true})
}
