package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

type dailyReporter interface {
	Daily(ctx context.Context, day time.Time) (*sales.DailySummary, error)
}

// NewDailySalesJob logs the running totals for the current day.
func NewDailySalesJob(logg *logger.Logger, reporter dailyReporter) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("sales reporter required")
	}
	return &dailySalesJob{logg: logg, reporter: reporter, now: time.Now}, nil
}

type dailySalesJob struct {
	logg     *logger.Logger
	reporter dailyReporter
	now      func() time.Time
}

func (j *dailySalesJob) Name() string { return "daily-sales-snapshot" }

func (j *dailySalesJob) Run(ctx context.Context) error {
	summary, err := j.reporter.Daily(ctx, j.now())
	if err != nil {
		return fmt.Errorf("daily sales: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"date":              summary.Date,
		"total_sales":       summary.TotalSales,
		"transaction_count": summary.TransactionCount,
	})
	j.logg.Info(logCtx, "daily sales snapshot")
	return nil
}
