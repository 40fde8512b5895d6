package cron

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultCartIdleTTL = 12 * time.Hour

// CartSweepJobParams configure the till cart sweep.
type CartSweepJobParams struct {
	Logger   *logger.Logger
	Carts    sweepableCarts
	Sessions sessionChecker
	IdleTTL  time.Duration
}

type sweepableCarts interface {
	SweepIdle(idle time.Duration) []string
	Sessions() []string
	Abandon(session string) (int, error)
}

type sessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewCartSweepJob drops carts that sat idle past the TTL and carts whose
// session has been revoked or expired. Sessions is optional.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart engine required")
	}
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultCartIdleTTL
	}
	return &cartSweepJob{
		logg:     params.Logger,
		carts:    params.Carts,
		sessions: params.Sessions,
		ttl:      ttl,
	}, nil
}

type cartSweepJob struct {
	logg     *logger.Logger
	carts    sweepableCarts
	sessions sessionChecker
	ttl      time.Duration
}

func (j *cartSweepJob) Name() string { return "cart-idle-sweep" }

func (j *cartSweepJob) Run(ctx context.Context) error {
	idle := j.carts.SweepIdle(j.ttl)

	var (
		orphaned int
		errs     error
	)
	if j.sessions != nil {
		for _, session := range j.carts.Sessions() {
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			alive, err := j.sessions.HasSession(ctx, session)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("check session %s: %w", session, err))
				continue
			}
			if alive {
				continue
			}
			if _, err := j.carts.Abandon(session); err != nil {
				// Mid-checkout carts are settled by the checkout itself.
				if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
					continue
				}
				errs = multierr.Append(errs, err)
				continue
			}
			orphaned++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"idle_ttl":      j.ttl.String(),
		"idle_swept":    len(idle),
		"orphan_swept":  orphaned,
		"failed_checks": len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "cart sweep complete")
	return errs
}
