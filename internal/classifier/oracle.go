package classifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
)

const defaultTimeout = 800 * time.Millisecond

// Result is what the oracle hands to callers.
type Result struct {
	Label    enums.Produce `json:"label"`
	Fallback bool          `json:"fallback"`
}

// Oracle bounds a Classifier with a timeout. When the classifier fails or is
// too slow, the previous label is returned, or Unknown if there is none.
type Oracle struct {
	inner   Classifier
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.ClassifierMetrics

	mu   sync.Mutex
	last enums.Produce
}

func NewOracle(inner Classifier, timeout time.Duration, logg *logger.Logger, m *metrics.ClassifierMetrics) (*Oracle, error) {
	if inner == nil {
		return nil, errors.New("classifier required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Oracle{inner: inner, timeout: timeout, logg: logg, metrics: m}, nil
}

type outcome struct {
	label enums.Produce
	err   error
}

// Classify never returns an error for classifier faults; only a canceled
// caller context is reported. The deadline holds even when the inner
// classifier ignores its context; a late answer is discarded.
func (o *Oracle) Classify(ctx context.Context, frame Frame) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		label, err := o.inner.Classify(callCtx, frame)
		done <- outcome{label: label, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = outcome{err: callCtx.Err()}
	}

	if out.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return o.fallback(ctx, out.err), nil
	}

	label := out.label
	if !label.IsValid() {
		label = enums.ProduceUnknown
	}
	o.mu.Lock()
	o.last = label
	o.mu.Unlock()
	o.metrics.IncLabel(label.String())
	return Result{Label: label}, nil
}

func (o *Oracle) fallback(ctx context.Context, err error) Result {
	reason := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	o.metrics.IncFallback(reason)
	o.logg.Warn(o.logg.WithFields(ctx, map[string]any{"reason": reason, "error": err.Error()}), "classifier fallback")
	res := Result{Label: o.previous(), Fallback: true}
	o.metrics.IncLabel(res.Label.String())
	return res
}

func (o *Oracle) previous() enums.Produce {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == "" {
		return enums.ProduceUnknown
	}
	return o.last
}
