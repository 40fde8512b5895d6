package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks committed sales and their failure modes.
type CheckoutMetrics struct {
	outcomes   *prometheus.CounterVec
	mismatches prometheus.Counter
	commit     prometheus.Histogram
	revenue    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	mismatches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "total_mismatches_total",
		Help:      "Submitted totals that disagreed with the recomputed line item sum.",
	})
	commit := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "commit_duration_seconds",
		Help:      "Duration of the sale + line items transaction.",
		Buckets:   prometheus.DefBuckets,
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "revenue_total",
		Help:      "Sum of committed sale totals.",
	})
	reg.MustRegister(outcomes, mismatches, commit, revenue)
	return &CheckoutMetrics{outcomes: outcomes, mismatches: mismatches, commit: commit, revenue: revenue}
}

// ObserveCommitted records a durable sale.
func (m *CheckoutMetrics) ObserveCommitted(total float64, duration time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues("committed").Inc()
	m.commit.Observe(duration.Seconds())
	m.revenue.Add(total)
}

// IncOutcome records a non-committed outcome such as "rejected" or "failed".
func (m *CheckoutMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncTotalMismatch() {
	if m == nil || m.mismatches == nil {
		return
	}
	m.mismatches.Inc()
}
