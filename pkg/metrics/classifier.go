package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClassifierMetrics tracks oracle outcomes and latency.
type ClassifierMetrics struct {
	labels    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewClassifierMetrics registers the classification metrics.
func NewClassifierMetrics(reg prometheus.Registerer) *ClassifierMetrics {
	if reg == nil {
		return &ClassifierMetrics{}
	}
	labels := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "labels_total",
		Help:      "Labels returned to callers.",
	}, []string{"label"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "fallbacks_total",
		Help:      "Classifications answered from the fallback policy, by reason.",
	}, []string{"reason"})
	reg.MustRegister(labels, fallbacks)
	return &ClassifierMetrics{labels: labels, fallbacks: fallbacks}
}

func (m *ClassifierMetrics) IncLabel(label string) {
	if m == nil || m.labels == nil {
		return
	}
	m.labels.WithLabelValues(normalizeLabel(label)).Inc()
}

func (m *ClassifierMetrics) IncFallback(reason string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeLabel(reason)).Inc()
}
