package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "veggiepos"

// ScaleMetrics tracks the weight sampler loop.
type ScaleMetrics struct {
	samples *prometheus.CounterVec
	weight  prometheus.Gauge
	stable  prometheus.Gauge
	tares   prometheus.Counter
}

// NewScaleMetrics registers the sampler metrics on the provided registerer.
func NewScaleMetrics(reg prometheus.Registerer) *ScaleMetrics {
	if reg == nil {
		return &ScaleMetrics{}
	}
	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scale",
		Name:      "samples_total",
		Help:      "Sampler ticks by result (ok, no_sample, error).",
	}, []string{"result"})
	weight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scale",
		Name:      "weight_kg",
		Help:      "Latest stabilized net weight in kilograms.",
	})
	stable := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scale",
		Name:      "stable",
		Help:      "1 when the latest reading is stable.",
	})
	tares := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scale",
		Name:      "tares_total",
		Help:      "Tare operations applied by the sampler.",
	})
	reg.MustRegister(samples, weight, stable, tares)
	return &ScaleMetrics{samples: samples, weight: weight, stable: stable, tares: tares}
}

// ObserveReading records a successful tick and the resulting state.
func (m *ScaleMetrics) ObserveReading(weight float64, stable bool) {
	if m == nil || m.samples == nil {
		return
	}
	m.samples.WithLabelValues("ok").Inc()
	m.weight.Set(weight)
	if stable {
		m.stable.Set(1)
	} else {
		m.stable.Set(0)
	}
}

// IncDropped records a tick that produced no new data.
func (m *ScaleMetrics) IncDropped(result string) {
	if m == nil || m.samples == nil {
		return
	}
	m.samples.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncTare records an applied tare.
func (m *ScaleMetrics) IncTare() {
	if m == nil || m.tares == nil {
		return
	}
	m.tares.Inc()
}
