package scale

import (
	"math"

	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/money"
)

// FilterConfig holds the thresholds used by Stabilize.
type FilterConfig struct {
	// ZeroThreshold snaps anything lighter than this to a stable zero.
	ZeroThreshold float64
	// StabilityThreshold is the largest tick-to-tick change still considered settled.
	StabilityThreshold float64
}

// FilterConfigFrom resolves the filter thresholds for the configured mode.
func FilterConfigFrom(cfg config.ScaleConfig) FilterConfig {
	return FilterConfig{
		ZeroThreshold:      cfg.ZeroThreshold,
		StabilityThreshold: cfg.Threshold(),
	}
}

// Stabilize folds a raw sample into the previous reading. The tare offset is
// carried over unchanged. Readings under the zero threshold, before or after
// tare, are reported as a stable zero.
func Stabilize(prev Reading, raw float64, cfg FilterConfig) Reading {
	next := Reading{TareOffset: prev.TareOffset}
	net := raw - prev.TareOffset
	if raw < cfg.ZeroThreshold || net < cfg.ZeroThreshold {
		next.Stable = true
		return next
	}
	next.Stable = math.Abs(net-prev.Weight) < cfg.StabilityThreshold
	next.Weight = money.Round2(math.Max(net, 0))
	return next
}
