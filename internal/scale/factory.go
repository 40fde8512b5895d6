package scale

import (
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
)

// NewSourceFromConfig picks the weight source once at startup. A physical
// source whose device is missing is still returned; every read then reports
// ErrNoSample until the device appears.
func NewSourceFromConfig(cfg config.ScaleConfig) (Source, error) {
	if cfg.IsPhysical() {
		return NewPhysicalSource(NewIIOAmplifier(cfg.DevicePath), cfg.WindowSize, cfg.ScaleRatio)
	}
	return NewSimulatedSource(SimulationOptions{
		Seed:  cfg.SimSeed,
		Start: cfg.SimTare,
	}), nil
}

// InitialReading is the state before the first sample: an empty, stable
// platform. The simulated platform starts pre-tared.
func InitialReading(cfg config.ScaleConfig) Reading {
	r := Reading{Stable: true}
	if !cfg.IsPhysical() {
		r.TareOffset = cfg.SimTare
	}
	return r
}
