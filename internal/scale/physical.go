package scale

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Amplifier is a load-cell amplifier returning one raw conversion per call.
type Amplifier interface {
	ReadRaw(ctx context.Context) (float64, error)
}

// PhysicalSource averages a window of amplifier conversions and converts the
// mean to kilograms using the calibration ratio.
type PhysicalSource struct {
	amp    Amplifier
	window int
	ratio  float64
	now    func() time.Time
}

// NewPhysicalSource builds a source around amp.
func NewPhysicalSource(amp Amplifier, window int, ratio float64) (*PhysicalSource, error) {
	if amp == nil {
		return nil, errors.New("amplifier is required")
	}
	if window <= 0 {
		window = 1
	}
	if ratio == 0 {
		return nil, errors.New("calibration ratio must be non-zero")
	}
	return &PhysicalSource{amp: amp, window: window, ratio: ratio, now: time.Now}, nil
}

// Read returns the windowed mean. Any conversion failure drops the whole
// window and reports ErrNoSample.
func (p *PhysicalSource) Read(ctx context.Context) (Sample, error) {
	var sum float64
	for i := 0; i < p.window; i++ {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}
		v, err := p.amp.ReadRaw(ctx)
		if err != nil {
			return Sample{}, noSample(err)
		}
		sum += v
	}
	mean := sum / float64(p.window)
	return Sample{Raw: mean / p.ratio, At: p.now()}, nil
}

// IIOAmplifier reads conversions from the Linux industrial I/O sysfs
// attribute exposed by the hx711 kernel driver.
type IIOAmplifier struct {
	path string
}

func NewIIOAmplifier(path string) *IIOAmplifier {
	return &IIOAmplifier{path: strings.TrimSpace(path)}
}

// Present reports whether the device attribute exists.
func (a *IIOAmplifier) Present() bool {
	_, err := os.Stat(a.path)
	return err == nil
}

func (a *IIOAmplifier) ReadRaw(context.Context) (float64, error) {
	if a.path == "" {
		return 0, errors.New("iio: device path not configured")
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("iio: read %s: %w", a.path, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("iio: parse %q: %w", strings.TrimSpace(string(data)), err)
	}
	return v, nil
}
