package scale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
)

const (
	defaultInterval     = 100 * time.Millisecond
	defaultErrorBacklog = 16
)

// SamplerParams configure the sampling loop.
type SamplerParams struct {
	Source   Source
	State    *State
	Filter   FilterConfig
	Interval time.Duration
	Logger   *logger.Logger
	Metrics  *metrics.ScaleMetrics
	// TareOnBoot zeroes the scale against the first successful sample.
	TareOnBoot   bool
	ErrorBacklog int
}

type tareResult struct {
	reading Reading
	err     error
}

// Sampler drives a Source at a fixed cadence and is the only writer of State.
type Sampler struct {
	source   Source
	state    *State
	filter   FilterConfig
	interval time.Duration
	logg     *logger.Logger
	metrics  *metrics.ScaleMetrics

	tareOnBoot bool
	booted     bool
	lastRaw    float64
	hasRaw     bool

	errs  chan error
	tares chan chan tareResult
}

// NewSampler validates params and builds a sampler.
func NewSampler(params SamplerParams) (*Sampler, error) {
	if params.Source == nil {
		return nil, errors.New("scale source required")
	}
	if params.State == nil {
		return nil, errors.New("scale state required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	backlog := params.ErrorBacklog
	if backlog <= 0 {
		backlog = defaultErrorBacklog
	}
	return &Sampler{
		source:     params.Source,
		state:      params.State,
		filter:     params.Filter,
		interval:   interval,
		logg:       params.Logger,
		metrics:    params.Metrics,
		tareOnBoot: params.TareOnBoot,
		errs:       make(chan error, backlog),
		tares:      make(chan chan tareResult),
	}, nil
}

// Errors exposes sampling failures. The channel is buffered and lossy: when
// nobody drains it, the newest errors are dropped. It is closed when Run returns.
func (s *Sampler) Errors() <-chan error {
	return s.errs
}

// State returns the state the sampler writes to.
func (s *Sampler) State() *State {
	return s.state
}

// Run ticks until ctx is canceled.
func (s *Sampler) Run(ctx context.Context) error {
	defer close(s.errs)
	ctx = s.logg.WithField(ctx, "component", "scale.sampler")
	s.logg.Info(s.logg.WithField(ctx, "interval_ms", s.interval.Milliseconds()), "sampler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sampler stopped")
			return ctx.Err()
		case reply := <-s.tares:
			reply <- s.applyTare(ctx)
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Tare asks the sampler goroutine to zero the scale against the latest raw
// sample and waits for the resulting reading.
func (s *Sampler) Tare(ctx context.Context) (Reading, error) {
	reply := make(chan tareResult, 1)
	select {
	case s.tares <- reply:
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.reading, res.err
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
}

func (s *Sampler) tick(ctx context.Context) {
	sample, err := s.source.Read(ctx)
	if err != nil {
		s.drop(ctx, err)
		return
	}
	s.lastRaw, s.hasRaw = sample.Raw, true

	prev := s.state.Load()
	if s.tareOnBoot && !s.booted {
		prev.TareOffset = sample.Raw
		s.metrics.IncTare()
		s.logg.Info(s.logg.WithField(ctx, "tare_offset", sample.Raw), "boot tare applied")
	}
	s.booted = true

	next := Stabilize(prev, sample.Raw, s.filter)
	next.At = sample.At
	s.state.store(next)
	s.metrics.ObserveReading(next.Weight, next.Stable)
}

func (s *Sampler) applyTare(ctx context.Context) tareResult {
	if !s.hasRaw {
		sample, err := s.source.Read(ctx)
		if err != nil {
			s.drop(ctx, err)
			return tareResult{err: fmt.Errorf("tare: %w", err)}
		}
		s.lastRaw, s.hasRaw = sample.Raw, true
	}
	prev := s.state.Load()
	prev.TareOffset = s.lastRaw
	next := Stabilize(prev, s.lastRaw, s.filter)
	next.At = time.Now()
	s.state.store(next)
	s.booted = true
	s.metrics.IncTare()
	s.logg.Info(s.logg.WithField(ctx, "tare_offset", s.lastRaw), "tare applied")
	return tareResult{reading: next}
}

func (s *Sampler) drop(ctx context.Context, err error) {
	if errors.Is(err, ErrNoSample) {
		s.metrics.IncDropped("no_sample")
		s.logg.Debug(s.logg.WithField(ctx, "error", err.Error()), "no sample this tick")
	} else if ctx.Err() == nil {
		s.metrics.IncDropped("error")
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "scale source read failed")
	}
	select {
	case s.errs <- err:
	default:
	}
}
