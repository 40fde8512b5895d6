package scale

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultSimulationTargets are the resting masses the random walk drifts
// between, platform weight included.
var DefaultSimulationTargets = []float64{0, 0.5, 1.5, 3.0}

// SimulationOptions tune the random walk.
type SimulationOptions struct {
	// Seed makes the walk reproducible; zero seeds from the clock.
	Seed int64
	// Start is the initial raw value (usually the empty platform weight).
	Start    float64
	Targets  []float64
	Retarget float64
	Pull     float64
	Noise    float64
}

func (o SimulationOptions) withDefaults() SimulationOptions {
	if len(o.Targets) == 0 {
		o.Targets = DefaultSimulationTargets
	}
	if o.Retarget <= 0 {
		o.Retarget = 0.05
	}
	if o.Pull <= 0 {
		o.Pull = 0.1
	}
	if o.Noise <= 0 {
		o.Noise = 0.02
	}
	return o
}

// SimulatedSource is a mean-reverting random walk that stands in for a load
// cell: it settles on a target, then occasionally jumps to another one.
type SimulatedSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	opts   SimulationOptions
	raw    float64
	target float64
	now    func() time.Time
}

func NewSimulatedSource(opts SimulationOptions) *SimulatedSource {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{
		rng:    rand.New(rand.NewSource(seed)),
		opts:   opts,
		raw:    opts.Start,
		target: opts.Start,
		now:    time.Now,
	}
}

func (s *SimulatedSource) Read(context.Context) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < s.opts.Retarget {
		s.target = s.opts.Targets[s.rng.Intn(len(s.opts.Targets))]
	}
	diff := (s.target - s.raw) * s.opts.Pull
	noise := (s.rng.Float64()*2 - 1) * s.opts.Noise
	s.raw += diff + noise
	return Sample{Raw: s.raw, At: s.now()}, nil
}
