package scale

import (
	"sync/atomic"
	"time"
)

// Sample is one raw mass measurement in kilograms, before tare.
type Sample struct {
	Raw float64
	At  time.Time
}

// Reading is the stabilized scale state exposed to callers.
type Reading struct {
	Weight     float64   `json:"weight"`
	Stable     bool      `json:"is_stable"`
	TareOffset float64   `json:"tare_offset"`
	At         time.Time `json:"at"`
}

// State holds the latest Reading. Only the sampler in this package writes to
// it; any number of goroutines may call Load concurrently.
type State struct {
	current atomic.Pointer[Reading]
}

// NewState returns a State seeded with the provided reading.
func NewState(initial Reading) *State {
	s := &State{}
	s.store(initial)
	return s
}

// Load returns a consistent snapshot of the latest reading.
func (s *State) Load() Reading {
	if r := s.current.Load(); r != nil {
		return *r
	}
	return Reading{Stable: true}
}

func (s *State) store(r Reading) {
	next := r
	s.current.Store(&next)
}
