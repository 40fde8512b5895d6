package scale

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSample means the source produced no new data this tick. The previous
// reading stays in place.
var ErrNoSample = errors.New("scale: no sample available")

// Source produces raw samples. Implementations are called from a single
// sampler goroutine.
type Source interface {
	Read(ctx context.Context) (Sample, error)
}

func noSample(cause error) error {
	if cause == nil {
		return ErrNoSample
	}
	return fmt.Errorf("%w: %w", ErrNoSample, cause)
}
