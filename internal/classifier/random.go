package classifier

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
)

const (
	knownWeight    = 1.0
	fallbackWeight = 0.1
)

type weightedLabel struct {
	label  enums.Produce
	weight float64
}

// WeightedRandom ignores the frame and draws a label: every known class is
// equally likely and Unknown is ten times less likely than any one of them.
type WeightedRandom struct {
	mu     sync.Mutex
	rng    *rand.Rand
	labels []weightedLabel
	total  float64
}

// NewWeightedRandom builds the stub classifier; seed 0 seeds from the clock.
func NewWeightedRandom(seed int64) *WeightedRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &WeightedRandom{rng: rand.New(rand.NewSource(seed))}
	for _, p := range enums.KnownProduce() {
		w.labels = append(w.labels, weightedLabel{label: p, weight: knownWeight})
	}
	w.labels = append(w.labels, weightedLabel{label: enums.ProduceUnknown, weight: fallbackWeight})
	for _, l := range w.labels {
		w.total += l.weight
	}
	return w
}

func (w *WeightedRandom) Classify(ctx context.Context, _ Frame) (enums.Produce, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.mu.Lock()
	draw := w.rng.Float64() * w.total
	w.mu.Unlock()

	for _, l := range w.labels {
		if draw < l.weight {
			return l.label, nil
		}
		draw -= l.weight
	}
	return enums.ProduceUnknown, nil
}
