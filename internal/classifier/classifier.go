package classifier

import (
	"context"

	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
)

// Frame is one camera image submitted for classification.
type Frame struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Classifier labels a frame with one of the known produce names or
// enums.ProduceUnknown.
type Classifier interface {
	Classify(ctx context.Context, frame Frame) (enums.Produce, error)
}
