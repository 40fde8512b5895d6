package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/internal/classifier"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

const (
	frameField     = "file"
	defaultFrameMB = 8
)

// Labeler is the bounded classification entry point.
type Labeler interface {
	Classify(ctx context.Context, frame classifier.Frame) (classifier.Result, error)
}

type predictResponse struct {
	Result   string `json:"result"`
	Fallback bool   `json:"fallback"`
}

// Predict classifies one uploaded camera frame. Classifier faults never reach
// the client; the oracle answers with its fallback label instead.
func Predict(oracle Labeler, maxMB int, logg *logger.Logger) http.HandlerFunc {
	if maxMB <= 0 {
		maxMB = defaultFrameMB
	}
	maxBytes := int64(maxMB) << 20

	return func(w http.ResponseWriter, r *http.Request) {
		if oracle == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "classifier unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		file, header, err := r.FormFile(frameField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "frame too large").
					WithDetails(map[string]any{"max_mb": maxMB}))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read frame"))
			return
		}
		if len(data) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "frame is empty"))
			return
		}

		result, err := oracle.Classify(r.Context(), classifier.Frame{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "classification canceled"))
			return
		}
		responses.WriteSuccess(w, predictResponse{Result: result.Label.String(), Fallback: result.Fallback})
	}
}
