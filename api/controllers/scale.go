package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/internal/scale"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

// ScaleReader exposes the latest stabilized reading.
type ScaleReader interface {
	Load() scale.Reading
}

// Tarer re-zeroes the scale.
type Tarer interface {
	Tare(ctx context.Context) (scale.Reading, error)
}

// PriceDirectory is the read side of the pricing service.
type PriceDirectory interface {
	GetAll(ctx context.Context) (map[string]float64, error)
	Lookup(ctx context.Context, name string) (float64, error)
}

type statusResponse struct {
	scale.Reading
	Prices map[string]float64 `json:"prices"`
}

// ScaleStatus reports the live weight together with the whole price directory.
func ScaleStatus(reader ScaleReader, prices PriceDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil || prices == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scale unavailable"))
			return
		}
		reading := reader.Load()
		directory, err := prices.GetAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statusResponse{Reading: reading, Prices: directory})
	}
}

func ScaleTare(tarer Tarer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tarer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scale unavailable"))
			return
		}
		reading, err := tarer.Tare(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reading)
	}
}
