package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/veggiepos-backend/api/middleware"
	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/api/validators"
	"github.com/angelmondragon/veggiepos-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

// TillCart is the cart engine surface the HTTP layer drives.
type TillCart interface {
	Add(session string, input cart.AddInput) (cart.Snapshot, error)
	Remove(session string, itemID uuid.UUID) (cart.Snapshot, error)
	Snapshot(session string) cart.Snapshot
	Abandon(session string) (int, error)
}

type addItemRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Quantity int    `json:"qty" validate:"omitempty,gte=1"`
	// Price overrides the directory price when set.
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

func CartFetch(carts TillCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, carts.Snapshot(middleware.SessionIDFromContext(r.Context())))
	}
}

// CartAddItem weighs the item on the live scale and prices it from the
// directory unless the operator supplied a price.
func CartAddItem(carts TillCart, reader ScaleReader, prices PriceDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || reader == nil || prices == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Quantity == 0 {
			body.Quantity = 1
		}

		var unitPrice float64
		if body.Price != nil {
			unitPrice = *body.Price
		} else {
			looked, err := prices.Lookup(r.Context(), body.Name)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			unitPrice = looked
		}

		reading := reader.Load()
		snapshot, err := carts.Add(middleware.SessionIDFromContext(r.Context()), cart.AddInput{
			Weight:    reading.Weight,
			Stable:    reading.Stable,
			Name:      body.Name,
			UnitPrice: unitPrice,
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snapshot)
	}
}

func CartRemoveItem(carts TillCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id"))
			return
		}

		snapshot, err := carts.Remove(middleware.SessionIDFromContext(r.Context()), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func CartAbandon(carts TillCart, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		discarded, err := carts.Abandon(middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"discarded": discarded})
	}
}
