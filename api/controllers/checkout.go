package controllers

import (
	"net/http"

	"github.com/angelmondragon/veggiepos-backend/api/middleware"
	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/api/validators"
	"github.com/angelmondragon/veggiepos-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

// CheckoutSubmit commits a cart the till kept on its side. The authenticated
// cashier is recorded on the sale; the body value is only used when the
// token carries none.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body checkout.SubmitInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cashier := middleware.CashierFromContext(r.Context()); cashier != "" {
			body.Cashier = cashier
		}

		receipt, err := svc.Submit(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

// CheckoutCart commits the caller's server-side cart.
func CheckoutCart(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		ctx := r.Context()
		receipt, err := svc.Checkout(ctx, middleware.SessionIDFromContext(ctx), middleware.CashierFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
