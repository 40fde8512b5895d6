package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/veggiepos-backend/api/middleware"
	"github.com/angelmondragon/veggiepos-backend/api/responses"
	"github.com/angelmondragon/veggiepos-backend/api/validators"
	"github.com/angelmondragon/veggiepos-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// jsonExchange decodes Req, calls fn and writes its result with 200. A nil
// fn means the backing service was not wired.
func jsonExchange[Req, Res any](logg *logger.Logger, fn func(context.Context, Req) (Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fn == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := fn(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AuthRegister creates a cashier account: 201 with outcome "created", or 200
// with outcome "exists" when the username is taken.
func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if outcome == auth.RegisterExists {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"outcome": outcome})
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	var login func(context.Context, auth.LoginRequest) (*auth.LoginResponse, error)
	if svc != nil {
		login = svc.Login
	}
	return jsonExchange(logg, login)
}

// AuthRefresh trades a refresh token for a new pair; the old pair stops
// working and the till cart moves to the new session.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	var refresh func(context.Context, auth.RefreshRequest) (*auth.TokenPair, error)
	if svc != nil {
		refresh = svc.Refresh
	}
	return jsonExchange(logg, refresh)
}

// AuthLogout revokes the caller's session; it runs behind the Auth middleware.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errAuthUnavailable)
			return
		}
		if err := svc.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
