package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/veggiepos-backend/api/responses"
	pkgAuth "github.com/angelmondragon/veggiepos-backend/pkg/auth"
	"github.com/angelmondragon/veggiepos-backend/pkg/auth/session"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
)

// Auth admits requests carrying a valid access token whose session is still
// live, and stores the cashier identity on the context.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(err error) { responses.WriteError(ctx, logg, w, err) }

			token, ok := bearerToken(r)
			if !ok {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				reject(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			// A logged-out session keeps a valid signature until expiry.
			if verifier != nil {
				live, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					reject(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					reject(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx = WithIdentity(ctx, claims.UserID.String(), claims.Cashier(), claims.ID)
			if logg != nil {
				ctx = logg.WithCashier(ctx, claims.Cashier())
				ctx = logg.WithSessionID(ctx, claims.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts "Bearer <jwt>" in any case, or a bare token.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw, raw != ""
}
