package middleware

import "context"

// identity is what Auth learns from a verified access token.
type identity struct {
	userID    string
	cashier   string
	sessionID string
}

type identityKey struct{}

// WithIdentity stores the authenticated cashier on ctx.
func WithIdentity(ctx context.Context, userID, cashier, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, cashier: cashier, sessionID: sessionID})
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

func UserIDFromContext(ctx context.Context) string { return identityFrom(ctx).userID }

// CashierFromContext returns the authenticated cashier's username.
func CashierFromContext(ctx context.Context) string { return identityFrom(ctx).cashier }

// SessionIDFromContext returns the access id (token jti) that keys the till cart.
func SessionIDFromContext(ctx context.Context) string { return identityFrom(ctx).sessionID }
