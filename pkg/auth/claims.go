package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	// JTI is the session id: it keys the Redis session and the cashier's cart.
	JTI string
}

// AccessTokenClaims is what a till presents on every /api call. Subject and
// Username both carry the cashier name.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// Cashier is the name recorded on sales made with this token.
func (c AccessTokenClaims) Cashier() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}
