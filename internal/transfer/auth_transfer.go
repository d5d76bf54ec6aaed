package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims is the session cookie payload minted by the auth service.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
