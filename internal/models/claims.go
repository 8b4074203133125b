package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims identifies the caller. The role is resolved server-side from
// user_roles, never from the token.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
}
