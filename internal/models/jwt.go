package models

import "github.com/golang-jwt/jwt/v5"

// Claims carries the caller identity; Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
