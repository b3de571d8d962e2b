package models

import "github.com/golang-jwt/jwt/v4"

// JwtCustomClaims are the claims of an HS256 session token. The subject is
// the actor id.
type JwtCustomClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// DisplayName returns the name to show for the token's actor
func (c *JwtCustomClaims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
