package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// ScopeClaims is carried by the handoff cookie. Scope names the browser-wide
// bucket of handoff slots shared by every tab of the same browser.
type ScopeClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}
