package idp

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionWindow is how long an access token is trusted when its
// claims don't say otherwise.
const DefaultSessionWindow = time.Duration(4.5 * float64(time.Hour))

// TokenWindow returns the validity window encoded in an access token's
// exp/iat claims, without verifying the signature — the broker never
// trusts the token's content, it only schedules the refresh by it.
// Tokens that aren't JWTs, or lack either claim, get DefaultSessionWindow.
func TokenWindow(accessToken string) time.Duration {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return DefaultSessionWindow
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return DefaultSessionWindow
	}

	iat, err := token.Claims.GetIssuedAt()
	if err != nil || iat == nil {
		return DefaultSessionWindow
	}

	window := exp.Sub(iat.Time)
	if window <= 0 {
		return DefaultSessionWindow
	}

	return window
}
