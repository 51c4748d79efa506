package transport

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew is subtracted from a token's expiry when deciding whether to
// refresh proactively, so a token is never used in its final moments.
const expirySkew = 30 * time.Second

// tokenExpiry returns the exp claim of a JWT access token without
// verifying its signature. The gateway never trusts token contents for
// authorization; the expiry peek only schedules refreshes. Opaque
// (non-JWT) tokens return the zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// tokenExpired reports whether the token carries a readable expiry that
// has passed (within skew). Opaque tokens are never considered expired
// here; the reactive 401 path handles them.
func tokenExpired(token string, now time.Time) bool {
	exp := tokenExpiry(token)
	if exp.IsZero() {
		return false
	}
	return !now.Before(exp.Add(-expirySkew))
}
