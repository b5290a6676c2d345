package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims reads the user id and expiry from a backend token. The
// signature is not checked: the backend verifies its own tokens, the console
// only uses the claims to fill gaps and to expire idle sessions early.
func tokenClaims(token string) (userID string, expiresAt time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	for _, key := range []string{"userId", "id", "_id", "sub"} {
		if s, ok := claims[key].(string); ok && s != "" {
			return s, expiresAt
		}
	}
	return "", expiresAt
}
