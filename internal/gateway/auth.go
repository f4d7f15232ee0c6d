package gateway

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
)

// checkToken rejects a bearer token whose exp claim has already passed. Opaque tokens that
// are not JWTs are passed through untouched; verification stays with the backend.
func checkToken(token string, now time.Time) error {
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !exp.After(now) {
		return apperrors.Validation("api token expired at %s", exp.UTC().Format(time.RFC3339))
	}
	return nil
}
