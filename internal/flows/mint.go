package flows

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authcore-io/authcore/token"
)

// mintClaims assembles the claim set for a freshly issued token. Issuer and
// audience are filled in by the codec at signing time.
func mintClaims(kind token.Kind, subject, tokenID string, scopes []string, now time.Time, ttl time.Duration) token.Claims {
	return token.Claims{
		Kind:   kind,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
