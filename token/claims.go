package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens. It is carried as an
// explicit claim ("knd") so a token can never change kind through field
// omission; every verification site states the kind it requires.
type Kind string

const (
	// KindAccess marks short-lived bearer tokens presented on API requests.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens exchanged through rotation.
	KindRefresh Kind = "refresh"
)

// Valid reports whether k is one of the two defined kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the claim set sealed inside a signed token. Once signed it is
// immutable; any change requires re-issuance under a fresh token id.
//
// The registered claims carry subject, token id (jti), issued-at and expiry.
type Claims struct {
	Kind   Kind     `json:"knd"`
	Scopes []string `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenID returns a fresh random token identifier for the jti claim.
// Identifiers are unique per issuance and key the server-side refresh state.
func NewTokenID() string {
	return uuid.NewString()
}
