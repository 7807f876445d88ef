package token

import "errors"

var (
	// ErrMalformed is returned when a token is not structurally a compact JWS
	// or its claims cannot be decoded.
	ErrMalformed = errors.New("malformed token")
	// ErrSignature is returned when the signature does not verify under any
	// key in the current ring snapshot.
	ErrSignature = errors.New("token signature invalid")
	// ErrExpired is returned when the token verified but its expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrWrongKind is returned when a structurally valid token carries a kind
	// different from the one the call site requires.
	ErrWrongKind = errors.New("wrong token kind")
	// ErrUnknownKey is returned when the token names a key id that is neither
	// current nor retired.
	ErrUnknownKey = errors.New("unknown signing key")
)
