// Package token implements the signed-token codec: compact JWS encoding of
// claim sets, signature verification against a hot-swappable key ring, and
// strict discrimination between access and refresh tokens.
//
// The codec always signs with the single current key. Verification accepts
// the current key plus a bounded list of recently retired keys, so tokens
// issued before a key rotation keep verifying until they expire. Readers
// take an immutable key-ring snapshot per call and never block on rotation.
package token
