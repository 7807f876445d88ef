// Package authcore is an embeddable credential and session token core for
// password-based services.
//
// The Engine covers four operations: Issue verifies an identifier/password
// pair against a caller-supplied IdentityStore and mints a signed
// access/refresh token pair; Validate checks an access token statelessly;
// Rotate exchanges a refresh token exactly once, detecting replay of
// rotated tokens; Logout revokes a refresh session idempotently.
//
// Passwords are hashed with argon2id in PHC string format, with transparent
// verification of legacy bcrypt hashes and optional rehash-on-issue.
// Tokens are compact JWS claim sets signed with Ed25519 or HMAC-SHA256;
// signing keys rotate without invalidating tokens issued under the
// previous key. Refresh sessions live in Redis or an in-process store.
//
// Construct an engine through the Builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithIdentityStore(users).
//		WithRedis(rdb).
//		Build()
package authcore
