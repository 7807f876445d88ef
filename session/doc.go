// Package session tracks server-side refresh-token state. Each issued
// refresh token is mirrored by one RefreshRecord keyed by token id; rotation
// revokes the old record and creates the successor in a single atomic store
// operation, which is what makes refresh-token replay detectable.
//
// Two Store implementations ship with the package: RedisStore for shared
// deployments (Lua scripts give the revoke/supersede atomicity, key TTLs
// give the expiry sweep) and MemoryStore for embedding and tests.
package session
