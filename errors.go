package authcore

import "errors"

var (
	// ErrAuthenticationFailed is returned by Issue for both unknown
	// identifiers and wrong passwords. The two cases are indistinguishable
	// to callers; audit events keep the distinction.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidCredentialFormat reports a stored credential hash the
	// configured policy cannot decode.
	ErrInvalidCredentialFormat = errors.New("invalid credential format")
	// ErrTokenExpired reports a token past its expiry, beyond leeway.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenKind reports an access token presented where a refresh
	// token was required, or the reverse.
	ErrWrongTokenKind = errors.New("wrong token kind")
	// ErrUnauthorized is the single error Validate returns for any
	// unverifiable access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownSession reports a refresh token whose session record does
	// not exist.
	ErrUnknownSession = errors.New("unknown session")
	// ErrReplayedToken reports reuse of an already-rotated refresh token.
	ErrReplayedToken = errors.New("refresh token replay detected")
	// ErrSessionExpired reports a refresh token or session record past its
	// lifetime.
	ErrSessionExpired = errors.New("session expired")
	// ErrStoreUnavailable reports a backing store that could not be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrIdentityNotFound is the sentinel IdentityStore implementations
	// return for unknown identifiers. The engine never surfaces it.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrEngineNotReady reports a method call on an engine that was not
	// produced by a successful Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
