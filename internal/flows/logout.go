package flows

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// LogoutFailureKind classifies logout failures.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureNotReady
	LogoutFailureDecode
	LogoutFailureExpired
	LogoutFailureWrongKind
	LogoutFailureNotFound
	LogoutFailureStore
)

// LogoutResult reports the outcome of a revocation. AlreadyRevoked marks the
// idempotent path where the record was revoked before this call.
type LogoutResult struct {
	Failure        LogoutFailureKind
	Err            error
	Subject        string
	TokenID        string
	AlreadyRevoked bool
}

// LogoutDeps captures logout-flow dependencies.
type LogoutDeps struct {
	VerifyRefresh func(raw string, kind token.Kind) (token.Claims, error)
	Revoke        func(ctx context.Context, tokenID string) (bool, error)
}

// RunLogout revokes the refresh record behind the presented token. Revoking
// an already-revoked session succeeds; the result flags it so hosts can
// audit repeated logouts without failing them.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if deps.VerifyRefresh == nil || deps.Revoke == nil {
		return LogoutResult{Failure: LogoutFailureNotReady}
	}

	claims, err := deps.VerifyRefresh(refreshToken, token.KindRefresh)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return LogoutResult{Failure: LogoutFailureExpired, Err: err}
		case errors.Is(err, token.ErrWrongKind):
			return LogoutResult{Failure: LogoutFailureWrongKind, Err: err}
		default:
			return LogoutResult{Failure: LogoutFailureDecode, Err: err}
		}
	}

	revoked, err := deps.Revoke(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return LogoutResult{Failure: LogoutFailureNotFound, Err: err, Subject: claims.Subject, TokenID: claims.ID}
		}
		return LogoutResult{Failure: LogoutFailureStore, Err: err, Subject: claims.Subject, TokenID: claims.ID}
	}

	return LogoutResult{
		Subject:        claims.Subject,
		TokenID:        claims.ID,
		AlreadyRevoked: !revoked,
	}
}
