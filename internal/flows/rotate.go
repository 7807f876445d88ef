package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// RotateFailureKind classifies refresh-rotation failures.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	RotateFailureNotReady
	RotateFailureDecode
	RotateFailureExpiredToken
	RotateFailureWrongKind
	RotateFailureRecordNotFound
	RotateFailureReplay
	RotateFailureRecordExpired
	RotateFailureStore
	RotateFailureSignAccess
	RotateFailureSignRefresh
)

// RotateResult carries the replacement pair or the failure cause. Subject and
// OldTokenID are populated whenever the presented token decoded, so replay
// audits can name the session that was hit.
type RotateResult struct {
	Failure      RotateFailureKind
	Err          error
	Subject      string
	OldTokenID   string
	AccessID     string
	RefreshID    string
	AccessToken  string
	RefreshToken string
}

// RotateDeps captures rotate-flow dependencies.
type RotateDeps struct {
	Now        func() time.Time
	AccessTTL  func() time.Duration
	RefreshTTL func() time.Duration

	VerifyRefresh func(raw string, kind token.Kind) (token.Claims, error)
	GetRecord     func(ctx context.Context, tokenID string) (session.RefreshRecord, error)
	Supersede     func(ctx context.Context, oldID string, next session.RefreshRecord) (bool, error)

	NewTokenID func() string
	SignToken  func(claims token.Claims) (string, error)
}

// RunRotate exchanges a live refresh token for a fresh pair. The old record
// and its replacement flip in one store operation; losing that race is
// reported as replay, same as finding the record already revoked.
func RunRotate(ctx context.Context, refreshToken string, deps RotateDeps) RotateResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.VerifyRefresh == nil ||
		deps.GetRecord == nil ||
		deps.Supersede == nil ||
		deps.NewTokenID == nil ||
		deps.SignToken == nil ||
		deps.AccessTTL == nil ||
		deps.RefreshTTL == nil {
		return RotateResult{Failure: RotateFailureNotReady}
	}

	claims, err := deps.VerifyRefresh(refreshToken, token.KindRefresh)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return RotateResult{Failure: RotateFailureExpiredToken, Err: err}
		case errors.Is(err, token.ErrWrongKind):
			return RotateResult{Failure: RotateFailureWrongKind, Err: err}
		default:
			return RotateResult{Failure: RotateFailureDecode, Err: err}
		}
	}

	rec, err := deps.GetRecord(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return RotateResult{Failure: RotateFailureRecordNotFound, Err: err, Subject: claims.Subject, OldTokenID: claims.ID}
		}
		return RotateResult{Failure: RotateFailureStore, Err: err, Subject: claims.Subject, OldTokenID: claims.ID}
	}
	if rec.Revoked {
		return RotateResult{Failure: RotateFailureReplay, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}

	now := deps.Now()
	if rec.Expired(now) {
		return RotateResult{Failure: RotateFailureRecordExpired, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}

	accessID := deps.NewTokenID()
	refreshID := deps.NewTokenID()
	refreshTTL := deps.RefreshTTL()

	swapped, err := deps.Supersede(ctx, rec.TokenID, session.RefreshRecord{
		TokenID:   refreshID,
		Subject:   rec.Subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(refreshTTL).Unix(),
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return RotateResult{Failure: RotateFailureRecordNotFound, Err: err, Subject: rec.Subject, OldTokenID: rec.TokenID}
		}
		return RotateResult{Failure: RotateFailureStore, Err: err, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}
	if !swapped {
		// A concurrent rotation won between our read and the swap.
		return RotateResult{Failure: RotateFailureReplay, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}

	access, err := deps.SignToken(mintClaims(token.KindAccess, rec.Subject, accessID, claims.Scopes, now, deps.AccessTTL()))
	if err != nil {
		return RotateResult{Failure: RotateFailureSignAccess, Err: err, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}

	refresh, err := deps.SignToken(mintClaims(token.KindRefresh, rec.Subject, refreshID, claims.Scopes, now, refreshTTL))
	if err != nil {
		return RotateResult{Failure: RotateFailureSignRefresh, Err: err, Subject: rec.Subject, OldTokenID: rec.TokenID}
	}

	return RotateResult{
		Subject:      rec.Subject,
		OldTokenID:   rec.TokenID,
		AccessID:     accessID,
		RefreshID:    refreshID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
