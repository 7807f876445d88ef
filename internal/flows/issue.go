package flows

import (
	"context"
	"errors"
	"time"

	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// CredentialRecord is the flow-local view of an identity-store lookup.
type CredentialRecord struct {
	Subject      string
	PasswordHash string
	CreatedAt    int64
}

// IssueFailureKind classifies issue-flow failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureNotReady
	IssueFailureUnknownIdentifier
	IssueFailureLookupUnavailable
	IssueFailureHashFormat
	IssueFailureMismatch
	IssueFailureRecordWrite
	IssueFailureSignAccess
	IssueFailureSignRefresh
)

// IssueResult carries either the issued token pair or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	Subject      string
	AccessID     string
	RefreshID    string
	AccessToken  string
	RefreshToken string
}

// IssueDeps captures issue-flow dependencies.
type IssueDeps struct {
	Now           func() time.Time
	AccessTTL     func() time.Duration
	RefreshTTL    func() time.Duration
	DefaultScopes []string

	Lookup           func(ctx context.Context, identifier string) (CredentialRecord, error)
	IdentityNotFound error

	VerifyPassword func(plaintext, encodedHash string) (bool, error)

	// Optional rehash-on-issue wiring; all three or none.
	NeedsUpgrade     func(encodedHash string) (bool, error)
	Rehash           func(plaintext string) (string, error)
	UpdateCredential func(ctx context.Context, subject, newHash string) error

	NewTokenID   func() string
	SignToken    func(claims token.Claims) (string, error)
	CreateRecord func(ctx context.Context, rec session.RefreshRecord) error
	Warn         func(format string, args ...any)
}

// RunIssue verifies the caller's credentials and mints an access/refresh
// pair, persisting the refresh record before either token is signed. An
// unknown identifier and a wrong password produce distinct failure kinds for
// internal audit but must map to one identical caller-facing error.
func RunIssue(ctx context.Context, identifier, plaintext string, deps IssueDeps) IssueResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.Lookup == nil ||
		deps.VerifyPassword == nil ||
		deps.NewTokenID == nil ||
		deps.SignToken == nil ||
		deps.CreateRecord == nil ||
		deps.AccessTTL == nil ||
		deps.RefreshTTL == nil {
		return IssueResult{Failure: IssueFailureNotReady}
	}

	if plaintext == "" {
		return IssueResult{Failure: IssueFailureMismatch}
	}

	rec, err := deps.Lookup(ctx, identifier)
	if err != nil {
		if deps.IdentityNotFound != nil && errors.Is(err, deps.IdentityNotFound) {
			return IssueResult{Failure: IssueFailureUnknownIdentifier, Err: err}
		}
		return IssueResult{Failure: IssueFailureLookupUnavailable, Err: err}
	}

	ok, err := deps.VerifyPassword(plaintext, rec.PasswordHash)
	if err != nil {
		// Any verification error means the stored hash is undecodable, not
		// that the password was wrong.
		return IssueResult{Failure: IssueFailureHashFormat, Err: err, Subject: rec.Subject}
	}
	if !ok {
		return IssueResult{Failure: IssueFailureMismatch, Subject: rec.Subject}
	}

	if deps.NeedsUpgrade != nil && deps.Rehash != nil && deps.UpdateCredential != nil {
		if upgrade, uerr := deps.NeedsUpgrade(rec.PasswordHash); uerr == nil && upgrade {
			if newHash, herr := deps.Rehash(plaintext); herr == nil {
				if werr := deps.UpdateCredential(ctx, rec.Subject, newHash); werr != nil {
					deps.Warn("credential rehash update failed for subject %s", rec.Subject)
				}
			} else {
				deps.Warn("credential rehash generation failed")
			}
		}
	}
	plaintext = ""

	now := deps.Now()
	accessID := deps.NewTokenID()
	refreshID := deps.NewTokenID()

	refreshTTL := deps.RefreshTTL()
	if err := deps.CreateRecord(ctx, session.RefreshRecord{
		TokenID:   refreshID,
		Subject:   rec.Subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(refreshTTL).Unix(),
	}); err != nil {
		return IssueResult{Failure: IssueFailureRecordWrite, Err: err, Subject: rec.Subject}
	}

	access, err := deps.SignToken(mintClaims(token.KindAccess, rec.Subject, accessID, deps.DefaultScopes, now, deps.AccessTTL()))
	if err != nil {
		return IssueResult{Failure: IssueFailureSignAccess, Err: err, Subject: rec.Subject}
	}

	refresh, err := deps.SignToken(mintClaims(token.KindRefresh, rec.Subject, refreshID, deps.DefaultScopes, now, refreshTTL))
	if err != nil {
		return IssueResult{Failure: IssueFailureSignRefresh, Err: err, Subject: rec.Subject}
	}

	return IssueResult{
		Subject:      rec.Subject,
		AccessID:     accessID,
		RefreshID:    refreshID,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
