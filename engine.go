package authcore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/authcore-io/authcore/internal/flows"
	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

// Engine is the credential and session token core. Build one through the
// Builder; the zero value is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config   Config
	codec    *token.Codec
	store    session.Store
	identity IdentityStore
	flows    flows.Service
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger

	policy     atomic.Pointer[password.Policy]
	accessTTL  atomic.Int64
	refreshTTL atomic.Int64
}

// Issue verifies identifier and plaintext credentials and returns a fresh
// access/refresh pair. Unknown identifiers and wrong passwords both return
// the same ErrAuthenticationFailed; the error carries no hint of which
// check failed.
func (e *Engine) Issue(ctx context.Context, identifier, plaintext string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Issue(ctx, identifier, plaintext)
	switch res.Failure {
	case flows.IssueFailureNone:
		e.metricInc(MetricIssueSuccess)
		e.metricInc(MetricSessionCreated)
		e.emitAudit(ctx, auditEventIssueSuccess, true, res.Subject, res.RefreshID, nil, nil)
		return TokenPair{
			Subject:      res.Subject,
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		}, nil

	case flows.IssueFailureUnknownIdentifier, flows.IssueFailureMismatch:
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, res.Subject, "", ErrAuthenticationFailed, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return TokenPair{}, ErrAuthenticationFailed

	case flows.IssueFailureHashFormat:
		e.metricInc(MetricCredentialFormatError)
		e.logWarn("stored credential hash undecodable", zap.String("subject", res.Subject))
		e.emitAudit(ctx, auditEventIssueFailure, false, res.Subject, "", ErrInvalidCredentialFormat, nil)
		return TokenPair{}, ErrInvalidCredentialFormat

	case flows.IssueFailureLookupUnavailable, flows.IssueFailureRecordWrite:
		e.metricInc(MetricStoreUnavailable)
		e.logWarn("issue backend unavailable", zap.Error(res.Err))
		e.emitAudit(ctx, auditEventIssueFailure, false, res.Subject, "", ErrStoreUnavailable, nil)
		return TokenPair{}, ErrStoreUnavailable

	case flows.IssueFailureNotReady:
		return TokenPair{}, ErrEngineNotReady

	default:
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, res.Subject, "", res.Err, nil)
		return TokenPair{}, fmt.Errorf("sign token: %w", res.Err)
	}
}

// Validate verifies an access token without touching the session store and
// returns the authenticated identity. Every failure collapses to
// ErrUnauthorized so callers cannot probe for the cause.
func (e *Engine) Validate(ctx context.Context, accessToken string) (Identity, error) {
	if e == nil || !e.flows.Initialized() {
		return Identity{}, ErrEngineNotReady
	}

	start := time.Now()
	res := e.flows.Validate(ctx, accessToken)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	if res.Failure != flows.ValidateFailureNone {
		if res.Failure == flows.ValidateFailureNotReady {
			return Identity{}, ErrEngineNotReady
		}
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", "", validateFailureCause(res.Failure), nil)
		return Identity{}, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return Identity{
		Subject: res.Claims.Subject,
		TokenID: res.Claims.ID,
		Scopes:  res.Claims.Scopes,
	}, nil
}

// validateFailureCause names the internal cause for the audit trail. Callers
// only ever see ErrUnauthorized.
func validateFailureCause(kind flows.ValidateFailureKind) error {
	switch kind {
	case flows.ValidateFailureExpired:
		return ErrTokenExpired
	case flows.ValidateFailureWrongKind:
		return ErrWrongTokenKind
	default:
		return ErrUnauthorized
	}
}

// Rotate exchanges a live refresh token for a new access/refresh pair and
// revokes the presented one. Reusing a rotated token fails with
// ErrReplayedToken and leaves the active chain untouched.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || !e.flows.Initialized() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Rotate(ctx, refreshToken)
	switch res.Failure {
	case flows.RotateFailureNone:
		e.metricInc(MetricRotateSuccess)
		e.metricInc(MetricSessionCreated)
		e.emitAudit(ctx, auditEventRotateSuccess, true, res.Subject, res.RefreshID, nil, func() map[string]string {
			return map[string]string{"superseded": res.OldTokenID}
		})
		return TokenPair{
			Subject:      res.Subject,
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		}, nil

	case flows.RotateFailureDecode:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, "", "", ErrUnauthorized, nil)
		return TokenPair{}, ErrUnauthorized

	case flows.RotateFailureWrongKind:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, "", "", ErrWrongTokenKind, nil)
		return TokenPair{}, ErrWrongTokenKind

	case flows.RotateFailureExpiredToken, flows.RotateFailureRecordExpired:
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.OldTokenID, ErrSessionExpired, nil)
		return TokenPair{}, ErrSessionExpired

	case flows.RotateFailureRecordNotFound:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.OldTokenID, ErrUnknownSession, nil)
		return TokenPair{}, ErrUnknownSession

	case flows.RotateFailureReplay:
		e.metricInc(MetricReplayDetected)
		e.logWarn("refresh token replay detected",
			zap.String("subject", res.Subject),
			zap.String("token_id", res.OldTokenID))
		e.emitAudit(ctx, auditEventReplayDetected, false, res.Subject, res.OldTokenID, ErrReplayedToken, nil)
		return TokenPair{}, ErrReplayedToken

	case flows.RotateFailureStore:
		e.metricInc(MetricStoreUnavailable)
		e.logWarn("rotate backend unavailable", zap.Error(res.Err))
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.OldTokenID, ErrStoreUnavailable, nil)
		return TokenPair{}, ErrStoreUnavailable

	case flows.RotateFailureNotReady:
		return TokenPair{}, ErrEngineNotReady

	default:
		e.metricInc(MetricRotateFailure)
		e.emitAudit(ctx, auditEventRotateFailure, false, res.Subject, res.OldTokenID, res.Err, nil)
		return TokenPair{}, fmt.Errorf("sign token: %w", res.Err)
	}
}

// Logout revokes the session behind a refresh token. Logging out an
// already-revoked session succeeds so retried requests stay idempotent.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, refreshToken)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		event := auditEventLogout
		if res.AlreadyRevoked {
			event = auditEventLogoutRepeat
		}
		e.emitAudit(ctx, event, true, res.Subject, res.TokenID, nil, nil)
		return nil

	case flows.LogoutFailureDecode:
		return ErrUnauthorized

	case flows.LogoutFailureExpired:
		return ErrSessionExpired

	case flows.LogoutFailureWrongKind:
		return ErrWrongTokenKind

	case flows.LogoutFailureNotFound:
		return ErrUnknownSession

	case flows.LogoutFailureStore:
		e.metricInc(MetricStoreUnavailable)
		e.logWarn("logout backend unavailable", zap.Error(res.Err))
		return ErrStoreUnavailable

	default:
		return ErrEngineNotReady
	}
}

// RotateSigningKey installs next as the signing key. The previous key stays
// resident for verification until it falls off the retired-key bound, so
// tokens issued before the rotation keep validating.
func (e *Engine) RotateSigningKey(next token.Key) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	if err := e.codec.RotateKey(next); err != nil {
		return err
	}
	e.metricInc(MetricKeyRotation)
	e.emitAudit(context.Background(), auditEventKeyRotation, true, "", "", nil, func() map[string]string {
		return map[string]string{"kid": next.ID}
	})
	return nil
}

// SigningKeyID reports the key ID new tokens are signed with.
func (e *Engine) SigningKeyID() string {
	if e == nil || e.codec == nil {
		return ""
	}
	return e.codec.CurrentKID()
}

// SetTokenLifetimes changes access and refresh TTLs for tokens issued after
// the call. Tokens already in flight keep their original expiry.
func (e *Engine) SetTokenLifetimes(access, refresh time.Duration) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if access <= 0 || refresh <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if refresh <= access {
		return fmt.Errorf("refresh TTL must exceed access TTL")
	}
	e.accessTTL.Store(int64(access))
	e.refreshTTL.Store(int64(refresh))
	return nil
}

// SetPasswordPolicy swaps the hashing policy for subsequent verifications
// and rehashes. Existing hashes keep verifying under their embedded
// parameters.
func (e *Engine) SetPasswordPolicy(cfg password.Config) error {
	if e == nil {
		return ErrEngineNotReady
	}
	p, err := password.NewPolicy(cfg)
	if err != nil {
		return err
	}
	e.policy.Store(p)
	return nil
}

// Metrics exposes the counter block for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close drains and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) logWarn(msg string, fields ...zap.Field) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, fields...)
}

func (e *Engine) currentAccessTTL() time.Duration {
	return time.Duration(e.accessTTL.Load())
}

func (e *Engine) currentRefreshTTL() time.Duration {
	return time.Duration(e.refreshTTL.Load())
}
