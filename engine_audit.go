package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventIssueSuccess    = "issue_success"
	auditEventIssueFailure    = "issue_failure"
	auditEventValidateFailure = "validate_failure"
	auditEventRotateSuccess   = "rotate_success"
	auditEventRotateFailure   = "rotate_failure"
	auditEventReplayDetected  = "replay_detected"
	auditEventLogout          = "logout"
	auditEventLogoutRepeat    = "logout_repeat"
	auditEventKeyRotation     = "key_rotation"
)

// AuditErrorCode is the stable failure label attached to audit events.
type AuditErrorCode string

const (
	auditErrAuthenticationFailed AuditErrorCode = "authentication_failed"
	auditErrCredentialFormat     AuditErrorCode = "credential_format"
	auditErrTokenExpired         AuditErrorCode = "token_expired"
	auditErrWrongTokenKind       AuditErrorCode = "wrong_token_kind"
	auditErrUnauthorized         AuditErrorCode = "unauthorized"
	auditErrUnknownSession       AuditErrorCode = "unknown_session"
	auditErrReplay               AuditErrorCode = "replay"
	auditErrSessionExpired       AuditErrorCode = "session_expired"
	auditErrStoreUnavailable     AuditErrorCode = "store_unavailable"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	tokenID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Subject:   subject,
		TokenID:   tokenID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrAuthenticationFailed
	case errors.Is(err, ErrInvalidCredentialFormat):
		return auditErrCredentialFormat
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrWrongTokenKind):
		return auditErrWrongTokenKind
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrUnknownSession):
		return auditErrUnknownSession
	case errors.Is(err, ErrReplayedToken):
		return auditErrReplay
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}
