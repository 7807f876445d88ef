package flows

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/token"
)

// ValidateFailureKind classifies access-token verification failures. The
// root engine collapses every kind to one caller-facing error; the split
// exists so audit events and metrics keep the real cause.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureNotReady
	ValidateFailureExpired
	ValidateFailureWrongKind
	ValidateFailureBadToken
)

// ValidateResult reports the verified claims or the failure cause.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  token.Claims
}

// ValidateDeps captures validate-flow dependencies.
type ValidateDeps struct {
	VerifyAccess func(raw string, kind token.Kind) (token.Claims, error)
}

// RunValidate checks an access token statelessly. No store round trip
// happens here; revocation only applies to refresh tokens.
func RunValidate(_ context.Context, accessToken string, deps ValidateDeps) ValidateResult {
	if deps.VerifyAccess == nil {
		return ValidateResult{Failure: ValidateFailureNotReady}
	}

	claims, err := deps.VerifyAccess(accessToken, token.KindAccess)
	if err != nil {
		return ValidateResult{Failure: classifyVerifyError(err), Err: err}
	}
	return ValidateResult{Claims: claims}
}

func classifyVerifyError(err error) ValidateFailureKind {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ValidateFailureExpired
	case errors.Is(err, token.ErrWrongKind):
		return ValidateFailureWrongKind
	default:
		return ValidateFailureBadToken
	}
}
