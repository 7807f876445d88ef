package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.VerifyAccess != nil
}

func (s Service) Issue(ctx context.Context, identifier, plaintext string) IssueResult {
	return RunIssue(ctx, identifier, plaintext, s.deps.Issue)
}

func (s Service) Validate(ctx context.Context, accessToken string) ValidateResult {
	return RunValidate(ctx, accessToken, s.deps.Validate)
}

func (s Service) Rotate(ctx context.Context, refreshToken string) RotateResult {
	return RunRotate(ctx, refreshToken, s.deps.Rotate)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}
