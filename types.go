package authcore

import "context"

// CredentialRecord is the stored credential view an IdentityStore returns.
// PasswordHash holds the full encoded hash string, parameters included.
type CredentialRecord struct {
	Subject      string
	PasswordHash string
	CreatedAt    int64
}

// IdentityStore is the read-only credential lookup interface callers
// implement to integrate their user database. Lookup must return
// ErrIdentityNotFound (possibly wrapped) for unknown identifiers; any other
// error is treated as a backend outage.
type IdentityStore interface {
	Lookup(ctx context.Context, identifier string) (CredentialRecord, error)
}

// CredentialUpdater is an optional extension of IdentityStore. When the
// store implements it, credentials hashed under an older or weaker policy
// are transparently rehashed after a successful Issue.
type CredentialUpdater interface {
	UpdateCredential(ctx context.Context, subject, newHash string) error
}

// TokenPair is the result of Issue and Rotate.
type TokenPair struct {
	Subject      string
	AccessToken  string
	RefreshToken string
}

// Identity is the verified principal Validate returns.
type Identity struct {
	Subject string
	TokenID string
	Scopes  []string
}
