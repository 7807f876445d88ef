package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for a token id.
	ErrNotFound = errors.New("refresh record not found")
	// ErrUnavailable wraps transport-level store failures. It is the only
	// retry-eligible store outcome; everything else is definitive.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrDuplicateID is returned when Create collides with an existing
	// record. Token ids are random; a collision indicates a caller bug.
	ErrDuplicateID = errors.New("refresh record id already exists")
)

// Store is the persistence hook for refresh-token state. Implementations
// must honor caller cancellation through ctx and keep revoked records
// readable until their natural expiry so replays stay detectable.
type Store interface {
	// Create persists a new active record.
	Create(ctx context.Context, rec RefreshRecord) error

	// Get returns the record for tokenID, revoked or not; ErrNotFound when
	// the id is unknown or already swept.
	Get(ctx context.Context, tokenID string) (RefreshRecord, error)

	// Revoke marks the record revoked. The boolean is the atomicity
	// primitive rotation relies on: false means some other call already
	// revoked it, and exactly one caller ever observes true.
	Revoke(ctx context.Context, tokenID string) (bool, error)

	// Supersede atomically revokes oldID and creates next. It returns false
	// (and writes nothing) when oldID was already revoked; there is no
	// intermediate state in which neither or both records are active.
	Supersede(ctx context.Context, oldID string, next RefreshRecord) (bool, error)
}
