package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store for single-process embedding and tests. A single
// mutex serializes mutations, which trivially gives Revoke and Supersede
// their exactly-one-winner guarantee.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]RefreshRecord
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]RefreshRecord),
		now:     time.Now,
	}
}

// Create persists rec as a new active record.
func (s *MemoryStore) Create(ctx context.Context, rec RefreshRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.TokenID]; exists {
		return ErrDuplicateID
	}
	s.records[rec.TokenID] = rec
	return nil
}

// Get loads the record for tokenID. Records past expiry are swept lazily.
func (s *MemoryStore) Get(ctx context.Context, tokenID string) (RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return RefreshRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[tokenID]
	if !ok {
		return RefreshRecord{}, ErrNotFound
	}
	if rec.Expired(s.now()) {
		delete(s.records, tokenID)
		return RefreshRecord{}, ErrNotFound
	}
	return rec, nil
}

// Revoke marks tokenID revoked; false reports it was revoked already.
func (s *MemoryStore) Revoke(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[tokenID]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	s.records[tokenID] = rec
	return true, nil
}

// Supersede atomically revokes oldID and creates next under one lock hold.
func (s *MemoryStore) Supersede(ctx context.Context, oldID string, next RefreshRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[oldID]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	s.records[oldID] = rec
	s.records[next.TokenID] = next
	return true, nil
}

// PurgeExpired removes records whose lifetime has passed and returns how
// many were dropped. Hosts embedding the store call this periodically;
// Redis deployments get the sweep from key TTLs instead.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live records, for tests and introspection.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
