package session

import "time"

// RefreshRecord is the bookkeeping entry for one refresh token identifier.
// Its lifecycle is Active, then exactly one of Rotated/Revoked (revoked flag
// set) or Expired; no transition returns a record to Active.
type RefreshRecord struct {
	TokenID   string
	Subject   string
	IssuedAt  int64
	ExpiresAt int64
	Revoked   bool
}

// Expired reports whether the record's lifetime has passed at now.
func (r RefreshRecord) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}
