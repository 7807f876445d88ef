package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "authcore"

// Record mutation runs in Lua so revoke-or-fail and revoke+create are single
// round trips the server executes atomically. Return codes: -1 record
// missing, 0 already revoked, 1 applied.

const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "sub", ARGV[1], "iat", ARGV[2], "exp", ARGV[3], "rvk", "0")
redis.call("PEXPIREAT", KEYS[1], ARGV[4])
return 1
`

const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
if redis.call("HGET", KEYS[1], "rvk") == "1" then
  return 0
end
redis.call("HSET", KEYS[1], "rvk", "1")
return 1
`

const supersedeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
if redis.call("HGET", KEYS[1], "rvk") == "1" then
  return 0
end
redis.call("HSET", KEYS[1], "rvk", "1")
redis.call("HSET", KEYS[2], "sub", ARGV[1], "iat", ARGV[2], "exp", ARGV[3], "rvk", "0")
redis.call("PEXPIREAT", KEYS[2], ARGV[4])
return 1
`

var (
	createLua    = redis.NewScript(createScript)
	revokeLua    = redis.NewScript(revokeScript)
	supersedeLua = redis.NewScript(supersedeScript)
)

// RedisStore keeps refresh records as Redis hashes with a TTL matching the
// record expiry, so the expiry sweep is native key eviction. Revoked records
// keep their original TTL: they must remain visible for replay detection.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps client. prefix namespaces all keys; empty selects the
// package default.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(tokenID string) string {
	return s.prefix + ":rt:" + tokenID
}

// Create persists rec as a new active record.
func (s *RedisStore) Create(ctx context.Context, rec RefreshRecord) error {
	status, err := createLua.Run(ctx, s.client,
		[]string{s.key(rec.TokenID)},
		rec.Subject,
		strconv.FormatInt(rec.IssuedAt, 10),
		strconv.FormatInt(rec.ExpiresAt, 10),
		strconv.FormatInt(rec.ExpiresAt*1000, 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status == 0 {
		return ErrDuplicateID
	}
	return nil
}

// Get loads the record for tokenID.
func (s *RedisStore) Get(ctx context.Context, tokenID string) (RefreshRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(tokenID)).Result()
	if err != nil {
		return RefreshRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return RefreshRecord{}, ErrNotFound
	}
	return decodeFields(tokenID, fields)
}

// Revoke marks tokenID revoked; false reports it was revoked already.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string) (bool, error) {
	status, err := revokeLua.Run(ctx, s.client, []string{s.key(tokenID)}).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch status {
	case -1:
		return false, ErrNotFound
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// Supersede atomically revokes oldID and creates next. Exactly one of two
// racing calls for the same oldID observes true.
func (s *RedisStore) Supersede(ctx context.Context, oldID string, next RefreshRecord) (bool, error) {
	status, err := supersedeLua.Run(ctx, s.client,
		[]string{s.key(oldID), s.key(next.TokenID)},
		next.Subject,
		strconv.FormatInt(next.IssuedAt, 10),
		strconv.FormatInt(next.ExpiresAt, 10),
		strconv.FormatInt(next.ExpiresAt*1000, 10),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch status {
	case -1:
		return false, ErrNotFound
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

func decodeFields(tokenID string, fields map[string]string) (RefreshRecord, error) {
	rec := RefreshRecord{TokenID: tokenID, Subject: fields["sub"]}
	if rec.Subject == "" {
		return RefreshRecord{}, fmt.Errorf("%w: record missing subject", ErrUnavailable)
	}

	var err error
	if rec.IssuedAt, err = strconv.ParseInt(fields["iat"], 10, 64); err != nil {
		return RefreshRecord{}, fmt.Errorf("%w: record corrupt", ErrUnavailable)
	}
	if rec.ExpiresAt, err = strconv.ParseInt(fields["exp"], 10, 64); err != nil {
		return RefreshRecord{}, fmt.Errorf("%w: record corrupt", ErrUnavailable)
	}
	rec.Revoked = fields["rvk"] == "1"
	return rec, nil
}

var _ Store = (*RedisStore)(nil)

// Ping reports store reachability, for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
