package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "t"), mr
}

func activeRecord(id, subject string, ttl time.Duration) RefreshRecord {
	now := time.Now()
	return RefreshRecord{
		TokenID:   id,
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func TestRedisCreateAndGet(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	rec := activeRecord("rt-1", "u1", time.Hour)
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Subject, got.Subject)
	assert.Equal(t, rec.IssuedAt, got.IssuedAt)
	assert.Equal(t, rec.ExpiresAt, got.ExpiresAt)
	assert.False(t, got.Revoked)
}

func TestRedisCreateDuplicate(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("rt-1", "u1", time.Hour)))
	err := store.Create(ctx, activeRecord("rt-1", "u2", time.Hour))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRedisGetMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRevokeIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("rt-1", "u1", time.Hour)))

	first, err := store.Revoke(ctx, "rt-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.Revoke(ctx, "rt-1")
	require.NoError(t, err)
	assert.False(t, second, "second revoke must report already revoked")

	got, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked, "revoked record must stay visible for replay detection")
}

func TestRedisRevokeMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Revoke(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisSupersede(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("rt-1", "u1", time.Hour)))

	next := activeRecord("rt-2", "u1", time.Hour)
	swapped, err := store.Supersede(ctx, "rt-1", next)
	require.NoError(t, err)
	assert.True(t, swapped)

	old, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	fresh, err := store.Get(ctx, "rt-2")
	require.NoError(t, err)
	assert.False(t, fresh.Revoked)

	// The old record was already revoked: a second supersede loses.
	again, err := store.Supersede(ctx, "rt-1", activeRecord("rt-3", "u1", time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	_, err = store.Get(ctx, "rt-3")
	assert.ErrorIs(t, err, ErrNotFound, "losing supersede must not create its record")
}

func TestRedisRecordExpiresWithKeyTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("rt-1", "u1", time.Minute)))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "rt-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "t")
	mr.Close()

	err := store.Create(context.Background(), activeRecord("rt-1", "u1", time.Hour))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = store.Get(context.Background(), "rt-1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRedisPing(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))

	// A cancelled probe must not report the store as healthy.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Ping(cancelled), ErrUnavailable)

	mr.Close()
	assert.ErrorIs(t, store.Ping(context.Background()), ErrUnavailable)
}
