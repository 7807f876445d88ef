package authcore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
)

// testIdentityStore is an in-memory IdentityStore plus CredentialUpdater.
type testIdentityStore struct {
	mu      sync.Mutex
	records map[string]CredentialRecord // identifier -> record
}

func newTestIdentityStore() *testIdentityStore {
	return &testIdentityStore{records: make(map[string]CredentialRecord)}
}

func (s *testIdentityStore) put(identifier string, rec CredentialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identifier] = rec
}

func (s *testIdentityStore) hashFor(identifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[identifier].PasswordHash
}

func (s *testIdentityStore) Lookup(_ context.Context, identifier string) (CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		return CredentialRecord{}, ErrIdentityNotFound
	}
	return rec, nil
}

func (s *testIdentityStore) UpdateCredential(_ context.Context, subject, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for identifier, rec := range s.records {
		if rec.Subject == subject {
			rec.PasswordHash = newHash
			s.records[identifier] = rec
		}
	}
	return nil
}

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func testConfig(priv ed25519.PrivateKey) Config {
	cfg := defaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.Issuer = "engine-test"
	// Keep hashing cheap so the suite stays fast.
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Audit.BufferSize = 64
	return cfg
}

type testEngineOpts struct {
	cfg      *Config
	sink     AuditSink
	identity *testIdentityStore
	store    session.Store
}

func newTestEngine(t *testing.T, opts testEngineOpts) (*Engine, *testIdentityStore) {
	t.Helper()

	cfg := testConfig(testKey(t))
	if opts.cfg != nil {
		cfg = *opts.cfg
	}

	identity := opts.identity
	if identity == nil {
		identity = newTestIdentityStore()
		policy, err := password.NewPolicy(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		require.NoError(t, err)
		hash, err := policy.Hash("correct-horse")
		require.NoError(t, err)
		identity.put("alice@example.com", CredentialRecord{
			Subject:      "u1",
			PasswordHash: hash,
			CreatedAt:    time.Now().Unix(),
		})
	}

	store := opts.store
	if store == nil {
		store = session.NewMemoryStore()
	}

	b := New().
		WithConfig(cfg).
		WithIdentityStore(identity).
		WithRefreshStore(store)
	if opts.sink != nil {
		b = b.WithAuditSink(opts.sink)
	}

	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return engine, identity
}
