package middleware

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authcore "github.com/authcore-io/authcore"
	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
)

type singleUserStore struct {
	identifier string
	record     authcore.CredentialRecord
}

func (s singleUserStore) Lookup(_ context.Context, identifier string) (authcore.CredentialRecord, error) {
	if identifier != s.identifier {
		return authcore.CredentialRecord{}, authcore.ErrIdentityNotFound
	}
	return s.record, nil
}

func newGuardedServer(t *testing.T) (*authcore.Engine, http.Handler) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pwCfg := password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	policy, err := password.NewPolicy(pwCfg)
	require.NoError(t, err)
	hash, err := policy.Hash("hunter2-long")
	require.NoError(t, err)

	cfg := authcore.Config{}
	cfg.Token.AccessTTL = time.Minute
	cfg.Token.RefreshTTL = time.Hour
	cfg.Token.SigningMethod = "ed25519"
	cfg.Token.PrivateKey = priv
	cfg.Password.Memory = pwCfg.Memory
	cfg.Password.Time = pwCfg.Time
	cfg.Password.Parallelism = pwCfg.Parallelism
	cfg.Password.SaltLength = pwCfg.SaltLength
	cfg.Password.KeyLength = pwCfg.KeyLength

	engine, err := authcore.New().
		WithConfig(cfg).
		WithIdentityStore(singleUserStore{
			identifier: "bob",
			record:     authcore.CredentialRecord{Subject: "u1", PasswordHash: hash},
		}).
		WithRefreshStore(session.NewMemoryStore()).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(id.Subject))
	}))

	return engine, handler
}

func TestGuardAcceptsValidToken(t *testing.T) {
	engine, handler := newGuardedServer(t)

	pair, err := engine.Issue(context.Background(), "bob", "hunter2-long")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	engine, handler := newGuardedServer(t)

	cases := map[string]string{
		"no header":    "",
		"not bearer":   "Basic abc",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer garbage",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	// Refresh tokens do not pass the guard.
	pair, err := engine.Issue(context.Background(), "bob", "hunter2-long")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCollapseError(t *testing.T) {
	status, msg := CollapseError(authcore.ErrAuthenticationFailed)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", msg)

	status, msg = CollapseError(authcore.ErrReplayedToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid or expired session", msg)

	status, _ = CollapseError(authcore.ErrStoreUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = CollapseError(nil)
	assert.Equal(t, http.StatusOK, status)
}
