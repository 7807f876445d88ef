package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/authcore-io/authcore/internal/flows"
	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/session"
	"github.com/authcore-io/authcore/token"
)

const defaultKeyID = "k1"

// Builder assembles an Engine. A builder is single-use: Build succeeds at
// most once.
type Builder struct {
	config Config
	redis  *redis.Client
	store  session.Store

	identity  IdentityStore
	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New returns a builder preloaded with the default configuration. Callers
// must still supply key material, an identity store, and a refresh backend.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs refresh sessions with Redis. Ignored when an explicit
// store is set through WithRefreshStore.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithRefreshStore backs refresh sessions with a caller-supplied store,
// such as session.NewMemoryStore for single-process embedding.
func (b *Builder) WithRefreshStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithIdentityStore sets the credential lookup backend. Required.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.identity = store
	return b
}

// WithAuditSink sets the destination for audit events. Without a sink,
// events are discarded.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine's internal logger. Defaults to a no-op.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the internal counter block.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the flows, and returns a ready
// engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.identity == nil {
		return nil, errors.New("identity store required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("refresh store or redis client required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	policy, err := password.NewPolicy(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	keyID := cfg.Token.KeyID
	if keyID == "" {
		keyID = defaultKeyID
	}
	codec, err := token.NewCodec(token.Config{
		Method:         token.Method(cfg.Token.SigningMethod),
		Issuer:         cfg.Token.Issuer,
		Audience:       cfg.Token.Audience,
		Leeway:         cfg.Token.Leeway,
		MaxRetiredKeys: cfg.Token.MaxRetiredKeys,
	}, token.Key{
		ID:      keyID,
		Private: cloneBytes(cfg.Token.PrivateKey),
		Public:  cloneBytes(cfg.Token.PublicKey),
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:   cfg,
		codec:    codec,
		store:    store,
		identity: b.identity,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
	}
	engine.policy.Store(policy)
	engine.accessTTL.Store(int64(cfg.Token.AccessTTL))
	engine.refreshTTL.Store(int64(cfg.Token.RefreshTTL))

	verify := func(raw string, kind token.Kind) (token.Claims, error) {
		claims, err := codec.Verify(raw, kind)
		if err != nil {
			return token.Claims{}, err
		}
		return *claims, nil
	}

	issue := flows.IssueDeps{
		AccessTTL:        engine.currentAccessTTL,
		RefreshTTL:       engine.currentRefreshTTL,
		DefaultScopes:    cfg.Session.DefaultScopes,
		IdentityNotFound: ErrIdentityNotFound,
		Lookup: func(ctx context.Context, identifier string) (flows.CredentialRecord, error) {
			rec, err := engine.identity.Lookup(ctx, identifier)
			if err != nil {
				return flows.CredentialRecord{}, err
			}
			return flows.CredentialRecord{
				Subject:      rec.Subject,
				PasswordHash: rec.PasswordHash,
				CreatedAt:    rec.CreatedAt,
			}, nil
		},
		VerifyPassword: func(plaintext, encodedHash string) (bool, error) {
			return engine.policy.Load().Verify(plaintext, encodedHash)
		},
		NewTokenID:   token.NewTokenID,
		SignToken:    codec.Sign,
		CreateRecord: store.Create,
		Warn: func(format string, args ...any) {
			engine.logWarn(fmt.Sprintf(format, args...))
		},
	}

	if cfg.Password.UpgradeOnVerify {
		if updater, ok := b.identity.(CredentialUpdater); ok {
			issue.NeedsUpgrade = func(encodedHash string) (bool, error) {
				return engine.policy.Load().NeedsUpgrade(encodedHash)
			}
			issue.Rehash = func(plaintext string) (string, error) {
				return engine.policy.Load().Hash(plaintext)
			}
			issue.UpdateCredential = updater.UpdateCredential
		}
	}

	engine.flows = flows.New(flows.Deps{
		Issue: issue,
		Validate: flows.ValidateDeps{
			VerifyAccess: verify,
		},
		Rotate: flows.RotateDeps{
			AccessTTL:     engine.currentAccessTTL,
			RefreshTTL:    engine.currentRefreshTTL,
			VerifyRefresh: verify,
			GetRecord:     store.Get,
			Supersede:     store.Supersede,
			NewTokenID:    token.NewTokenID,
			SignToken:     codec.Sign,
		},
		Logout: flows.LogoutDeps{
			VerifyRefresh: verify,
			Revoke:        store.Revoke,
		},
	})

	b.built = true

	return engine, nil
}
