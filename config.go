package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration. It is copied at Build time;
// later mutation of the caller's value has no effect. Token lifetimes and
// the password policy can be changed on a live engine through
// SetTokenLifetimes and SetPasswordPolicy.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls signing and verification of both token kinds.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	KeyID         string
	PrivateKey    []byte
	PublicKey     []byte // ignored for hs256

	Issuer   string
	Audience string

	// Leeway widens expiry checks to absorb clock skew between the signer
	// and verifiers. Zero is valid; values above two minutes are rejected.
	Leeway time.Duration

	// MaxRetiredKeys bounds how many superseded verification keys stay
	// resident after RotateSigningKey. Zero means the default of 2.
	MaxRetiredKeys int
}

// PasswordConfig carries argon2id parameters. Zero values fall back to the
// library defaults at Build time.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// UpgradeOnVerify rehashes credentials found under a weaker or legacy
	// policy after a successful Issue, when the identity store implements
	// CredentialUpdater.
	UpgradeOnVerify bool
}

// SessionConfig controls refresh-session bookkeeping.
type SessionConfig struct {
	RedisPrefix   string
	DefaultScopes []string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking request flows when the
	// buffer is full. Drops are counted and visible via AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the internal counter block.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const maxLeeway = 2 * time.Minute

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:      15 * time.Minute,
			RefreshTTL:     7 * 24 * time.Hour,
			SigningMethod:  "ed25519",
			Leeway:         30 * time.Second,
			MaxRetiredKeys: 2,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			RedisPrefix: "authcore",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token access TTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("token refresh TTL must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	switch c.Token.SigningMethod {
	case "ed25519", "hs256":
	default:
		return errors.New("signing method must be ed25519 or hs256")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > maxLeeway {
		return errors.New("leeway must be between 0 and 2 minutes")
	}
	if c.Token.MaxRetiredKeys < 0 {
		return errors.New("max retired keys must not be negative")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("signing private key required")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Session.DefaultScopes = cloneStrings(cfg.Session.DefaultScopes)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
