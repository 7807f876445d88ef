package authcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	base := testConfig(testKey(t))
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access TTL", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"zero refresh TTL", func(c *Config) { c.Token.RefreshTTL = 0 }},
		{"refresh not above access", func(c *Config) { c.Token.RefreshTTL = c.Token.AccessTTL }},
		{"unknown method", func(c *Config) { c.Token.SigningMethod = "rs256" }},
		{"negative leeway", func(c *Config) { c.Token.Leeway = -time.Second }},
		{"excessive leeway", func(c *Config) { c.Token.Leeway = 3 * time.Minute }},
		{"negative retired bound", func(c *Config) { c.Token.MaxRetiredKeys = -1 }},
		{"missing key", func(c *Config) { c.Token.PrivateKey = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(testKey(t))
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCloneConfigIsolation(t *testing.T) {
	cfg := testConfig(testKey(t))
	cfg.Session.DefaultScopes = []string{"read"}

	cloned := cloneConfig(cfg)
	cloned.Token.PrivateKey[0] ^= 0xff
	cloned.Session.DefaultScopes[0] = "write"

	assert.NotEqual(t, cfg.Token.PrivateKey[0], cloned.Token.PrivateKey[0])
	assert.Equal(t, "read", cfg.Session.DefaultScopes[0])
}

func TestBuilderRequirements(t *testing.T) {
	cfg := testConfig(testKey(t))

	_, err := New().WithConfig(cfg).Build()
	assert.EqualError(t, err, "identity store required")

	_, err = New().WithConfig(cfg).WithIdentityStore(newTestIdentityStore()).Build()
	assert.EqualError(t, err, "refresh store or redis client required")

	bad := cfg
	bad.Token.PrivateKey = nil
	_, err = New().WithConfig(bad).WithIdentityStore(newTestIdentityStore()).Build()
	assert.Error(t, err)
}

func TestBuilderSingleUse(t *testing.T) {
	engine, _ := newTestEngine(t, testEngineOpts{})
	require.NotNil(t, engine)

	b := New()
	b.built = true
	_, err := b.Build()
	assert.EqualError(t, err, "builder already used")
}
