package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultMaxRetiredKeys = 2

// Config carries the immutable codec settings. Key material itself lives in
// the ring and may rotate after construction.
type Config struct {
	Method   Method
	Issuer   string
	Audience string
	// Leeway absorbs clock drift between issuing and validating nodes when
	// checking expiry and issued-at. Bounded to keep expired tokens short.
	Leeway         time.Duration
	MaxRetiredKeys int
}

// Codec signs and verifies claim sets as compact JWS tokens
// (header.payload.signature, base64url).
type Codec struct {
	cfg  Config
	keys *Keyring
}

// NewCodec validates cfg and builds a codec signing with current.
func NewCodec(cfg Config, current Key) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxRetiredKeys == 0 {
		cfg.MaxRetiredKeys = defaultMaxRetiredKeys
	}
	if cfg.MaxRetiredKeys < 0 {
		return nil, errors.New("invalid retired key bound")
	}

	ring, err := NewKeyring(cfg.Method, cfg.MaxRetiredKeys, current)
	if err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg, keys: ring}, nil
}

// Sign seals claims under the current signing key and returns the compact
// encoding. A missing token id is filled in; issuer and audience default to
// the codec configuration.
func (c *Codec) Sign(claims Claims) (string, error) {
	if !claims.Kind.Valid() {
		return "", errors.New("claims carry no valid kind")
	}
	if claims.Subject == "" {
		return "", errors.New("claims carry no subject")
	}
	if claims.ID == "" {
		claims.ID = NewTokenID()
	}
	if claims.Issuer == "" {
		claims.Issuer = c.cfg.Issuer
	}
	if len(claims.Audience) == 0 && c.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.cfg.Audience}
	}

	snap := c.keys.snapshot()
	tok := jwt.NewWithClaims(c.method(), claims)
	tok.Header["kid"] = snap.signKID
	return tok.SignedString(snap.signKey)
}

// Verify checks raw in order: structure, signature against the ring
// snapshot, expiry, then kind. Any byte-level tampering fails the signature
// check; a valid token of the other kind fails with ErrWrongKind.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	if !kind.Valid() {
		return nil, errors.New("verification requires a valid expected kind")
	}

	snap := c.keys.snapshot()
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.cfg.Leeway))
	}
	if c.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.cfg.Issuer))
	}
	if c.cfg.Audience != "" {
		options = append(options, jwt.WithAudience(c.cfg.Audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		key, ok := snap.verify[kid]
		if !ok {
			return nil, ErrUnknownKey
		}
		return key, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if !claims.Kind.Valid() {
		return nil, fmt.Errorf("%w: missing kind claim", ErrMalformed)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongKind, claims.Kind, kind)
	}
	return claims, nil
}

// RotateKey swaps the signing key; previously issued tokens keep verifying
// against the retired set until it overflows or they expire.
func (c *Codec) RotateKey(next Key) error {
	return c.keys.Rotate(next)
}

// CurrentKID reports the active signing key id.
func (c *Codec) CurrentKID() string {
	return c.keys.CurrentKID()
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.cfg.Method {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKey):
		return fmt.Errorf("%w: %v", ErrUnknownKey, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		// Covers not-yet-valid, future iat beyond leeway, claim mismatches.
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
