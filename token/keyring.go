package token

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/golang-jwt/jwt/v5"
)

// Method selects the signature algorithm for the codec.
type Method string

const (
	// MethodEd25519 signs with an Ed25519 private key and verifies with the
	// matching public key.
	MethodEd25519 Method = "ed25519"
	// MethodHS256 signs and verifies with a shared symmetric secret.
	MethodHS256 Method = "hs256"
)

// Key is one signing key with its stable identifier. For MethodHS256 only
// Private is used; for MethodEd25519 Private may be omitted on retired keys
// that are kept for verification only.
type Key struct {
	ID      string
	Private []byte
	Public  []byte
}

// ringSnapshot is the immutable view verifiers and signers operate on.
// A rotation publishes a whole new snapshot; in-flight calls keep the one
// they loaded.
type ringSnapshot struct {
	signKID string
	signKey any
	verify  map[string]any
	// retired holds kids oldest-first so rotation can trim the excess.
	retired []string
}

// Keyring holds the current signing key and a bounded set of retired
// verification keys behind an atomic pointer.
type Keyring struct {
	method     Method
	maxRetired int
	snap       atomic.Pointer[ringSnapshot]
}

// NewKeyring builds a ring with a single current key. maxRetired bounds how
// many previous keys stay verifiable after rotations; zero keeps none.
func NewKeyring(method Method, maxRetired int, current Key) (*Keyring, error) {
	if maxRetired < 0 {
		return nil, errors.New("negative retired key bound")
	}
	current.ID = strings.TrimSpace(current.ID)
	if current.ID == "" {
		return nil, errors.New("signing key requires an id")
	}

	k := &Keyring{method: method, maxRetired: maxRetired}

	signKey, verifyKey, err := k.parseKey(current, true)
	if err != nil {
		return nil, err
	}
	k.snap.Store(&ringSnapshot{
		signKID: current.ID,
		signKey: signKey,
		verify:  map[string]any{current.ID: verifyKey},
	})
	return k, nil
}

// Rotate installs next as the signing key. The previous current key moves to
// the retired set, verify-only, and the oldest retired keys beyond the bound
// stop verifying. Concurrent verifications are never blocked.
func (k *Keyring) Rotate(next Key) error {
	next.ID = strings.TrimSpace(next.ID)
	if next.ID == "" {
		return errors.New("signing key requires an id")
	}

	signKey, verifyKey, err := k.parseKey(next, true)
	if err != nil {
		return err
	}

	for {
		old := k.snap.Load()
		if _, exists := old.verify[next.ID]; exists || next.ID == old.signKID {
			return errors.New("key id already present in ring")
		}

		retired := append(append([]string(nil), old.retired...), old.signKID)
		verify := make(map[string]any, len(retired)+1)
		for _, kid := range retired {
			verify[kid] = old.verify[kid]
		}
		verify[old.signKID] = old.verify[old.signKID]
		for len(retired) > k.maxRetired {
			delete(verify, retired[0])
			retired = retired[1:]
		}
		verify[next.ID] = verifyKey

		if k.snap.CompareAndSwap(old, &ringSnapshot{
			signKID: next.ID,
			signKey: signKey,
			verify:  verify,
			retired: retired,
		}) {
			return nil
		}
	}
}

// CurrentKID returns the id of the key new signatures are produced with.
func (k *Keyring) CurrentKID() string {
	return k.snap.Load().signKID
}

func (k *Keyring) snapshot() *ringSnapshot {
	return k.snap.Load()
}

// parseKey validates raw key material for the ring's method. When signing is
// requested the private key must be present and well formed.
func (k *Keyring) parseKey(key Key, signing bool) (signKey, verifyKey any, err error) {
	switch k.method {
	case MethodHS256:
		if len(key.Private) == 0 {
			return nil, nil, errors.New("hs256 requires a secret")
		}
		return key.Private, key.Private, nil
	case MethodEd25519:
		var pub ed25519.PublicKey
		if len(key.Public) > 0 {
			pub, err = parseEdPublicKey(key.Public)
			if err != nil {
				return nil, nil, err
			}
		}
		if signing || len(key.Private) > 0 {
			priv, perr := parseEdPrivateKey(key.Private)
			if perr != nil {
				return nil, nil, perr
			}
			derived, ok := priv.Public().(ed25519.PublicKey)
			if !ok {
				return nil, nil, errors.New("invalid ed25519 private key type")
			}
			if pub == nil {
				pub = derived
			} else if !pub.Equal(derived) {
				return nil, nil, errors.New("ed25519 public key does not match private key")
			}
			return priv, pub, nil
		}
		if pub == nil {
			return nil, nil, errors.New("ed25519 key requires private or public material")
		}
		return nil, pub, nil
	default:
		return nil, nil, errors.New("unsupported signing method")
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
