package password

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Scheme names the algorithm used for newly produced hashes.
type Scheme string

const (
	// SchemeArgon2id hashes with argon2id and PHC encoding.
	SchemeArgon2id Scheme = "argon2id"
	// SchemeBcrypt hashes with bcrypt. Kept for stores migrated from bcrypt deployments.
	SchemeBcrypt Scheme = "bcrypt"
)

// Config selects the primary scheme and its cost parameters.
type Config struct {
	Scheme     Scheme
	Argon2     Argon2Config
	BcryptCost int
}

// DefaultConfig returns argon2id with interactive-login parameters.
func DefaultConfig() Config {
	return Config{
		Scheme: SchemeArgon2id,
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: defaultBcryptCost,
	}
}

// Manager hashes with the configured scheme and verifies against any supported one.
//
// Manager is safe for concurrent use.
type Manager struct {
	scheme Scheme
	argon2 *argon2Scheme
	bcrypt *bcryptScheme
}

// New validates cfg and returns a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = SchemeArgon2id
	}

	m := &Manager{scheme: cfg.Scheme}
	switch cfg.Scheme {
	case SchemeArgon2id:
		a, err := newArgon2Scheme(cfg.Argon2)
		if err != nil {
			return nil, err
		}
		m.argon2 = a
		// bcrypt hashes must still verify after a scheme switch.
		m.bcrypt = &bcryptScheme{cost: defaultBcryptCost}
	case SchemeBcrypt:
		b, err := newBcryptScheme(cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		m.bcrypt = b
		m.argon2 = &argon2Scheme{config: cfg.Argon2}
	default:
		return nil, errors.New("unsupported password scheme")
	}

	return m, nil
}

// Scheme reports the scheme used by Hash.
func (m *Manager) Scheme() Scheme {
	return m.scheme
}

// Hash returns an encoded hash of plaintext using the primary scheme.
func (m *Manager) Hash(plaintext string) (string, error) {
	digest := preDigest(plaintext)
	if m.scheme == SchemeBcrypt {
		return m.bcrypt.hash(digest)
	}
	return m.argon2.hash(digest)
}

// Verify reports whether plaintext matches encodedHash. Malformed or unknown
// hashes yield false.
func (m *Manager) Verify(plaintext, encodedHash string) bool {
	if m == nil || encodedHash == "" {
		return false
	}

	digest := preDigest(plaintext)
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return m.argon2.verify(digest, encodedHash)
	case isBcryptHash(encodedHash):
		return m.bcrypt.verify(digest, encodedHash)
	default:
		return false
	}
}

// NeedsUpgrade reports whether encodedHash was produced by a different scheme or
// weaker parameters than the current configuration.
func (m *Manager) NeedsUpgrade(encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		if m.scheme != SchemeArgon2id {
			return true, nil
		}
		return m.argon2.needsUpgrade(encodedHash)
	case isBcryptHash(encodedHash):
		if m.scheme != SchemeBcrypt {
			return true, nil
		}
		return m.bcrypt.needsUpgrade(encodedHash)
	default:
		return false, errors.New("unrecognized hash format")
	}
}

// preDigest maps any plaintext to a fixed 64-byte hex SHA-256 digest.
func preDigest(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}
