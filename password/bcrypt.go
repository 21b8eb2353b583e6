package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minBcryptCost     = 10
	defaultBcryptCost = 12
)

type bcryptScheme struct {
	cost int
}

func newBcryptScheme(cost int) (*bcryptScheme, error) {
	if cost == 0 {
		cost = defaultBcryptCost
	}
	if cost < minBcryptCost || cost > bcrypt.MaxCost {
		return nil, errors.New("password bcrypt cost must be between 10 and 31")
	}
	return &bcryptScheme{cost: cost}, nil
}

func (b *bcryptScheme) hash(digest []byte) (string, error) {
	out, err := bcrypt.GenerateFromPassword(digest, b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// verify relies on bcrypt's own constant-time comparison.
func (b *bcryptScheme) verify(digest []byte, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), digest) == nil
}

func (b *bcryptScheme) needsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < b.cost, nil
}

func isBcryptHash(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}
