package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when no valid cost is configured
const DefaultBcryptCost = 12

// MaxPasswordLength is the number of bytes bcrypt actually hashes
const MaxPasswordLength = 72

// PasswordHasher hashes secrets and checks them against stored hashes
type PasswordHasher interface {
	// Hash returns a salted one-way hash of plain.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches hash. A mismatch or an
	// unparseable hash is false, never an error.
	Verify(plain, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the work factor used for new hashes
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash hashes plain with a random salt
func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password must not be empty")
	}
	if len(plain) > MaxPasswordLength {
		return "", fmt.Errorf("password exceeds %d bytes", MaxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares plain against hash in time independent of where they differ
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
