package mesto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns secrets into storable digests and checks them later.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// BcryptHasher is the PasswordHasher used in production. The salt is random
// per call and lives inside the digest; comparison is constant time.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost, or bcrypt's default
// when cost is zero.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// maxSecretBytes is the longest secret bcrypt reads in full.
const maxSecretBytes = 72

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", &Error{Kind: KindBadRequest, Message: "Поле password обязательно", Err: ErrInvalidInput}
	}
	// bcrypt only looks at the first 72 bytes
	if len(secret) > maxSecretBytes {
		return "", &Error{Kind: KindBadRequest, Message: "Пароль не должен превышать 72 байта", Err: ErrInvalidInput}
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(secret, digest string) bool {
	if secret == "" || digest == "" || len(secret) > maxSecretBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
