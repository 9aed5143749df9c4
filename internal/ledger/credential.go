package ledger

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credential checks the administrative secret required for deletions.
type Credential interface {
	Verify(secret string) bool
}

// SecretCredential accepts exactly one shared secret.
type SecretCredential string

// Verify compares in constant time. An empty credential accepts nothing.
func (c SecretCredential) Verify(secret string) bool {
	if c == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c), []byte(secret)) == 1
}

// BcryptCredential accepts the secret whose bcrypt hash it holds.
type BcryptCredential []byte

// NewBcryptCredential hashes secret with the default cost.
func NewBcryptCredential(secret string) (BcryptCredential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return BcryptCredential(hash), nil
}

// Verify reports whether secret matches the stored hash.
func (c BcryptCredential) Verify(secret string) bool {
	if len(c) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(c, []byte(secret)) == nil
}
