package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher is the default PasswordHasher.
// Passwords are pre-hashed with sha256 before bcrypt: lifts bcrypt's
// 72 byte input limit so long passphrases keep their full entropy.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))

	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Compare is timing safe: bcrypt.CompareHashAndPassword is constant time
// over the hash comparison.
func (BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
