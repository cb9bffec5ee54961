// Package password provides the one-way password hashing capability used
// by the auth handlers. Hashing is bcrypt: the salt lives inside the digest
// and comparison is constant-time.
package password

import "golang.org/x/crypto/bcrypt"

type Hasher interface {
	// Hash returns a salted digest of plain. Two calls with the same input
	// produce different digests.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches digest.
	Verify(plain, digest string) bool
}

type Bcrypt struct {
	// Cost of the bcrypt key derivation, bcrypt.DefaultCost if <= 0.
	Cost int
}

func (b *Bcrypt) cost() int {
	if b.Cost <= 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost())
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (b *Bcrypt) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
