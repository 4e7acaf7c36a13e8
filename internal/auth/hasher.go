package auth

import (
	"github.com/alexis077/bookshelf/pkg"

	"golang.org/x/crypto/bcrypt"
)

var _ Hasher = (*BcryptHasher)(nil)

// Hasher one-way transforms a plaintext password into a storable form
// and checks a plaintext candidate against a stored form. Check reports
// any mismatch (including a malformed stored form) as false, never as
// an error.
type Hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return pkg.BytesToString(bytes), err
}

func (h *BcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
