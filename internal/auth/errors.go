package auth

import "errors"

var (
	// ErrDuplicateAccount - registration attempted with an email
	// that already belongs to an account
	ErrDuplicateAccount = errors.New("account with this email already exists")

	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password"; the two cases are deliberately indistinguishable so
	// that login responses cannot be used to enumerate addresses
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken - the token signature does not verify, the
	// payload cannot be decoded, or the token expired
	ErrInvalidToken = errors.New("invalid or expired token")
)
