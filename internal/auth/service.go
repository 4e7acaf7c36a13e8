package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexis077/bookshelf/internal/users"
)

// UserWithToken is returned on successful login.
type UserWithToken struct {
	users.SanitizedUser
	Token string `json:"token"`
}

// Service orchestrates registration and login on top of the user
// store, the password hasher and the token issuer. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	store  users.Store
	hasher Hasher
	issuer *TokenIssuer
}

func NewService(store users.Store, hasher Hasher, issuer *TokenIssuer) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		issuer: issuer,
	}
}

// Register creates a new account with role "user". The existing-email
// lookup is only a fast path: the store's unique constraint has the
// final word, so a concurrent duplicate registration still comes back
// as ErrDuplicateAccount.
func (s *Service) Register(ctx context.Context, name, email, password string) (*users.SanitizedUser, error) {
	email = users.NormalizeEmail(email)

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	created, err := s.store.Create(ctx, &users.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         users.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	sanitized := created.Sanitized()
	return &sanitized, nil
}

// Login verifies the credentials and issues a session token. Unknown
// email and wrong password produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*UserWithToken, error) {
	user, err := s.store.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &UserWithToken{
		SanitizedUser: user.Sanitized(),
		Token:         token,
	}, nil
}
