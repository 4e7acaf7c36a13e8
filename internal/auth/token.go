package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = time.Hour

var _ TokenVerifier = (*TokenIssuer)(nil)

// TokenVerifier is the part of the issuer the access guard needs.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Claims is the payload carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenIssuer produces and verifies signed, time-bounded session
// tokens. Tokens are self-contained: verification needs no store
// lookup, which also means a token cannot be revoked before its
// natural expiry.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	// injectable clock for expiry tests
	nowFunc func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret:  secret,
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (ti *TokenIssuer) Issue(userID, email, role string) (string, error) {
	now := ti.nowFunc()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	})

	return token.SignedString(ti.secret)
}

func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return ti.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return ti.nowFunc() }),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
