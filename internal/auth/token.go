package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is how long an issued session token stays valid. There is no
// revocation; expiry is the only thing that ends a session.
const TokenValidity = 7 * 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenService issues and verifies stateless HS256 session tokens. The
// signing secret is injected at construction and never read from ambient
// state.
type TokenService struct {
	secret   []byte
	validity time.Duration
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenService{secret: []byte(secret), validity: TokenValidity}, nil
}

func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID: userID,
	})
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the embedded user ID.
// Malformed, tampered and expired tokens all report ok=false; callers never
// see an error.
func (s *TokenService) Verify(tokenString string) (string, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}
