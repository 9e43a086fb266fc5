package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"personachat/internal/auth"
	"personachat/internal/store"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// login failures never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized means the bearer token is missing, invalid, expired,
	// or references a user that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation wraps malformed-input failures; the message carries the
	// field detail.
	ErrValidation = errors.New("invalid input")
)

// AuthService owns registration, login and token resolution over an injected
// store and token service.
type AuthService struct {
	dbStore *store.SQLiteStore
	tokens  *auth.TokenService
}

func NewAuthService(db *store.SQLiteStore, tokens *auth.TokenService) *AuthService {
	return &AuthService{dbStore: db, tokens: tokens}
}

// Register creates a user and returns it together with a fresh session
// token. A missing name defaults to the local part of the email. Duplicate
// emails surface as store.ErrEmailTaken; the pre-check below is only a fast
// path, the store's uniqueness constraint is what actually decides the race.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*store.User, string, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	if existing, err := s.dbStore.GetUserByEmail(ctx, email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", store.ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.dbStore.CreateUser(ctx, email, hash, name)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return redact(user), token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	user, err := s.dbStore.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return redact(user), token, nil
}

// ResolveToken recovers the authenticated user behind a bearer token. Every
// call re-reads the store; a user deleted after token issuance resolves to
// ErrUnauthorized like any bad token.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*store.User, error) {
	userID, ok := s.tokens.Verify(token)
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.dbStore.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return redact(user), nil
}

// SeedDemoUser creates the demo account, or resets its password if it
// already exists. Used by the -seed-demo startup flag.
func (s *AuthService) SeedDemoUser(ctx context.Context, email, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	existing, err := s.dbStore.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("Demo user %s already exists, resetting password", email)
		return s.dbStore.UpdateUserPassword(ctx, existing.ID, hash)
	}

	_, err = s.dbStore.CreateUser(ctx, email, hash, "Demo User")
	if errors.Is(err, store.ErrEmailTaken) {
		// Lost a race with a concurrent registration; the account exists,
		// which is all seeding needs.
		return nil
	}
	return err
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: malformed email address", ErrValidation)
	}
	return nil
}

// redact strips the password hash before a user leaves the service layer.
func redact(user *store.User) *store.User {
	u := *user
	u.PasswordHash = ""
	return &u
}
