package auth

import (
	"context"
	"errors"
	"time"

	"outreach-platform/internal/user"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service exchanges credentials for token pairs.
type Service struct {
	users   user.Repository
	manager *Manager
	clock   func() time.Time
}

func NewService(users user.Repository, manager *Manager) *Service {
	return &Service{users: users, manager: manager, clock: time.Now}
}

// Login verifies the stored bcrypt hash and issues a token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return user.User{}, TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.manager.IssuePair(s.clock(), u.ID, u.Email, u.Role)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. The role is re-read
// from the user record, not trusted from the old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.manager.Verify(refreshToken, TokenTypeRefresh, s.clock())
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	return s.manager.IssuePair(s.clock(), u.ID, u.Email, u.Role)
}

// HashPassword is the single place bcrypt cost is chosen.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
