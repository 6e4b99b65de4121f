// Package identity implements the minimal opaque identity service described
// in SPEC_FULL.md §4.9: username/password registration and login backing
// /auth/register and /auth/login. The room engine never depends on this
// package directly; it only ever sees the *uint UserID that a caller already
// authenticated through here.
package identity

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	"github.com/yourusername/quizbattle/internal/domain/repository"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
	"github.com/yourusername/quizbattle/pkg/auth"
)

// Service registers and authenticates users, grounded on this repo's own
// (trimmed) user_repo.go bcrypt conventions and pkg/auth.TokenService.
type Service struct {
	users  repository.UserRepository
	tokens *auth.TokenService
}

// NewService builds an identity Service.
func NewService(users repository.UserRepository, tokens *auth.TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new user with a bcrypt-hashed password and returns a
// session token for immediate login.
func (s *Service) Register(username, password string) (*entity.User, string, error) {
	if len(username) < 3 || len(password) < 6 {
		return nil, "", apperrors.ErrValidation
	}

	if existing, _ := s.users.GetByUsername(username); existing != nil {
		return nil, "", apperrors.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Identity] failed to hash password for %q: %v", username, err)
		return nil, "", err
	}

	user := &entity.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.IssueSessionToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[Identity] registered user %q (id=%d)", user.Username, user.ID)
	return user, token, nil
}

// Login verifies username/password and issues a session token.
func (s *Service) Login(username, password string) (*entity.User, string, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil || user == nil {
		return nil, "", apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrUnauthorized
	}

	token, err := s.tokens.IssueSessionToken(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[Identity] logged in user %q (id=%d)", user.Username, user.ID)
	return user, token, nil
}
