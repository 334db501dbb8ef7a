package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements signup, login and bearer authentication.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	cost   int
}

// NewService creates an identity service.
func NewService(users UserStore, tokens *TokenIssuer) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// Signup creates an account. The first account becomes an admin.
// Signing up with an email that already exists returns that account
// unchanged; the password is not updated.
func (s *Service) Signup(ctx context.Context, email, password string) (*Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, created, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("user created", "user_id", user.ID, "role", user.Role)
	}
	return user.Principal(), nil
}

// Login checks credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Principal())
}

// Authenticate verifies a bearer token and loads its user. The role is
// read from the users table, so a demoted admin loses access immediately.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	claims, err := s.tokens.Verify(bearer)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
