package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/metrics"
	"github.com/shelfapi/shelf/internal/model"
)

// AuthService exchanges credentials for bearer tokens.
type AuthService struct {
	provider TokenAuthority
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider TokenAuthority, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		provider: provider,
		metrics:  recorder,
	}
}

// AuthenticateInput defines input for requesting a token.
type AuthenticateInput struct {
	Email    string
	Password string
}

// Authenticate validates the credentials and issues a new token named after
// the email. Every successful call issues a distinct token.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (string, error) {
	email := strings.TrimSpace(input.Email)

	verr := &ValidationError{}
	if email == "" {
		verr.Add("email", "The email field is required.")
	}
	if input.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if err := verr.orNil(); err != nil {
		return "", err
	}

	userID, err := s.provider.ValidateCredentials(ctx, email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.IncLogin(metrics.LoginFailed)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("validate credentials: %w", err)
	}

	token, err := s.provider.IssueToken(ctx, userID, email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.LoginSuccess)
	return token, nil
}

// Revoke invalidates the token the caller authenticated with.
func (s *AuthService) Revoke(ctx context.Context, identity *model.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	if err := s.provider.RevokeToken(ctx, identity.TokenID); err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}
