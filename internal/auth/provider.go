package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

var (
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenRevoked indicates a token whose access token row is revoked or expired.
	ErrTokenRevoked = errors.New("token revoked")
)

// CredentialStore is the persistence the Provider needs.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateAccessToken(ctx context.Context, token *model.AccessToken) error
	GetAccessToken(ctx context.Context, id string) (*model.AccessToken, error)
	RevokeAccessToken(ctx context.Context, id string) error
}

// TokenCache caches verified access tokens by ID.
type TokenCache interface {
	GetAccessToken(ctx context.Context, id string) (*model.AccessToken, error)
	SetAccessToken(ctx context.Context, token *model.AccessToken) error
	DeleteAccessToken(ctx context.Context, id string) error
}

// Provider validates credentials and issues and verifies bearer tokens.
type Provider struct {
	store  CredentialStore
	cache  TokenCache
	tokens *TokenIssuer
	logger *slog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewProvider creates a Provider. cache may be nil.
func NewProvider(store CredentialStore, cache TokenCache, tokens *TokenIssuer, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		store:  store,
		cache:  cache,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// ValidateCredentials returns the ID of the user matching email and password.
// Unknown emails still pay for one hash verification so response timing
// does not reveal which accounts exist.
func (p *Provider) ValidateCredentials(ctx context.Context, email, password string) (int64, error) {
	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = VerifyPassword(password, p.dummy())
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	match, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		p.logger.Error("stored password hash is unreadable",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return 0, ErrInvalidCredentials
	}
	if !match {
		return 0, ErrInvalidCredentials
	}
	if NeedsRehash(user.PasswordHash) {
		p.logger.Info("password hash uses outdated parameters", slog.Int64("user_id", user.ID))
	}

	return user.ID, nil
}

// IssueToken signs a new token for userID and persists its access token row.
// name labels the token, usually with the email it was requested for.
func (p *Provider) IssueToken(ctx context.Context, userID int64, name string) (string, error) {
	issued, err := p.tokens.Issue(userID)
	if err != nil {
		return "", err
	}

	record := &model.AccessToken{
		ID:        issued.ID,
		UserID:    userID,
		Name:      name,
		CreatedAt: issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := p.store.CreateAccessToken(ctx, record); err != nil {
		return "", fmt.Errorf("persist access token: %w", err)
	}

	return issued.Token, nil
}

// VerifyToken checks the token signature, then that its access token row is
// still active, and returns the caller identity.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	record := p.cached(ctx, claims.ID)
	if record == nil {
		record, err = p.store.GetAccessToken(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, repository.ErrAccessTokenNotFound) {
				return nil, ErrTokenRevoked
			}
			return nil, fmt.Errorf("lookup access token: %w", err)
		}
		if record.IsActive(p.now()) && p.cache != nil {
			if err := p.cache.SetAccessToken(ctx, record); err != nil {
				p.logger.Warn("failed to cache access token",
					slog.String("token_id", record.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if !record.IsActive(p.now()) || record.UserID != userID {
		return nil, ErrTokenRevoked
	}

	return &model.Identity{UserID: record.UserID, TokenID: record.ID}, nil
}

// RevokeToken marks an access token as revoked and evicts it from the cache.
func (p *Provider) RevokeToken(ctx context.Context, tokenID string) error {
	if err := p.store.RevokeAccessToken(ctx, tokenID); err != nil {
		if errors.Is(err, repository.ErrAccessTokenNotFound) {
			return ErrTokenRevoked
		}
		return fmt.Errorf("revoke access token: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.DeleteAccessToken(ctx, tokenID); err != nil {
			p.logger.Warn("failed to evict access token from cache",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func (p *Provider) cached(ctx context.Context, id string) *model.AccessToken {
	if p.cache == nil {
		return nil
	}
	record, err := p.cache.GetAccessToken(ctx, id)
	if err != nil {
		return nil
	}
	return record
}

func (p *Provider) dummy() string {
	p.dummyOnce.Do(func() {
		hash, err := HashPassword("not-a-real-password")
		if err != nil {
			p.logger.Error("failed to build dummy password hash", slog.String("error", err.Error()))
			return
		}
		p.dummyHash = hash
	})
	return p.dummyHash
}
