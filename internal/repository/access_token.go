package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shelfapi/shelf/internal/model"
)

// Common errors for access token repository operations.
var (
	ErrAccessTokenNotFound = errors.New("access token not found")
)

// CreateAccessToken inserts a new access token record.
func (r *Repository) CreateAccessToken(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, name, revoked, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.Name,
		token.Revoked,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create access token: %w", err)
	}

	return nil
}

// GetAccessToken retrieves an access token record by its ID (the token's jti).
func (r *Repository) GetAccessToken(ctx context.Context, id string) (*model.AccessToken, error) {
	query := `
		SELECT id, user_id, name, revoked, created_at, expires_at
		FROM access_tokens
		WHERE id = $1
	`

	var token model.AccessToken
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.Name,
		&token.Revoked,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccessTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &token, nil
}

// RevokeAccessToken marks an access token as revoked.
// Revoking an already revoked token succeeds.
func (r *Repository) RevokeAccessToken(ctx context.Context, id string) error {
	query := `
		UPDATE access_tokens
		SET revoked = TRUE
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccessTokenNotFound
	}

	return nil
}

// DeleteExpiredAccessTokens removes tokens past their expiry and returns
// how many rows were deleted.
func (r *Repository) DeleteExpiredAccessTokens(ctx context.Context) (int64, error) {
	query := `DELETE FROM access_tokens WHERE expires_at < NOW()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired access tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
