//go:build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelfapi/shelf/internal/model"
)

func TestIntegrationAccessTokenRepository_Lifecycle(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo)
	now := time.Now().UTC().Truncate(time.Second)
	token := &model.AccessToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		Name:      user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	if err := repo.CreateAccessToken(ctx, token); err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}

	got, err := repo.GetAccessToken(ctx, token.ID)
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if got.UserID != user.ID || got.Name != user.Email {
		t.Errorf("unexpected token row: %+v", got)
	}
	if !got.IsActive(now) {
		t.Error("fresh token should be active")
	}

	if err := repo.RevokeAccessToken(ctx, token.ID); err != nil {
		t.Fatalf("RevokeAccessToken failed: %v", err)
	}

	got, err = repo.GetAccessToken(ctx, token.ID)
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if got.IsActive(now) {
		t.Error("revoked token should not be active")
	}
}

func TestIntegrationAccessTokenRepository_NotFound(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	if _, err := repo.GetAccessToken(ctx, "missing"); !errors.Is(err, ErrAccessTokenNotFound) {
		t.Errorf("Expected ErrAccessTokenNotFound, got: %v", err)
	}
	if err := repo.RevokeAccessToken(ctx, "missing"); !errors.Is(err, ErrAccessTokenNotFound) {
		t.Errorf("Expected ErrAccessTokenNotFound, got: %v", err)
	}
}

func TestIntegrationAccessTokenRepository_DeleteExpired(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo)
	now := time.Now().UTC()

	expired := &model.AccessToken{ID: ulid.Make().String(), UserID: user.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	active := &model.AccessToken{ID: ulid.Make().String(), UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	for _, tok := range []*model.AccessToken{expired, active} {
		if err := repo.CreateAccessToken(ctx, tok); err != nil {
			t.Fatalf("CreateAccessToken failed: %v", err)
		}
	}

	n, err := repo.DeleteExpiredAccessTokens(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredAccessTokens failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := repo.GetAccessToken(ctx, active.ID); err != nil {
		t.Errorf("active token should survive: %v", err)
	}
}
