//go:build integration

package repository

import (
	"errors"
	"testing"
)

// ============================================================================
// User Product Repository Integration Tests
// ============================================================================

func TestIntegrationUserProductRepository_AttachIsIdempotent(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo)
	product := mustCreateProduct(t, ctx, repo, "Widget", nil)

	for i := 0; i < 2; i++ {
		if err := repo.AttachUserProduct(ctx, user.ID, product.ID); err != nil {
			t.Fatalf("AttachUserProduct #%d failed: %v", i+1, err)
		}
	}

	var count int
	err := repo.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM user_products WHERE user_id = $1 AND product_id = $2`,
		user.ID, product.ID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one association row, got %d", count)
	}
}

func TestIntegrationUserProductRepository_AttachMissingProduct(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo)

	err := repo.AttachUserProduct(ctx, user.ID, 999999)
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got: %v", err)
	}
}

func TestIntegrationUserProductRepository_ListScopedToUser(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	alice := mustCreateUser(t, ctx, repo)
	bob := mustCreateUser(t, ctx, repo)
	first := mustCreateProduct(t, ctx, repo, "First", nil)
	second := mustCreateProduct(t, ctx, repo, "Second", &bob.ID)
	mustCreateProduct(t, ctx, repo, "Unattached", &alice.ID)

	for _, id := range []int64{first.ID, second.ID} {
		if err := repo.AttachUserProduct(ctx, alice.ID, id); err != nil {
			t.Fatalf("AttachUserProduct failed: %v", err)
		}
	}

	products, total, err := repo.ListUserProducts(ctx, alice.ID, NewPage(1, DefaultPageSize))
	if err != nil {
		t.Fatalf("ListUserProducts failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("expected 2 attached products, got total=%d len=%d", total, len(products))
	}
	if products[0].ID != first.ID || products[1].ID != second.ID {
		t.Errorf("unexpected order: %d, %d", products[0].ID, products[1].ID)
	}

	bobs, total, err := repo.ListUserProducts(ctx, bob.ID, NewPage(1, DefaultPageSize))
	if err != nil {
		t.Fatalf("ListUserProducts (bob) failed: %v", err)
	}
	if total != 0 || len(bobs) != 0 {
		t.Errorf("bob attached nothing, got total=%d len=%d", total, len(bobs))
	}
}

func TestIntegrationUserProductRepository_Detach(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	user := mustCreateUser(t, ctx, repo)
	product := mustCreateProduct(t, ctx, repo, "Widget", nil)

	if err := repo.AttachUserProduct(ctx, user.ID, product.ID); err != nil {
		t.Fatalf("AttachUserProduct failed: %v", err)
	}

	removed, err := repo.DetachUserProduct(ctx, user.ID, product.ID)
	if err != nil {
		t.Fatalf("DetachUserProduct failed: %v", err)
	}
	if !removed {
		t.Error("first detach should remove the row")
	}

	removed, err = repo.DetachUserProduct(ctx, user.ID, product.ID)
	if err != nil {
		t.Fatalf("second DetachUserProduct should not fail: %v", err)
	}
	if removed {
		t.Error("second detach should remove nothing")
	}
}
