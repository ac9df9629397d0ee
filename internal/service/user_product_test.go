package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProductService_AttachAndList(t *testing.T) {
	env := newServiceEnv(t, ProductPolicy{})
	ctx := context.Background()

	first := env.createProduct(t, env.bob, "First")
	second := env.createProduct(t, env.bob, "Second")
	env.createProduct(t, env.alice, "Owned but not attached")

	require.NoError(t, env.collect.Attach(ctx, env.alice, first.ID))
	require.NoError(t, env.collect.Attach(ctx, env.alice, second.ID))

	page, err := env.collect.List(ctx, env.alice, 1)
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, first.ID, page.Products[0].ID)
	assert.Equal(t, second.ID, page.Products[1].ID)

	others, err := env.collect.List(ctx, env.bob, 1)
	require.NoError(t, err)
	assert.Empty(t, others.Products)
	assert.Zero(t, others.Total)
}

func TestUserProductService_AttachTwiceKeepsOneRow(t *testing.T) {
	env := newServiceEnv(t, ProductPolicy{})
	ctx := context.Background()
	p := env.createProduct(t, env.alice, "Twice")

	require.NoError(t, env.collect.Attach(ctx, env.alice, p.ID))
	require.NoError(t, env.collect.Attach(ctx, env.alice, p.ID))

	assert.Equal(t, 1, env.store.AssociationCount(env.alice.UserID, p.ID))
}

func TestUserProductService_AttachErrors(t *testing.T) {
	env := newServiceEnv(t, ProductPolicy{})
	ctx := context.Background()

	assert.ErrorIs(t, env.collect.Attach(ctx, env.alice, 0), ErrValidation)
	assert.ErrorIs(t, env.collect.Attach(ctx, env.alice, -3), ErrValidation)
	assert.ErrorIs(t, env.collect.Attach(ctx, env.alice, 999), ErrNotFound)
	assert.ErrorIs(t, env.collect.Attach(ctx, nil, 1), ErrUnauthenticated)
	assert.Zero(t, env.metrics.Snapshot().UserProductsAttached)
}

func TestUserProductService_DetachIsIdempotent(t *testing.T) {
	env := newServiceEnv(t, ProductPolicy{})
	ctx := context.Background()
	p := env.createProduct(t, env.alice, "Detachable")

	// Nothing attached yet, and an unknown product.
	require.NoError(t, env.collect.Detach(ctx, env.alice, p.ID))
	require.NoError(t, env.collect.Detach(ctx, env.alice, 999))

	require.NoError(t, env.collect.Attach(ctx, env.alice, p.ID))
	require.NoError(t, env.collect.Detach(ctx, env.alice, p.ID))
	assert.Zero(t, env.store.AssociationCount(env.alice.UserID, p.ID))
	assert.Equal(t, uint64(1), env.metrics.Snapshot().UserProductsDetached)
}

func TestUserProductService_ListResolvesImages(t *testing.T) {
	env := newServiceEnv(t, ProductPolicy{})
	ctx := context.Background()
	p := env.createProduct(t, env.alice, "Pictured")

	url, err := env.products.AttachImage(ctx, env.alice, p.ID, pngUpload())
	require.NoError(t, err)
	require.NoError(t, env.collect.Attach(ctx, env.alice, p.ID))

	page, err := env.collect.List(ctx, env.alice, 1)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.NotNil(t, page.Products[0].Image)
	assert.Equal(t, url, *page.Products[0].Image)
}
