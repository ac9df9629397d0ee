package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfapi/shelf/internal/metrics"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/testutil/memstore"
)

const testMediaURL = "http://localhost:8080/media"

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
)

type serviceEnv struct {
	store    *memstore.Store
	media    *memstore.Media
	cache    *memstore.ProductCache
	metrics  *metrics.InMemoryRecorder
	products *ProductService
	collect  *UserProductService
	alice    *model.Identity
	bob      *model.Identity
}

func newServiceEnv(t *testing.T, policy ProductPolicy) *serviceEnv {
	t.Helper()

	ctx := context.Background()
	store := memstore.New()

	alice := &model.User{Email: "alice@example.com", PasswordHash: "x"}
	bob := &model.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	mediaStore := memstore.NewMedia(store, testMediaURL, 1024)
	productCache := memstore.NewProductCache()
	recorder := metrics.NewInMemory()

	return &serviceEnv{
		store:    store,
		media:    mediaStore,
		cache:    productCache,
		metrics:  recorder,
		products: NewProductService(store, mediaStore, productCache, policy, recorder, nil),
		collect:  NewUserProductService(store, mediaStore, recorder),
		alice:    &model.Identity{UserID: alice.ID, TokenID: "tok-alice"},
		bob:      &model.Identity{UserID: bob.ID, TokenID: "tok-bob"},
	}
}

func (e *serviceEnv) createProduct(t *testing.T, owner *model.Identity, name string) *model.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), owner, CreateProductInput{Name: name})
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

func pngUpload() model.Upload {
	return model.Upload{FileName: "image.png", Size: int64(len(pngBytes)), Content: bytes.NewReader(pngBytes)}
}
