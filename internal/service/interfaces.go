package service

import (
	"context"

	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

// ProductStore persists products.
type ProductStore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, page repository.Page) ([]*model.Product, int, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// UserProductStore persists user to product associations.
type UserProductStore interface {
	ProductExists(ctx context.Context, id int64) (bool, error)
	ListUserProducts(ctx context.Context, userID int64, page repository.Page) ([]*model.Product, int, error)
	AttachUserProduct(ctx context.Context, userID, productID int64) error
	DetachUserProduct(ctx context.Context, userID, productID int64) (bool, error)
}

// AuthProvider validates credentials and issues and verifies bearer tokens.
type AuthProvider interface {
	ValidateCredentials(ctx context.Context, email, password string) (int64, error)
	IssueToken(ctx context.Context, userID int64, name string) (string, error)
	VerifyToken(ctx context.Context, token string) (*model.Identity, error)
}

// TokenAuthority is an AuthProvider that can also revoke issued tokens.
type TokenAuthority interface {
	AuthProvider
	RevokeToken(ctx context.Context, tokenID string) error
}

// MediaStore keeps uploaded product images.
type MediaStore interface {
	Store(ctx context.Context, productID int64, upload model.Upload) (string, error)
	LatestURL(ctx context.Context, productID int64) (*string, error)
	LatestURLs(ctx context.Context, productIDs []int64) (map[int64]string, error)
	Files(ctx context.Context, productID int64) ([]string, error)
	RemoveFiles(productID int64, paths []string)
}

// ProductCache caches resolved products, including negative lookups.
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	SetProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	IsNegativelyCached(ctx context.Context, id int64) (bool, error)
	SetNegativeCache(ctx context.Context, id int64) error
	TombstoneProduct(ctx context.Context, id int64) error
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []*model.Product
	Page     int
	PerPage  int
	Total    int
}

// requireIdentity rejects calls made without an authenticated caller.
func requireIdentity(identity *model.Identity) error {
	if identity == nil || identity.UserID <= 0 {
		return ErrUnauthenticated
	}
	return nil
}
