package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/shelfapi/shelf/internal/cache"
	"github.com/shelfapi/shelf/internal/media"
	"github.com/shelfapi/shelf/internal/metrics"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

// Product field limits.
const (
	MaxProductNameLength        = 255
	MaxProductDescriptionLength = 65535
)

// MaxProductPrice is the largest price a NUMERIC(10,2) column holds.
var MaxProductPrice = decimal.RequireFromString("99999999.99")

// ProductPolicy configures who may mutate a product.
type ProductPolicy struct {
	// OwnerOnly restricts update, delete and image attach to the product's owner.
	// Products without an owner stay mutable by anyone.
	OwnerOnly bool
}

// ProductService handles product business logic.
type ProductService struct {
	store   ProductStore
	media   MediaStore
	cache   ProductCache
	policy  ProductPolicy
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewProductService creates a new ProductService. productCache may be nil.
func NewProductService(store ProductStore, mediaStore MediaStore, productCache ProductCache, policy ProductPolicy, recorder metrics.Recorder, logger *slog.Logger) *ProductService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		store:   store,
		media:   mediaStore,
		cache:   productCache,
		policy:  policy,
		metrics: recorder,
		logger:  logger,
	}
}

// CreateProductInput defines input for creating a product.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       *decimal.Decimal
}

// List returns one page of all products in creation order.
func (s *ProductService) List(ctx context.Context, identity *model.Identity, page int) (*ProductPage, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	p := repository.NewPage(page, repository.DefaultPageSize)
	products, total, err := s.store.ListProducts(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if err := s.resolveImages(ctx, products); err != nil {
		return nil, err
	}

	return &ProductPage{
		Products: products,
		Page:     p.Number,
		PerPage:  p.Size,
		Total:    total,
	}, nil
}

// Get returns a single product with its image resolved.
func (s *ProductService) Get(ctx context.Context, identity *model.Identity, id int64) (*model.Product, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	if product := s.cached(ctx, id); product != nil {
		return product, nil
	}
	if s.isNegativelyCached(ctx, id) {
		return nil, ErrNotFound
	}

	product, err := s.fetch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) && s.cache != nil {
			_ = s.cache.SetNegativeCache(ctx, id)
		}
		return nil, err
	}

	if err := s.resolveImage(ctx, product); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("failed to cache product",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return product, nil
}

// Create stores a new product owned by the caller.
func (s *ProductService) Create(ctx context.Context, identity *model.Identity, input CreateProductInput) (*model.Product, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	patch := model.ProductPatch{Name: &name, Description: input.Description, Price: input.Price}
	if err := validatePatch(patch, true); err != nil {
		return nil, err
	}

	ownerID := identity.UserID
	product := &model.Product{
		UserID: &ownerID,
		Price:  decimal.Zero,
	}
	patch.Apply(product)
	product.Price = product.Price.Round(2)

	if err := s.store.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	// A lookup of this ID before it existed may have left a negative entry.
	s.invalidate(ctx, product.ID)
	s.metrics.IncProductCreated()

	return product, nil
}

// Update merges the provided fields onto an existing product.
// Absent fields keep their current values.
func (s *ProductService) Update(ctx context.Context, identity *model.Identity, id int64, patch model.ProductPatch) (*model.Product, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validatePatch(patch, false); err != nil {
		return nil, err
	}

	product, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, product); err != nil {
		return nil, err
	}

	if !patch.IsEmpty() {
		patch.Apply(product)
		product.Price = product.Price.Round(2)

		if err := s.store.UpdateProduct(ctx, product); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("update product: %w", err)
		}

		s.invalidate(ctx, id)
		s.metrics.IncProductUpdated()
	}

	if err := s.resolveImage(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete permanently removes a product. Its associations and media records
// go with it; stored files are removed best-effort once the delete succeeded.
func (s *ProductService) Delete(ctx context.Context, identity *model.Identity, id int64) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	product, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(identity, product); err != nil {
		return err
	}

	files, err := s.media.Files(ctx, id)
	if err != nil {
		s.logger.Warn("failed to list product media",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.tombstone(ctx, id)
	s.media.RemoveFiles(id, files)
	s.metrics.IncProductDeleted()

	return nil
}

// AttachImage stores an image for a product. The newest image becomes the
// product's image; earlier uploads are kept.
func (s *ProductService) AttachImage(ctx context.Context, identity *model.Identity, id int64, upload model.Upload) (string, error) {
	if err := requireIdentity(identity); err != nil {
		return "", err
	}
	if upload.Content == nil {
		return "", NewValidationError("image", "The image field is required.")
	}

	product, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.authorize(identity, product); err != nil {
		return "", err
	}

	url, err := s.media.Store(ctx, id, upload)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrEmptyFile):
			return "", NewValidationError("image", "The image field is required.")
		case errors.Is(err, media.ErrUnsupportedType):
			return "", NewValidationError("image", "The image must be a file of type: jpeg, png, gif, webp.")
		case errors.Is(err, media.ErrFileTooLarge):
			return "", NewValidationError("image", "The image is too large.")
		case errors.Is(err, repository.ErrProductNotFound):
			return "", ErrNotFound
		}
		return "", fmt.Errorf("store image: %w", err)
	}

	s.invalidate(ctx, id)
	s.metrics.IncImageAttached(upload.Size)

	return url, nil
}

// fetch loads a product from the store, bypassing the cache.
func (s *ProductService) fetch(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// authorize applies the ownership policy before any mutation.
func (s *ProductService) authorize(identity *model.Identity, product *model.Product) error {
	if !s.policy.OwnerOnly || !product.HasOwner() {
		return nil
	}
	if !product.IsOwnedBy(identity.UserID) {
		return ErrForbidden
	}
	return nil
}

func (s *ProductService) cached(ctx context.Context, id int64) *model.Product {
	if s.cache == nil {
		return nil
	}

	product, err := s.cache.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("product cache lookup failed",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.IncProductCacheMiss()
		return nil
	}

	s.metrics.IncProductCacheHit()
	return product
}

func (s *ProductService) isNegativelyCached(ctx context.Context, id int64) bool {
	if s.cache == nil {
		return false
	}
	neg, err := s.cache.IsNegativelyCached(ctx, id)
	return err == nil && neg
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteProduct(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate cached product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// tombstone marks a deleted product missing so in-flight reads cannot re-cache it.
func (s *ProductService) tombstone(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.TombstoneProduct(ctx, id); err != nil {
		s.logger.Warn("failed to tombstone cached product",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ProductService) resolveImage(ctx context.Context, product *model.Product) error {
	url, err := s.media.LatestURL(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("resolve product image: %w", err)
	}
	product.Image = url
	return nil
}

func (s *ProductService) resolveImages(ctx context.Context, products []*model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	urls, err := s.media.LatestURLs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve product images: %w", err)
	}

	for _, p := range products {
		if url, ok := urls[p.ID]; ok {
			p.Image = &url
		}
	}
	return nil
}

// validatePatch checks product field rules. On create the name is required.
func validatePatch(patch model.ProductPatch, creating bool) error {
	verr := &ValidationError{}

	if patch.Name != nil {
		switch {
		case *patch.Name == "":
			verr.Add("name", "The name field is required.")
		case utf8.RuneCountInString(*patch.Name) > MaxProductNameLength:
			verr.Add("name", fmt.Sprintf("The name may not be greater than %d characters.", MaxProductNameLength))
		}
	} else if creating {
		verr.Add("name", "The name field is required.")
	}

	if patch.Description != nil && utf8.RuneCountInString(*patch.Description) > MaxProductDescriptionLength {
		verr.Add("description", fmt.Sprintf("The description may not be greater than %d characters.", MaxProductDescriptionLength))
	}

	if patch.Price != nil {
		switch {
		case patch.Price.IsNegative():
			verr.Add("price", "The price must be at least 0.")
		case patch.Price.GreaterThan(MaxProductPrice):
			verr.Add("price", "The price may not be greater than "+MaxProductPrice.String()+".")
		}
	}

	return verr.orNil()
}
