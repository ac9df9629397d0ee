package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelfapi/shelf/internal/metrics"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

// UserProductService manages the products a user has added to their collection.
type UserProductService struct {
	store   UserProductStore
	media   MediaStore
	metrics metrics.Recorder
}

// NewUserProductService creates a new UserProductService.
func NewUserProductService(store UserProductStore, mediaStore MediaStore, recorder metrics.Recorder) *UserProductService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserProductService{
		store:   store,
		media:   mediaStore,
		metrics: recorder,
	}
}

// List returns one page of the caller's attached products.
// Products the caller owns but never attached are not included.
func (s *UserProductService) List(ctx context.Context, identity *model.Identity, page int) (*ProductPage, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	p := repository.NewPage(page, repository.DefaultPageSize)
	products, total, err := s.store.ListUserProducts(ctx, identity.UserID, p)
	if err != nil {
		return nil, fmt.Errorf("list user products: %w", err)
	}

	if len(products) > 0 {
		ids := make([]int64, len(products))
		for i, product := range products {
			ids[i] = product.ID
		}
		urls, err := s.media.LatestURLs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve product images: %w", err)
		}
		for _, product := range products {
			if url, ok := urls[product.ID]; ok {
				product.Image = &url
			}
		}
	}

	return &ProductPage{
		Products: products,
		Page:     p.Number,
		PerPage:  p.Size,
		Total:    total,
	}, nil
}

// Attach adds a product to the caller's collection.
// Attaching a product twice leaves a single association.
func (s *UserProductService) Attach(ctx context.Context, identity *model.Identity, productID int64) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if productID <= 0 {
		return NewValidationError("product_id", "The product id field is required.")
	}

	exists, err := s.store.ProductExists(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.store.AttachUserProduct(ctx, identity.UserID, productID); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return ErrNotFound
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrUnauthenticated
		}
		return fmt.Errorf("attach product: %w", err)
	}

	s.metrics.IncUserProductAttached()
	return nil
}

// Detach removes a product from the caller's collection.
// Detaching a product that is not attached succeeds.
func (s *UserProductService) Detach(ctx context.Context, identity *model.Identity, productID int64) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	removed, err := s.store.DetachUserProduct(ctx, identity.UserID, productID)
	if err != nil {
		return fmt.Errorf("detach product: %w", err)
	}

	if removed {
		s.metrics.IncUserProductDetached()
	}
	return nil
}
