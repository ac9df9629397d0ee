package repository

import (
	"context"
	"fmt"

	"github.com/shelfapi/shelf/internal/model"
)

// ListUserProducts returns one page of the products a user has attached,
// ordered by attachment time then product ID, plus the total count.
func (r *Repository) ListUserProducts(ctx context.Context, userID int64, page Page) ([]*model.Product, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_products WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count user products: %w", err)
	}

	if total == 0 || page.Offset() >= total {
		return []*model.Product{}, total, nil
	}

	query := `
		SELECT p.id, p.user_id, p.name, p.description, p.price, p.created_at, p.updated_at
		FROM user_products up
		JOIN products p ON p.id = up.product_id
		WHERE up.user_id = $1
		ORDER BY up.created_at ASC, p.id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// AttachUserProduct associates a product with a user.
// Attaching an existing pair is a no-op. Returns ErrProductNotFound or
// ErrUserNotFound when either side does not exist.
func (r *Repository) AttachUserProduct(ctx context.Context, userID, productID int64) error {
	query := `
		INSERT INTO user_products (user_id, product_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return r.missingSide(ctx, productID)
		}
		return fmt.Errorf("failed to attach product to user: %w", err)
	}

	return nil
}

// DetachUserProduct removes the association between a user and a product.
// It reports whether a row was removed; a missing association is not an error.
func (r *Repository) DetachUserProduct(ctx context.Context, userID, productID int64) (bool, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM user_products WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to detach product from user: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// missingSide works out which foreign key an attach violated.
func (r *Repository) missingSide(ctx context.Context, productID int64) error {
	exists, err := r.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrUserNotFound
}
