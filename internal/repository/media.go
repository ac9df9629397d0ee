package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/shelfapi/shelf/internal/model"
)

// CreateMedia inserts a media record and sets its generated ID and created_at.
func (r *Repository) CreateMedia(ctx context.Context, media *model.Media) error {
	query := `
		INSERT INTO media (product_id, collection, file_name, mime_type, size, path, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		media.ProductID,
		media.Collection,
		media.FileName,
		media.MimeType,
		media.Size,
		media.Path,
		media.URL,
	).Scan(&media.ID, &media.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to create media: %w", err)
	}

	return nil
}

// LatestMediaURL returns the URL of the most recent media in a collection
// for a product, or nil when the product has none.
func (r *Repository) LatestMediaURL(ctx context.Context, productID int64, collection string) (*string, error) {
	urls, err := r.LatestMediaURLs(ctx, []int64{productID}, collection)
	if err != nil {
		return nil, err
	}

	if url, ok := urls[productID]; ok {
		return &url, nil
	}
	return nil, nil
}

// LatestMediaURLs returns the most recent media URL in a collection for each
// of the given products. Products without media are absent from the map.
func (r *Repository) LatestMediaURLs(ctx context.Context, productIDs []int64, collection string) (map[int64]string, error) {
	urls := make(map[int64]string, len(productIDs))
	if len(productIDs) == 0 {
		return urls, nil
	}

	query := `
		SELECT DISTINCT ON (product_id) product_id, url
		FROM media
		WHERE product_id = ANY($1) AND collection = $2
		ORDER BY product_id, id DESC
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(productIDs), collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			url       string
		)
		if err := rows.Scan(&productID, &url); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		urls[productID] = url
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media: %w", err)
	}

	return urls, nil
}

// ListMediaPaths returns the storage paths of every media record of a product.
func (r *Repository) ListMediaPaths(ctx context.Context, productID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT path FROM media WHERE product_id = $1 ORDER BY id`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list media paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan media path: %w", err)
		}
		paths = append(paths, path)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media paths: %w", err)
	}

	return paths, nil
}
