package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shelfapi/shelf/internal/media"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/repository"
)

// Media is an in-memory media store. It applies the same content checks
// as the local store and keeps every upload per product.
type Media struct {
	mu       sync.Mutex
	store    *Store
	baseURL  string
	maxSize  int64
	uploads  map[int64][]string
	counter  int
	FilesErr error
}

// NewMedia creates a Media bound to store for product existence checks.
func NewMedia(store *Store, baseURL string, maxSize int64) *Media {
	return &Media{
		store:   store,
		baseURL: baseURL,
		maxSize: maxSize,
		uploads: make(map[int64][]string),
	}
}

// Store validates and records an upload, returning its URL.
func (m *Media) Store(ctx context.Context, productID int64, upload model.Upload) (string, error) {
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", media.ErrEmptyFile
	}
	if m.maxSize > 0 && int64(len(data)) > m.maxSize {
		return "", media.ErrFileTooLarge
	}
	ext, ok := media.AllowedImageTypes[media.DetectImageType(data)]
	if !ok {
		return "", media.ErrUnsupportedType
	}

	exists, _ := m.store.ProductExists(ctx, productID)
	if !exists {
		return "", repository.ErrProductNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	url := fmt.Sprintf("%s/products/%d/%04d%s", m.baseURL, productID, m.counter, ext)
	m.uploads[productID] = append(m.uploads[productID], url)
	return url, nil
}

// LatestURL returns the newest upload URL for a product.
func (m *Media) LatestURL(_ context.Context, productID int64) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := m.uploads[productID]
	if len(urls) == 0 {
		return nil, nil
	}
	latest := urls[len(urls)-1]
	return &latest, nil
}

// LatestURLs returns the newest upload URL for each product that has one.
func (m *Media) LatestURLs(_ context.Context, productIDs []int64) (map[int64]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]string)
	for _, id := range productIDs {
		if urls := m.uploads[id]; len(urls) > 0 {
			out[id] = urls[len(urls)-1]
		}
	}
	return out, nil
}

// Files returns the upload URLs of a product.
func (m *Media) Files(_ context.Context, productID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FilesErr != nil {
		return nil, m.FilesErr
	}
	return append([]string(nil), m.uploads[productID]...), nil
}

// RemoveFiles forgets every upload of a product.
func (m *Media) RemoveFiles(productID int64, _ []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploads, productID)
}

// Count returns how many uploads a product has.
func (m *Media) Count(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads[productID])
}
