// Package media stores uploaded product files on local disk and records
// them in the media table.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/shelfapi/shelf/internal/model"
)

// Upload errors.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrUnsupportedType = errors.New("file type is not supported")
)

// sniffLen is how many leading bytes are used to detect the content type.
const sniffLen = 512

// AllowedImageTypes maps accepted image MIME types to file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Repository is the persistence the store records media in.
type Repository interface {
	CreateMedia(ctx context.Context, media *model.Media) error
	LatestMediaURL(ctx context.Context, productID int64, collection string) (*string, error)
	LatestMediaURLs(ctx context.Context, productIDs []int64, collection string) (map[int64]string, error)
	ListMediaPaths(ctx context.Context, productID int64) ([]string, error)
}

// LocalStoreConfig holds configuration for a LocalStore.
type LocalStoreConfig struct {
	Root    string // Directory files are written under
	BaseURL string // Public URL prefix Root is served at
	MaxSize int64  // Upper bound on a single file, in bytes
	Logger  *slog.Logger
}

// LocalStore keeps product images on the local filesystem.
type LocalStore struct {
	repo    Repository
	root    string
	baseURL string
	maxSize int64
	logger  *slog.Logger
}

// NewLocalStore creates a LocalStore, creating the root directory if needed.
func NewLocalStore(repo Repository, cfg LocalStoreConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalStore{
		repo:    repo,
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		maxSize: cfg.MaxSize,
		logger:  logger,
	}, nil
}

// Root returns the directory files are written under.
func (s *LocalStore) Root() string {
	return s.root
}

// Ping reports whether the media root is still a usable directory.
func (s *LocalStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root %s is not a directory", s.root)
	}
	return nil
}

// Store writes an image for a product into the images collection and returns its URL.
// The newest stored image becomes the product's image; earlier ones are kept.
func (s *LocalStore) Store(ctx context.Context, productID int64, upload model.Upload) (string, error) {
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	head = head[:n]

	mimeType := DetectImageType(head)
	ext, ok := AllowedImageTypes[mimeType]
	if !ok {
		return "", ErrUnsupportedType
	}

	relPath := path.Join("products", strconv.FormatInt(productID, 10), ulid.Make().String()+ext)
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	size, err := s.writeFile(fullPath, io.MultiReader(bytes.NewReader(head), upload.Content))
	if err != nil {
		return "", err
	}

	record := &model.Media{
		ProductID:  productID,
		Collection: model.MediaCollectionImages,
		FileName:   sanitizeFileName(upload.FileName),
		MimeType:   mimeType,
		Size:       size,
		Path:       relPath,
		URL:        s.baseURL + "/" + relPath,
	}

	if err := s.repo.CreateMedia(ctx, record); err != nil {
		s.remove(relPath)
		return "", err
	}

	return record.URL, nil
}

// LatestURL returns the URL of the product's newest image, or nil.
func (s *LocalStore) LatestURL(ctx context.Context, productID int64) (*string, error) {
	return s.repo.LatestMediaURL(ctx, productID, model.MediaCollectionImages)
}

// LatestURLs returns the newest image URL for each product that has one.
func (s *LocalStore) LatestURLs(ctx context.Context, productIDs []int64) (map[int64]string, error) {
	return s.repo.LatestMediaURLs(ctx, productIDs, model.MediaCollectionImages)
}

// Files returns the storage paths of every file recorded for a product.
func (s *LocalStore) Files(ctx context.Context, productID int64) ([]string, error) {
	return s.repo.ListMediaPaths(ctx, productID)
}

// RemoveFiles deletes the given files of a product once its media records
// are gone. Removal is best-effort; failures are logged.
func (s *LocalStore) RemoveFiles(productID int64, paths []string) {
	for _, p := range paths {
		s.remove(p)
	}

	// Drop the product directory if it is now empty.
	_ = os.Remove(filepath.Join(s.root, "products", strconv.FormatInt(productID, 10)))
}

func (s *LocalStore) writeFile(fullPath string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create media file: %w", err)
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = 1<<63 - 2
	}

	size, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	switch {
	case err != nil:
		_ = os.Remove(fullPath)
		return 0, fmt.Errorf("write media file: %w", err)
	case closeErr != nil:
		_ = os.Remove(fullPath)
		return 0, fmt.Errorf("close media file: %w", closeErr)
	case size > limit:
		_ = os.Remove(fullPath)
		return 0, ErrFileTooLarge
	}

	return size, nil
}

func (s *LocalStore) remove(relPath string) {
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove media file",
			slog.String("path", relPath),
			slog.String("error", err.Error()),
		)
	}
}

// DetectImageType sniffs the MIME type of the leading bytes of a file.
func DetectImageType(head []byte) string {
	mimeType := http.DetectContentType(head)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}

// sanitizeFileName keeps only the base name of a client supplied file name.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
