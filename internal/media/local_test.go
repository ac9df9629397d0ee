package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapi/shelf/internal/model"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

type fakeRepo struct {
	mu        sync.Mutex
	media     []*model.Media
	createErr error
}

func (r *fakeRepo) CreateMedia(_ context.Context, m *model.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	m.ID = int64(len(r.media) + 1)
	r.media = append(r.media, m)
	return nil
}

func (r *fakeRepo) LatestMediaURL(ctx context.Context, productID int64, collection string) (*string, error) {
	urls, _ := r.LatestMediaURLs(ctx, []int64{productID}, collection)
	if u, ok := urls[productID]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *fakeRepo) LatestMediaURLs(_ context.Context, ids []int64, collection string) (map[int64]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]string)
	for _, id := range ids {
		for _, m := range r.media {
			if m.ProductID == id && m.Collection == collection {
				out[id] = m.URL
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) ListMediaPaths(_ context.Context, productID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for _, m := range r.media {
		if m.ProductID == productID {
			paths = append(paths, m.Path)
		}
	}
	return paths, nil
}

func newTestStore(t *testing.T, maxSize int64) (*LocalStore, *fakeRepo, string) {
	t.Helper()
	root := t.TempDir()
	repo := &fakeRepo{}
	store, err := NewLocalStore(repo, LocalStoreConfig{
		Root:    root,
		BaseURL: "http://localhost:8080/media/",
		MaxSize: maxSize,
	})
	require.NoError(t, err)
	return store, repo, root
}

func upload(name string, content []byte) model.Upload {
	return model.Upload{FileName: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
}

func TestLocalStore_StoreWritesFileAndRecord(t *testing.T) {
	store, repo, root := newTestStore(t, 1024)
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 100)...)

	url, err := store.Store(context.Background(), 7, upload("../../photo.png", content))
	require.NoError(t, err)

	require.Len(t, repo.media, 1)
	rec := repo.media[0]
	assert.Equal(t, "image/png", rec.MimeType)
	assert.Equal(t, "photo.png", rec.FileName)
	assert.Equal(t, int64(len(content)), rec.Size)
	assert.True(t, strings.HasPrefix(rec.Path, "products/7/"))
	assert.True(t, strings.HasSuffix(rec.Path, ".png"))
	assert.Equal(t, "http://localhost:8080/media/"+rec.Path, url)

	onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rec.Path)))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
}

func TestLocalStore_StoreDetectsAllowedTypes(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"png", pngHeader, "image/png"},
		{"gif", gifHeader, "image/gif"},
		{"jpeg", jpegHeader, "image/jpeg"},
		{"webp", webpHeader, "image/webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo, _ := newTestStore(t, 1024)

			_, err := store.Store(context.Background(), 1, upload("f", tt.header))
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.media[0].MimeType)
		})
	}
}

func TestLocalStore_StoreRejects(t *testing.T) {
	tests := []struct {
		name    string
		upload  model.Upload
		wantErr error
	}{
		{"empty", upload("a.png", nil), ErrEmptyFile},
		{"text", upload("a.png", []byte("definitely not an image")), ErrUnsupportedType},
		{"declared too large", model.Upload{FileName: "a.png", Size: 65, Content: bytes.NewReader(pngHeader)}, ErrFileTooLarge},
		{"actually too large", model.Upload{FileName: "a.png", Content: bytes.NewReader(append(append([]byte{}, pngHeader...), make([]byte, 64)...))}, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, repo, root := newTestStore(t, 64)

			_, err := store.Store(context.Background(), 1, tt.upload)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.media)

			entries, _ := os.ReadDir(filepath.Join(root, "products", "1"))
			assert.Empty(t, entries, "no file should remain on disk")
		})
	}
}

func TestLocalStore_StoreRemovesFileWhenRecordFails(t *testing.T) {
	store, repo, root := newTestStore(t, 1024)
	repo.createErr = errors.New("boom")

	_, err := store.Store(context.Background(), 3, upload("a.gif", gifHeader))
	require.Error(t, err)

	entries, _ := os.ReadDir(filepath.Join(root, "products", "3"))
	assert.Empty(t, entries)
}

func TestLocalStore_LatestAndRemoveFiles(t *testing.T) {
	store, repo, root := newTestStore(t, 1024)
	ctx := context.Background()

	_, err := store.Store(ctx, 5, upload("first.png", pngHeader))
	require.NoError(t, err)
	second, err := store.Store(ctx, 5, upload("second.gif", gifHeader))
	require.NoError(t, err)
	other, err := store.Store(ctx, 6, upload("other.png", pngHeader))
	require.NoError(t, err)

	latest, err := store.LatestURL(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, *latest)

	urls, err := store.LatestURLs(ctx, []int64{5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{5: second, 6: other}, urls)

	paths, err := store.Files(ctx, 5)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	store.RemoveFiles(5, paths)

	_, err = os.Stat(filepath.Join(root, "products", "5"))
	assert.True(t, os.IsNotExist(err), "product directory should be removed")
	_, err = os.Stat(filepath.Join(root, "products", "6"))
	assert.NoError(t, err)
	assert.Len(t, repo.media, 3, "records are removed by the database, not the store")
}

func TestLocalStore_RemoveFilesIgnoresMissing(t *testing.T) {
	store, _, root := newTestStore(t, 1024)

	store.RemoveFiles(9, []string{"products/9/gone.png"})

	_, err := os.Stat(filepath.Join(root, "products", "9"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\pic.jpg`, "pic.jpg"},
		{"", "upload"},
		{"/", "upload"},
		{strings.Repeat("a", 300), strings.Repeat("a", 255)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFileName(tt.in), "input %q", tt.in)
	}
}

func TestLocalStore_Ping(t *testing.T) {
	store, _, root := newTestStore(t, 1024)
	assert.Equal(t, root, store.Root())
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(root))
	assert.Error(t, store.Ping(context.Background()))

	require.NoError(t, os.WriteFile(root, []byte("not a dir"), 0o600))
	assert.Error(t, store.Ping(context.Background()))
}
