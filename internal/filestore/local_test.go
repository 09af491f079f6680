package filestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-service/internal/config"
)

func TestLocalStore_SaveURLDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "uploads")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "products/a.png", bytes.NewBufferString("png"), 3, "image/png"))
	data, err := os.ReadFile(filepath.Join(dir, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	assert.Equal(t, "http://shop.test/uploads/products/a.png", store.URL("products/a.png", "http://shop.test/"))
	assert.Equal(t, "/uploads/products/a.png", store.URL("products/a.png", ""))

	require.NoError(t, store.Delete(ctx, "products/a.png"))
	require.NoError(t, store.Delete(ctx, "products/a.png"))
	_, err = os.Stat(filepath.Join(dir, "products", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"", "../x.png", "/etc/passwd", "a//b", `a\b`} {
		assert.Error(t, store.Save(context.Background(), key, bytes.NewBufferString("x"), 1, ""), key)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Save(ctx, "products/a.png", bytes.NewBufferString("x"), 1, ""), context.Canceled)
	_, err = os.Stat(filepath.Join(dir, "products", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage driver")
}

func TestDefaultPublicURL(t *testing.T) {
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com",
		defaultPublicURL(S3Options{Bucket: "media", Region: "eu-west-1"}))
	assert.Equal(t, "http://minio:9000/media",
		defaultPublicURL(S3Options{Bucket: "media", Endpoint: "http://minio:9000/"}))
}
