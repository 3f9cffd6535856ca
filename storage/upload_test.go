package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func memUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestDetectImage(t *testing.T) {
	mt, r, err := DetectImage(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt.String())

	replayed, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, replayed)

	_, _, err = DetectImage(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestUploader_SaveImages(t *testing.T) {
	store := newLocal(t)
	u := NewUploader(store, 1<<20, 5)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }

	images, err := u.SaveImages(context.Background(), []Upload{memUpload("Leak.PNG", pngHeader)})
	require.NoError(t, err)
	require.Len(t, images, 1)

	img := images[0]
	assert.True(t, strings.HasPrefix(img.Filename, "1700000000000-"))
	assert.True(t, strings.HasSuffix(img.Filename, ".png"))
	assert.Equal(t, LocalURLPrefix+img.Filename, img.Path)

	data, err := os.ReadFile(filepath.Join(store.Dir(), img.Filename))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestUploader_Rejections(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	t.Run("too many files", func(t *testing.T) {
		u := NewUploader(store, 1<<20, 2)
		files := []Upload{memUpload("a.png", pngHeader), memUpload("b.png", pngHeader), memUpload("c.png", pngHeader)}
		_, err := u.SaveImages(ctx, files)
		assert.ErrorIs(t, err, ErrInvalidUpload)
	})

	t.Run("declared size too large", func(t *testing.T) {
		u := NewUploader(store, 10, 5)
		_, err := u.SaveImages(ctx, []Upload{memUpload("a.png", pngHeader)})
		assert.ErrorIs(t, err, ErrInvalidUpload)
	})

	t.Run("not an image rolls back earlier files", func(t *testing.T) {
		u := NewUploader(store, 1<<20, 5)
		_, err := u.SaveImages(ctx, []Upload{memUpload("a.png", pngHeader), memUpload("b.txt", []byte("hello"))})
		assert.ErrorIs(t, err, ErrInvalidUpload)

		entries, err := os.ReadDir(store.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestLocalStore_DeleteStaysInDir(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	path, err := store.Save(ctx, "x.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	rc, err := store.Open(ctx, path)
	require.NoError(t, err)
	rc.Close()

	require.NoError(t, store.Delete(ctx, "/uploads/../../"+filepath.Base(path)))
	_, err = os.Stat(filepath.Join(store.Dir(), "x.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, path), "deleting a missing file is not an error")
}

func TestStoredName(t *testing.T) {
	name := StoredName(time.UnixMilli(42), ".jpg")
	assert.True(t, strings.HasPrefix(name, "42-"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))
}

func TestUploader_IgnoresClientExtension(t *testing.T) {
	u := NewUploader(newLocal(t), 1<<20, 5)

	for _, name := range []string{"avatar.html", "x.svg", "photo"} {
		images, err := u.SaveImages(context.Background(), []Upload{memUpload(name, pngHeader)})
		require.NoError(t, err, name)
		require.Len(t, images, 1)
		assert.Equal(t, ".png", filepath.Ext(images[0].Filename), name)
	}
}

func TestDetectImage_RejectsSVG(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	_, _, err := DetectImage(strings.NewReader(svg))
	assert.ErrorIs(t, err, ErrInvalidUpload)
}
