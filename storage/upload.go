package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"fixitnow-backend/app/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrInvalidUpload is the parent of every rejection caused by the client's files.
var ErrInvalidUpload = errors.New("invalid upload")

const sniffLen = 3072

// Upload is one file received from a client.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromFileHeaders adapts multipart form files.
func FromFileHeaders(files []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(files))
	for _, fh := range files {
		fh := fh
		out = append(out, Upload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}

// DetectImage sniffs r and fails unless it holds an image. The returned
// reader replays the sniffed bytes.
func DetectImage(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	// SVG is markup and can carry script.
	if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") {
		return nil, nil, fmt.Errorf("%w: only image files are allowed", ErrInvalidUpload)
	}
	return mt, io.MultiReader(bytes.NewReader(head), r), nil
}

// Uploader validates complaint photos and writes them to a FileStore.
type Uploader struct {
	store    FileStore
	maxBytes int64
	maxFiles int
	now      func() time.Time
}

// NewUploader limits each file to maxBytes and each form to maxFiles.
func NewUploader(store FileStore, maxBytes int64, maxFiles int) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes, maxFiles: maxFiles, now: time.Now}
}

// SaveImages stores every upload or none: files saved before a failure are removed.
func (u *Uploader) SaveImages(ctx context.Context, uploads []Upload) ([]model.Image, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if u.maxFiles > 0 && len(uploads) > u.maxFiles {
		return nil, fmt.Errorf("%w: at most %d files per request", ErrInvalidUpload, u.maxFiles)
	}
	for _, up := range uploads {
		if u.maxBytes > 0 && up.Size > u.maxBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d MB", ErrInvalidUpload, up.Name, u.maxBytes>>20)
		}
	}

	images := make([]model.Image, 0, len(uploads))
	for _, up := range uploads {
		img, err := u.save(ctx, up)
		if err != nil {
			u.Remove(ctx, images)
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// Remove deletes stored images, logging failures.
func (u *Uploader) Remove(ctx context.Context, images []model.Image) {
	for _, img := range images {
		if err := u.store.Delete(ctx, img.Path); err != nil {
			slog.Warn("remove upload", "path", img.Path, "error", err)
		}
	}
}

func (u *Uploader) save(ctx context.Context, up Upload) (model.Image, error) {
	f, err := up.Open()
	if err != nil {
		return model.Image{}, err
	}
	defer f.Close()

	var body io.Reader = f
	if u.maxBytes > 0 {
		// Size comes from the client; enforce it on the stream as well.
		body = io.LimitReader(f, u.maxBytes+1)
	}
	mt, body, err := DetectImage(body)
	if err != nil {
		return model.Image{}, err
	}

	now := u.now()
	name := StoredName(now, mt.Extension())
	counter := &countingReader{r: body}
	path, err := u.store.Save(ctx, name, mt.String(), counter)
	if err != nil {
		return model.Image{}, err
	}
	if u.maxBytes > 0 && counter.n > u.maxBytes {
		_ = u.store.Delete(ctx, path)
		return model.Image{}, fmt.Errorf("%w: %s exceeds %d MB", ErrInvalidUpload, up.Name, u.maxBytes>>20)
	}
	return model.Image{Filename: name, Path: path, UploadedAt: now.UTC()}, nil
}

// StoredName is "<unix-ms>-<uuid><ext>". ext is the sniffed type's
// extension; the client's file name is never used.
func StoredName(now time.Time, ext string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
