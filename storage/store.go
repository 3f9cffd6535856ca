// Package storage persists complaint photos on local disk or in a Google
// Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// LocalURLPrefix is where the HTTP server exposes LocalStore files.
const LocalURLPrefix = "/uploads/"

// FileStore saves and removes uploaded files. Paths returned by Save are
// what gets stored on the complaint and handed back to Delete/Open.
type FileStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// LocalStore keeps files in a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory served under LocalURLPrefix.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes r under the upload directory and returns its public path.
func (s *LocalStore) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	name = filepath.Base(name)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return LocalURLPrefix + name, nil
}

func (s *LocalStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(s.resolve(path))
}

// Delete ignores files that are already gone.
func (s *LocalStore) Delete(_ context.Context, path string) error {
	err := os.Remove(s.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// resolve maps a stored path back into dir; only the base name is trusted.
func (s *LocalStore) resolve(path string) string {
	return filepath.Join(s.dir, filepath.Base(strings.TrimPrefix(path, LocalURLPrefix)))
}

// GCSStore keeps files as objects in one bucket. Paths are gs://bucket/object.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with credentialsFile, or application default
// credentials when it is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Save streams r into the bucket with the sniffed content type.
func (s *GCSStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return "gs://" + s.bucket + "/" + name, nil
}

func (s *GCSStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	object, err := s.object(path)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
}

// Delete ignores objects that are already gone.
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	object, err := s.object(path)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) object(path string) (string, error) {
	prefix := "gs://" + s.bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("path %q is not in bucket %s", path, s.bucket)
	}
	return strings.TrimPrefix(path, prefix), nil
}
