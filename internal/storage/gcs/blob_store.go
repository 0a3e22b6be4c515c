// Package gcs archives run logs to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Config names the bucket that receives archived run logs.
type Config struct {
	Bucket string
}

// BlobStore writes each archived log once. An object that already exists
// is never replaced, so a run's archive stays as it was first uploaded.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New returns a BlobStore for cfg.Bucket.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive.gcs_bucket is required")
	}
	return &BlobStore{client: client, bucket: cfg.Bucket}, nil
}

// URI returns the gs:// address of an archived log.
func URI(bucket, path string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, path)
}

// PutObject streams r into a new object at path and returns its gs:// URI.
// Uploading to a path that already holds an object fails.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	obj := s.client.Bucket(s.bucket).Object(path).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	_, copyErr := io.Copy(w, r)
	closeErr := w.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("archive %s: %w", URI(s.bucket, path), err)
	}
	return URI(s.bucket, path), nil
}
