// Package storage copies finished result logs to a blob store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BlobStore persists an object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Archiver uploads result logs under <prefix>/<run id>/<file name>.
type Archiver struct {
	store  BlobStore
	prefix string
	logger *zap.Logger
}

// NewArchiver wraps store.
func NewArchiver(store BlobStore, prefix string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// ObjectPath returns the object key for a local file in a run.
func (a *Archiver) ObjectPath(runID, file string) string {
	return path.Join(a.prefix, runID, filepath.Base(file))
}

// Archive uploads each file that exists and returns the URIs written.
// Missing files are skipped; the first upload error stops the archive.
func (a *Archiver) Archive(ctx context.Context, runID string, files ...string) ([]string, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	uris := make([]string, 0, len(files))
	for _, file := range files {
		uri, err := a.upload(ctx, runID, file)
		if errors.Is(err, fs.ErrNotExist) {
			a.logger.Debug("archive skipped missing file", zap.String("file", file))
			continue
		}
		if err != nil {
			return uris, err
		}
		a.logger.Info("log archived", zap.String("file", file), zap.String("uri", uri))
		uris = append(uris, uri)
	}
	return uris, nil
}

func (a *Archiver) upload(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	uri, err := a.store.PutObject(ctx, a.ObjectPath(runID, file), contentType(file), f)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", file, err)
	}
	return uri, nil
}

func contentType(file string) string {
	if strings.EqualFold(filepath.Ext(file), ".csv") {
		return "text/csv"
	}
	return "text/plain"
}
