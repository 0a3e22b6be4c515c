package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	path        string
	contentType string
	body        string
}

type recordingStore struct {
	calls []putCall
	err   error
}

func (s *recordingStore) PutObject(_ context.Context, p string, ct string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.calls = append(s.calls, putCall{path: p, contentType: ct, body: string(body)})
	return "mem://" + p, nil
}

func TestArchiveUploadsExistingLogs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	success := filepath.Join(dir, "categories.csv")
	failure := filepath.Join(dir, "failures.txt")
	require.NoError(t, os.WriteFile(success, []byte("example.com,Technology\n"), 0o600))
	require.NoError(t, os.WriteFile(failure, []byte("deadhost.test\n"), 0o600))

	store := &recordingStore{}
	a := NewArchiver(store, "/runs/", nil)
	uris, err := a.Archive(context.Background(), "run-1", success, failure, filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)

	assert.Equal(t, []string{"mem://runs/run-1/categories.csv", "mem://runs/run-1/failures.txt"}, uris)
	require.Len(t, store.calls, 2)
	assert.Equal(t, putCall{path: "runs/run-1/categories.csv", contentType: "text/csv", body: "example.com,Technology\n"}, store.calls[0])
	assert.Equal(t, "text/plain", store.calls[1].contentType)
}

func TestArchiveErrors(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "categories.csv")
	require.NoError(t, os.WriteFile(file, []byte("x,Other\n"), 0o600))

	_, err := NewArchiver(&recordingStore{}, "", nil).Archive(context.Background(), "", file)
	require.ErrorContains(t, err, "run id is required")

	boom := errors.New("bucket unavailable")
	_, err = NewArchiver(&recordingStore{err: boom}, "", nil).Archive(context.Background(), "run", file)
	require.ErrorIs(t, err, boom)
}

func TestObjectPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "run-1/categories.csv", NewArchiver(nil, "", nil).ObjectPath("run-1", "/tmp/out/categories.csv"))
	assert.Equal(t, "a/b/run-1/failures.txt", NewArchiver(nil, "a/b", nil).ObjectPath("run-1", "failures.txt"))
}
