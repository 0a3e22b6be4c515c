package resume

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categories.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	idx, err := Load(filepath.Join(t.TempDir(), "nope.csv"), "")
	require.NoError(t, err)
	assert.Equal(t, ModeSubstring, idx.Mode())
	assert.False(t, idx.Done("example.com"))
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := Load("categories.csv", "fuzzy")
	require.ErrorContains(t, err, "unknown resume mode")
}

func TestSubstringMode(t *testing.T) {
	t.Parallel()

	idx, err := Load(writeLog(t, "seen.test,Technology\nmyexample.com,News\n"), ModeSubstring)
	require.NoError(t, err)

	assert.True(t, idx.Done("seen.test"))
	assert.True(t, idx.Done("example.com"), "substring of myexample.com")
	assert.False(t, idx.Done("other.test"))
	assert.False(t, idx.Done(""))
}

func TestExactMode(t *testing.T) {
	t.Parallel()

	idx, err := Load(writeLog(t, "seen.test,Technology\nmyexample.com,News\n\n"), ModeExact)
	require.NoError(t, err)

	assert.True(t, idx.Done("seen.test"))
	assert.True(t, idx.Done("myexample.com"))
	assert.False(t, idx.Done("example.com"))
	assert.False(t, idx.Done("technology"))
}

func TestNilIndex(t *testing.T) {
	t.Parallel()

	var idx *Index
	assert.False(t, idx.Done("example.com"))
}

func TestExactModeOverlongLineIsError(t *testing.T) {
	t.Parallel()

	content := "first.test,Retail\n" + strings.Repeat("x", maxLineBytes+1) + "\nlater.test,News\n"
	path := writeLog(t, content)

	idx, err := Load(path, ModeExact)
	require.Error(t, err)
	require.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Nil(t, idx)

	idx, err = Load(path, ModeSubstring)
	require.NoError(t, err)
	assert.True(t, idx.Done("later.test"))
}
