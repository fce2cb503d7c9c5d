package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemRoundTrip(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	path, size, err := fs.Save(context.Background(), "case-1", "statement.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), size)
	assert.Contains(t, path, "case-1")

	r, err := fs.Open(context.Background(), path)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, fs.Delete(context.Background(), path))
	_, err = fs.Open(context.Background(), path)
	assert.Error(t, err)

	// Deleting again is fine.
	require.NoError(t, fs.Delete(context.Background(), path))
}

func TestFilesystemKeepsDuplicateNamesDistinct(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	p1, _, err := fs.Save(context.Background(), "case-1", "same.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	p2, _, err := fs.Save(context.Background(), "case-1", "same.pdf", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestFilesystemRejectsEscapingPaths(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Open(context.Background(), "../../etc/passwd")
	assert.Error(t, err)

	err = fs.Delete(context.Background(), "../outside")
	assert.Error(t, err)
}

func TestFilesystemSanitizesFileName(t *testing.T) {
	fs, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	path, _, err := fs.Save(context.Background(), "case-1", "../../evil.sh", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, path, "..")

	r, err := fs.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
