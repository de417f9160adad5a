package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.hcl"))
	write(t, filepath.Join(dir, "sub", "b.hcl"))
	write(t, filepath.Join(dir, "notes.txt"))
	lone := filepath.Join(t.TempDir(), "c.hcl")
	write(t, lone)

	files, err := CollectFiles([]string{dir, lone}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "sub", "b.hcl"),
		lone,
	}, files)
}

func TestCollectFiles_WrongExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "diagram.yaml")
	write(t, path)

	_, err := CollectFiles([]string{path}, ".hcl")
	assert.ErrorContains(t, err, "not a .hcl file")
}

func TestCollectFiles_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := CollectFiles([]string{filepath.Join(t.TempDir(), "nope")}, ".hcl")
	assert.ErrorContains(t, err, "stat")
}
