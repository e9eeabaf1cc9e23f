package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestNames(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pkg.zip")
	writeZip(t, archivePath, map[string]string{
		"manifest.json":        "{}",
		"assets/bin/Data/file": "payload",
	})

	names, err := NewManager().Names(context.Background(), archivePath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"manifest.json", "assets/bin/Data/file"}, names)
}

func TestNamesMissingArchive(t *testing.T) {
	_, err := NewManager().Names(context.Background(), filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pkg.zip")
	writeZip(t, archivePath, map[string]string{
		"top.txt":          "top",
		"nested/inner.txt": "inner",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, NewManager().ExtractAll(context.Background(), archivePath, dest))

	top, err := os.ReadFile(filepath.Join(dest, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, "top", string(top))

	inner, err := os.ReadFile(filepath.Join(dest, "nested", "inner.txt"))
	require.NoError(t, err)
	assert.Equal(t, "inner", string(inner))
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pkg.zip")
	writeZip(t, archivePath, map[string]string{
		"wanted.bin": "content",
		"other.bin":  "noise",
	})

	dest := filepath.Join(dir, "sub", "wanted.bin")
	require.NoError(t, NewManager().ExtractFile(context.Background(), archivePath, "wanted.bin", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestExtractFileMissingEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pkg.zip")
	writeZip(t, archivePath, map[string]string{"present": "x"})

	err := NewManager().ExtractFile(context.Background(), archivePath, "absent", filepath.Join(dir, "out"))
	assert.Error(t, err)
}
