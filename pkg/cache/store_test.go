package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/schale-tools/baad/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name        string
		dir         func(t *testing.T) string
		expectError bool
	}{
		{
			name:        "creates missing directory",
			dir:         func(t *testing.T) string { return filepath.Join(t.TempDir(), "jp") },
			expectError: false,
		},
		{
			name:        "existing directory",
			dir:         func(t *testing.T) string { return t.TempDir() },
			expectError: false,
		},
		{
			name:        "empty directory rejected",
			dir:         func(*testing.T) string { return "" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := cache.NewStore(tt.dir(t))
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.DirExists(t, store.Dir())
		})
	}
}

func TestStorePaths(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.NewStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "1.57.339636"), store.VersionDir("1.57.339636"))
	assert.Equal(t, filepath.Join(dir, "1.57.339636", "data"), store.DataDir("1.57.339636"))
	assert.Equal(t, filepath.Join(dir, "1.57.339636", cache.PackageFileName), store.PackagePath("1.57.339636"))
	assert.Equal(t, filepath.Join(dir, "TableCatalog.json"), store.ManifestPath("TableCatalog.json"))
}

func TestSaveLoadJSON(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	in := map[string]int{"x": 1, "y": 2}
	require.NoError(t, store.SaveJSON("GameFiles.json", in))
	assert.True(t, store.HasManifest("GameFiles.json"))

	var out map[string]int
	require.NoError(t, store.LoadJSON("GameFiles.json", &out))
	assert.Equal(t, in, out)
}

func TestLoadJSON_Missing(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	var out map[string]int
	require.Error(t, store.LoadJSON("MediaCatalog.json", &out))
	assert.False(t, store.HasManifest("MediaCatalog.json"))
}

func TestVersionsAndClean(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(store.DataDir("1.56.331245"), 0o755))
	require.NoError(t, os.MkdirAll(store.DataDir("1.57.339636"), 0o755))
	require.NoError(t, os.WriteFile(store.PackagePath("1.57.339636"), []byte("package bytes"), 0o644))
	require.NoError(t, store.SaveJSON("TableCatalog.json", map[string]string{"k": "v"}))

	versions, err := store.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"1.56.331245", "1.57.339636"}, versions)

	info, err := store.GetInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info.ManifestFiles)
	assert.Equal(t, 1, info.PackageFiles)
	assert.Positive(t, info.TotalSize)

	result, err := store.Clean(cache.CleanOptions{Manifests: true})
	require.NoError(t, err)
	assert.Positive(t, result.ManifestFreed)
	assert.Zero(t, result.PackageFreed)
	assert.False(t, store.HasManifest("TableCatalog.json"))

	result, err = store.Clean(cache.CleanOptions{All: true})
	require.NoError(t, err)
	assert.Positive(t, result.PackageFreed)

	versions, err = store.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)
}
