package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schale-tools/baad/pkg/catalog"
	"github.com/schale-tools/baad/pkg/download"
)

func withConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	oldConfig, oldLevel := ConfigPath, LogLevel
	level := ""
	ConfigPath, LogLevel = &path, &level
	t.Cleanup(func() { ConfigPath, LogLevel = oldConfig, oldLevel })
}

func TestLoadConfigReadsFile(t *testing.T) {
	withConfigFile(t, "settings:\n    cache_dir: /tmp/baad-test-cache\n    retries: 7\n")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/baad-test-cache", cfg.Settings.CacheDir)
	assert.Equal(t, 7, cfg.Settings.Retries)
}

func TestLoadConfigLogLevelOverride(t *testing.T) {
	withConfigFile(t, "settings:\n    log_level: warn\n")
	level := "debug"
	LogLevel = &level

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
}

func TestOpenStoreUsesConfiguredDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	withConfigFile(t, "settings:\n    cache_dir: "+dir+"\n")

	cfg, err := loadConfig()
	require.NoError(t, err)
	store, err := openStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jp"), store.Dir())
}

func TestOpenGlobalStoreKeptApart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	withConfigFile(t, "settings:\n    cache_dir: "+dir+"\n")

	cfg, err := loadConfig()
	require.NoError(t, err)
	store, err := openGlobalStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gl"), store.Dir())
}

func TestCategoryFlagsSelected(t *testing.T) {
	tests := []struct {
		name  string
		flags categoryFlags
		want  []catalog.Category
	}{
		{
			name:  "none selected means all",
			flags: categoryFlags{},
			want:  catalog.Categories(),
		},
		{
			name:  "single category",
			flags: categoryFlags{tables: true},
			want:  []catalog.Category{catalog.CategoryTable},
		},
		{
			name:  "two categories",
			flags: categoryFlags{android: true, media: true},
			want:  []catalog.Category{catalog.CategoryAndroid, catalog.CategoryMedia},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.selected())
		})
	}
}

func TestSummarizeOutcomes(t *testing.T) {
	outcomes := []download.Outcome{
		{Status: download.StatusSucceeded},
		{Status: download.StatusSkipped},
		{Status: download.StatusFailed, Attempts: 3, Err: errors.New("checksum mismatch")},
	}

	summary := summarizeOutcomes(outcomes)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
}
