//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with the given args and returns the
// captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	cmd := newRootCmd()
	cmd.SetArgs(args)
	execErr := cmd.ExecuteContext(context.Background())

	_ = w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), execErr
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := "settings:\n" +
		"    cache_dir: " + filepath.Join(dir, "cache") + "\n" +
		"    output_dir: " + filepath.Join(dir, "output") + "\n"
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	return configFile
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "baad version")
}

func TestConfigInitAndShow(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCommand(t, "--config", configFile, "config", "init")
	require.NoError(t, err)
	require.FileExists(t, configFile)

	// a second init without --force refuses to overwrite
	_, err = runCommand(t, "--config", configFile, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err := runCommand(t, "--config", configFile, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_concurrent_downloads")
	assert.Contains(t, out, "output_dir")
}

func TestConfigPath(t *testing.T) {
	configFile := writeTestConfig(t)
	out, err := runCommand(t, "--config", configFile, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, configFile)
}

func TestCacheDirAndInfo(t *testing.T) {
	configFile := writeTestConfig(t)

	out, err := runCommand(t, "--config", configFile, "cache", "dir")
	require.NoError(t, err)
	assert.Contains(t, out, "cache")

	out, err = runCommand(t, "--config", configFile, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache Directory:")
	assert.Contains(t, out, "Total Size:")
}

func TestCacheClean(t *testing.T) {
	configFile := writeTestConfig(t)
	_, err := runCommand(t, "--config", configFile, "cache", "clean", "--all")
	require.NoError(t, err)
}

func TestListWithoutCatalogs(t *testing.T) {
	configFile := writeTestConfig(t)
	_, err := runCommand(t, "--config", configFile, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached catalogs")
}

func TestGlobalCatalogNeedsURL(t *testing.T) {
	configFile := writeTestConfig(t)
	_, err := runCommand(t, "--config", configFile, "catalog", "--global")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog URL")
}

func TestExtractMissingArchive(t *testing.T) {
	configFile := writeTestConfig(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist.zip")
	_, err := runCommand(t, "--config", configFile, "extract", missing)
	require.Error(t, err)
}
