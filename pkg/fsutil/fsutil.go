// Package fsutil provides filesystem helpers and permission constants shared
// by the cache, download and extraction layers.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AppName is the name of the application used in paths.
const AppName = "baad"

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeExec    = 0o755 // -rwxr-xr-x

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModePrivate = 0o700 // drwx------
)

// GetCacheDir returns the platform-specific cache directory for the
// application (~/.cache/baad on Linux).
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the platform-specific config directory for the
// application (~/.config/baad on Linux).
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// EnsureDir creates a directory and all necessary parent directories with
// default permissions if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of a file path if it doesn't
// exist.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// Move moves a file from src to dst, attempting an atomic rename first and
// falling back to copy + delete across filesystem boundaries.
func Move(src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("source and destination paths cannot be empty")
	}
	if err := EnsureFileDir(dst); err != nil {
		return fmt.Errorf("failed to create destination directory for %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := Copy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source file %s after copy: %w", src, err)
	}
	return nil
}

// Copy copies the contents of srcFile to dstFile.
func Copy(srcFile, dstFile string) error {
	src, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer src.Close()

	dst, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy from %s to %s: %w", srcFile, dstFile, err)
	}
	return nil
}

// CreateFilePerm creates a new file with the specified permissions.
func CreateFilePerm(name string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
}
