// Package archive provides extraction helpers for downloaded game packages.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	"github.com/schale-tools/baad/pkg/fsutil"
)

// Manager handles archive inspection and extraction.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Names returns the paths of all regular files inside the archive.
func (am *Manager) Names(ctx context.Context, archivePath string) ([]string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	var names []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." || d.IsDir() {
			return nil
		}
		names = append(names, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archive %s: %w", archivePath, err)
	}
	return names, nil
}

// ExtractAll extracts all files from an archive to the specified destination directory.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return am.extractEntry(fsys, path, destDir, d)
	}

	return fs.WalkDir(fsys, ".", walkFn)
}

// ExtractFile extracts a specific file from an archive to the specified destination.
func (am *Manager) ExtractFile(ctx context.Context, archivePath, filePath, destPath string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	srcFile, err := fsys.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(destPath); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := fsutil.CreateFilePerm(destPath, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destPath, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file %s to %s: %w", filePath, destPath, err)
	}

	return nil
}

// extractEntry processes a single archive entry and writes it to destDir.
func (am *Manager) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	if path == "." {
		return nil
	}

	targetPath := filepath.Join(destDir, path)

	if d.IsDir() {
		return fsutil.EnsureDir(targetPath)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, path, targetPath)
	}

	return am.writeRegularFile(fsys, path, targetPath, info)
}

// writeSymlink creates a symlink at targetPath with contents from the archive entry at path.
func (am *Manager) writeSymlink(fsys fs.FS, path, targetPath string) error {
	linkTarget, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", path, err)
	}
	defer func() { _ = linkTarget.Close() }()

	targetBytes, err := io.ReadAll(linkTarget)
	if err != nil {
		return fmt.Errorf("failed to read symlink target %s: %w", path, err)
	}

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", path, err)
	}

	_ = os.Remove(targetPath)

	return os.Symlink(string(targetBytes), targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	dstFile, err := fsutil.CreateFilePerm(targetPath, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file %s: %w", path, err)
	}

	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
