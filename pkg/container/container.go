// Package container reads the password-protected zip archives the game ships
// table and media content in. Each archive's password is derived from its own
// lower-cased file name, so opening one needs nothing beyond the file itself.
package container

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/fsutil"
	"github.com/schale-tools/baad/pkg/keystream"
	"github.com/yeka/zip"
)

// Reader is an open encrypted container. It owns the underlying archive
// handle; Close must be called on every exit path.
type Reader struct {
	path     string
	password string
	zr       *zip.ReadCloser
}

// Open opens the container at path, deriving its password from the
// lower-cased file name.
func Open(path string) (*Reader, error) {
	password := keystream.ArchivePassword(strings.ToLower(filepath.Base(path)))
	return OpenWithPassword(path, string(password))
}

// OpenWithPassword opens the container with an explicit password, bypassing
// derivation for containers whose password is already known.
func OpenWithPassword(path, password string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open container %s", path)
	}
	return &Reader{path: path, password: password, zr: zr}, nil
}

// Close releases the underlying archive handle.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Names lists the member names in archive order. Archive metadata is not
// encrypted by this scheme, so listing never needs the password.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// ReadEntry decrypts and decompresses one member. A wrong password surfaces
// here as a decompression or checksum failure, not at open time.
func (r *Reader) ReadEntry(name string) ([]byte, error) {
	for _, f := range r.zr.File {
		if f.Name != name {
			continue
		}
		if f.IsEncrypted() {
			f.SetPassword(r.password)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrContainerDecrypt, "%s!%s: %v", r.path, name, err)
		}
		data, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrContainerDecrypt, "%s!%s: %v", r.path, name, err)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(errors.ErrContainerDecrypt, "%s!%s: %v", r.path, name, closeErr)
		}
		return data, nil
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, r.path)
}

// ExtractAll writes every member under destDir. Per-entry failures are logged
// and counted but do not stop the remaining entries.
func (r *Reader) ExtractAll(destDir string) error {
	var failed int
	for _, name := range r.Names() {
		data, err := r.ReadEntry(name)
		if err != nil {
			logger.Errorf("Error extracting %s: %v", name, err)
			failed++
			continue
		}
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if err := fsutil.EnsureFileDir(target); err != nil {
			logger.Errorf("Error creating directory for %s: %v", target, err)
			failed++
			continue
		}
		if err := os.WriteFile(target, data, fsutil.FileModeDefault); err != nil {
			logger.Errorf("Error writing %s: %v", target, err)
			failed++
			continue
		}
	}
	if failed > 0 {
		return errors.Wrapf(errors.ErrContainerDecrypt, "%d of %d entries failed in %s", failed, len(r.Names()), r.path)
	}
	return nil
}

// ExtractArchive is a convenience wrapper: open path with its derived
// password, extract everything into destDir/<archive stem>, and close the
// handle.
func ExtractArchive(path, destDir string) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.ExtractAll(filepath.Join(destDir, stem))
}
