// Package cache manages the local filesystem cache: downloaded game packages
// keyed by client version, their extracted data trees, and the manifest JSON
// documents. A Store is constructed once per run and passed to the components
// that need it; nothing in the pipeline reaches for ambient cache paths.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/fsutil"
)

// PackageFileName is the file name the downloaded game package is stored under
// inside a version directory.
const PackageFileName = "BlueArchive.xapk"

// Store is a filesystem cache rooted at a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.ErrCacheDirectory
	}
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}
	return &Store{dir: dir}, nil
}

// NewDefaultStore creates a store under the platform cache directory
// (~/.cache/baad/jp on Linux).
func NewDefaultStore() (*Store, error) {
	base, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user cache directory")
	}
	return NewStore(filepath.Join(base, "jp"))
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// VersionDir returns the directory holding the package and extracted data for
// one client version.
func (s *Store) VersionDir(version string) string {
	return filepath.Join(s.dir, version)
}

// DataDir returns the merged extraction directory for a version.
func (s *Store) DataDir(version string) string {
	return filepath.Join(s.VersionDir(version), "data")
}

// PackagePath returns where the downloaded package for a version lives.
func (s *Store) PackagePath(version string) string {
	return filepath.Join(s.VersionDir(version), PackageFileName)
}

// ManifestPath returns the path of a cached manifest document.
func (s *Store) ManifestPath(name string) string {
	return filepath.Join(s.dir, name)
}

// HasManifest reports whether a manifest document is cached.
func (s *Store) HasManifest(name string) bool {
	st, err := os.Stat(s.ManifestPath(name))
	return err == nil && st.Size() > 0
}

// SaveJSON writes v as indented JSON to the named manifest file.
func (s *Store) SaveJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", name)
	}
	path := s.ManifestPath(name)
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirModeDefault); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", name)
	}
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

// LoadJSON reads the named manifest file into out.
func (s *Store) LoadJSON(name string, out interface{}) error {
	data, err := os.ReadFile(s.ManifestPath(name))
	if err != nil {
		return errors.Wrapf(err, "failed to read cached %s", name)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse cached %s", name)
	}
	return nil
}

// SaveRaw writes raw bytes to the named cache file.
func (s *Store) SaveRaw(name string, data []byte) error {
	return os.WriteFile(s.ManifestPath(name), data, fsutil.FileModeDefault)
}

// Versions lists the cached version directories, sorted.
func (s *Store) Versions() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cache directory")
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Info describes the cache contents.
type Info struct {
	Directory     string
	TotalSize     int64
	ManifestSize  int64
	ManifestFiles int
	PackageSize   int64
	PackageFiles  int
}

// GetInfo returns size and file counts for manifests and version data.
func (s *Store) GetInfo() (*Info, error) {
	info := &Info{Directory: s.dir}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return nil, errors.Wrap(err, "failed to read cache directory")
	}

	for _, e := range entries {
		if e.IsDir() {
			size, files, err := dirSizeAndFiles(filepath.Join(s.dir, e.Name()))
			if err != nil {
				return nil, err
			}
			info.PackageSize += size
			info.PackageFiles += files
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		info.ManifestSize += st.Size()
		info.ManifestFiles++
	}
	info.TotalSize = info.ManifestSize + info.PackageSize
	return info, nil
}

// CleanOptions selects what Clean removes.
type CleanOptions struct {
	All       bool
	Manifests bool
	Packages  bool
}

// CleanResult reports how much Clean removed.
type CleanResult struct {
	ManifestFreed int64
	PackageFreed  int64
	TotalFreed    int64
}

// Clean removes cached files according to the options. With no specific flag
// set it cleans everything.
func (s *Store) Clean(options CleanOptions) (*CleanResult, error) {
	if !options.Manifests && !options.Packages {
		options.All = true
	}
	result := &CleanResult{}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, errors.Wrap(err, "failed to read cache directory")
	}

	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		if e.IsDir() {
			if !options.All && !options.Packages {
				continue
			}
			size, _, err := dirSizeAndFiles(path)
			if err != nil {
				return nil, err
			}
			if err := os.RemoveAll(path); err != nil {
				return nil, errors.Wrapf(err, "failed to remove %s", path)
			}
			result.PackageFreed += size
			continue
		}
		if !options.All && !options.Manifests {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			return nil, errors.Wrapf(err, "failed to remove %s", path)
		}
		result.ManifestFreed += st.Size()
	}

	result.TotalFreed = result.ManifestFreed + result.PackageFreed
	return result, nil
}

func dirSizeAndFiles(dir string) (int64, int, error) {
	var size int64
	var files int
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
			files++
		}
		return nil
	})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to measure %s", dir)
	}
	return size, files, nil
}
