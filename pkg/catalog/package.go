package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/archive"
	"github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/fsutil"
)

var htmlMarkers = [][]byte{[]byte("<!DOCTYPE"), []byte("<html"), []byte("<HTML")}

// Nested archives carried inside an XAPK bundle.
const (
	xapkManifestName = "manifest.json"
	unityPackName    = "UnityDataAssetPack.apk"
	mainPackName     = appID + ".apk"
)

// PackageURLs builds the candidate package URLs for a client version, most
// specific first. A versioned build-number pair (APK then XAPK) is included
// only when the version string carries a usable build number.
func (s *Service) PackageURLs(version string) []string {
	var urls []string
	if code, err := ExtractVersionCode(version); err == nil {
		urls = append(urls,
			fmt.Sprintf("%s/APK/%s?versionCode=%d", s.PackageBase, appID, code),
			fmt.Sprintf("%s/XAPK/%s?versionCode=%d", s.PackageBase, appID, code),
		)
	}
	return append(urls,
		fmt.Sprintf("%s/APK/%s?version=%s", s.PackageBase, appID, version),
		fmt.Sprintf("%s/XAPK/%s?version=%s", s.PackageBase, appID, version),
	)
}

// latestPackageURL is the fallback when no versioned candidate checks out.
func (s *Service) latestPackageURL() string {
	return fmt.Sprintf("%s/XAPK/%s?version=latest", s.PackageBase, appID)
}

// ResolvePackageURL probes the candidate URLs for a version and returns the
// first one that serves binary content instead of an HTML error page. When
// every versioned candidate fails the unversioned latest URL is probed as a
// last resort; only its rejection fails the resolution.
func (s *Service) ResolvePackageURL(ctx context.Context, version string) (string, error) {
	if version == "" {
		return s.latestPackageURL(), nil
	}
	for _, url := range s.PackageURLs(version) {
		ok, err := s.probePackageURL(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			logger.Warn("Package URL probe failed", logger.Fields{"url": url, "error": err.Error()})
			continue
		}
		if ok {
			logger.Debug("Resolved package URL", logger.Fields{"url": url, "version": version})
			return url, nil
		}
		logger.Debug("Package URL returned an HTML page, trying next candidate", logger.Fields{"url": url})
	}

	latest := s.latestPackageURL()
	logger.Warn("Could not resolve a package URL for version, falling back to latest", logger.Fields{"version": version})
	ok, err := s.probePackageURL(ctx, latest)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", errors.Wrapf(errors.ErrNoPackageURL, "latest package probe failed: %v", err)
	}
	if !ok {
		return "", errors.Wrapf(errors.ErrNoPackageURL, "latest package URL %s serves an HTML page", latest)
	}
	return latest, nil
}

// probePackageURL fetches the first bytes of a candidate and reports whether
// they look like package content rather than an error page.
func (s *Service) probePackageURL(ctx context.Context, url string) (bool, error) {
	resp, err := s.get(ctx, url, map[string]string{"Range": "bytes=0-255"})
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	head := make([]byte, 256)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	head = head[:n]
	for _, marker := range htmlMarkers {
		if bytes.Contains(head, marker) {
			return false, nil
		}
	}
	return true, nil
}

// remotePackageSize reports the content length of the package at url, or -1
// when the server does not advertise one.
func (s *Service) remotePackageSize(ctx context.Context, url string) (int64, error) {
	resp, err := s.get(ctx, url, nil)
	if err != nil {
		return -1, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return -1, errors.Wrapf(errors.ErrFetchFailed, "package size probe returned status %d", resp.StatusCode)
	}
	return resp.ContentLength, nil
}

// FetchPackage downloads the game package for a version into the cache and
// returns its path. An existing package is reused when its size matches the
// remote one; an out-of-date package is replaced and its stale extraction
// directories are removed.
func (s *Service) FetchPackage(ctx context.Context, url, version string, force bool) (string, error) {
	dest := s.store.PackagePath(version)

	if !force {
		if info, err := os.Stat(dest); err == nil {
			remote, sizeErr := s.remotePackageSize(ctx, url)
			if sizeErr != nil {
				return "", sizeErr
			}
			if remote < 0 || info.Size() >= remote {
				logger.Info("Package is up to date, skipping download", logger.Fields{"version": version})
				return dest, nil
			}
			logger.Info("Package is out of date, downloading", logger.Fields{"version": version})
		}
	}

	s.removeStaleExtractions(version)

	resp, err := s.get(ctx, url, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(errors.ErrFetchFailed, "package download returned status %d", resp.StatusCode)
	}

	if err := fsutil.EnsureFileDir(dest); err != nil {
		return "", err
	}
	f, err := fsutil.CreateFilePerm(dest, fsutil.FileModeDefault)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 8192)
	_, err = io.CopyBuffer(f, resp.Body, buf)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", errors.Wrap(errors.ErrFetchFailed, "package download interrupted")
	}
	logger.Info("Package downloaded", logger.Fields{"version": version, "path": dest})
	return dest, nil
}

// removeStaleExtractions deletes the apk and data directories left over from a
// previous package so a fresh download is extracted cleanly.
func (s *Service) removeStaleExtractions(version string) {
	base := s.store.VersionDir(version)
	for _, dir := range []string{filepath.Join(base, "apk"), s.store.DataDir(version)} {
		if _, err := os.Stat(dir); err == nil {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("Failed to remove stale directory", logger.Fields{"dir": dir, "error": err.Error()})
				continue
			}
			logger.Debug("Removed stale directory", logger.Fields{"dir": dir})
		}
	}
}

// ExtractPackage unpacks the cached package for a version and returns the
// data root holding the game assets. XAPK bundles are unpacked in two stages:
// the outer container first, then the nested apks it carries.
func (s *Service) ExtractPackage(ctx context.Context, version string) (string, error) {
	pkgPath := s.store.PackagePath(version)
	if _, err := os.Stat(pkgPath); err != nil {
		return "", errors.Wrapf(errors.ErrFetchFailed, "no cached package for version %s", version)
	}

	am := archive.NewManager()
	dataDir := s.store.DataDir(version)
	if err := fsutil.EnsureDir(dataDir); err != nil {
		return "", err
	}

	regular, err := s.isRegularPackage(ctx, am, pkgPath)
	if err != nil {
		return "", err
	}
	if regular {
		logger.Info("Detected regular APK format, extracting", logger.Fields{"version": version})
		if err := am.ExtractAll(ctx, pkgPath, dataDir); err != nil {
			return "", err
		}
		return dataDir, nil
	}

	logger.Info("Detected XAPK format, extracting", logger.Fields{"version": version})
	apkDir := filepath.Join(s.store.VersionDir(version), "apk")
	if err := am.ExtractAll(ctx, pkgPath, apkDir); err != nil {
		return "", err
	}
	for _, name := range []string{unityPackName, mainPackName} {
		nested := filepath.Join(apkDir, name)
		if _, err := os.Stat(nested); err != nil {
			logger.Warn("Nested apk not found in XAPK", logger.Fields{"name": name})
			continue
		}
		if err := am.ExtractAll(ctx, nested, dataDir); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}

// isRegularPackage reports whether the archive is a plain apk rather than an
// XAPK bundle, judged by its entry list.
func (s *Service) isRegularPackage(ctx context.Context, am *archive.Manager, pkgPath string) (bool, error) {
	names, err := am.Names(ctx, pkgPath)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		switch name {
		case xapkManifestName, mainPackName, unityPackName:
			return false, nil
		}
	}
	for _, name := range names {
		if strings.HasSuffix(name, "AndroidManifest.xml") ||
			strings.HasSuffix(name, "classes.dex") ||
			strings.HasSuffix(name, "resources.arsc") {
			return true, nil
		}
	}
	return strings.EqualFold(filepath.Ext(pkgPath), ".apk"), nil
}
