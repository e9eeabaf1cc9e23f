// Package catalog acquires the game's distribution manifests: it resolves the
// client version and package URL, downloads and extracts the game package,
// resolves the manifest root (via the bootstrap decryptor when no override is
// given), fetches and caches the four manifest documents, and normalizes them
// into one immutable index of downloadable entries.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/schale-tools/baad/pkg/cache"
	"github.com/schale-tools/baad/pkg/errors"
)

// Remote endpoints. The latest-version index and the client-patch host are
// fixed; everything else is derived at runtime.
const (
	latestVersionURL = "https://prod-noticeindex.bluearchiveyostar.com/prod/index.json"
	clientPatchHost  = "https://prod-clientpatch.bluearchiveyostar.com"

	packageBaseURL = "https://d.apkpure.com/b"
	appID          = "com.YostarJP.BlueArchive"
)

// Manifest cache file names.
const (
	manifestAndroid = "bundleDownloadInfo-Android.json"
	manifestIOS     = "bundleDownloadInfo-iOS.json"
	manifestTable   = "TableCatalog.json"
	manifestMedia   = "MediaCatalog.json"
	gameFilesName   = "GameFiles.json"
)

// Service performs catalog acquisition against a cache store. The endpoint
// fields default to the production hosts; tests point them at mock servers.
type Service struct {
	client    *http.Client
	userAgent string
	store     *cache.Store

	VersionIndexURL string
	PackageBase     string
	ClientPatchHost string
}

// NewService creates a catalog service.
func NewService(store *cache.Store, timeout time.Duration, userAgent string) *Service {
	if userAgent == "" {
		userAgent = "baad/1.0"
	}
	return &Service{
		client:          &http.Client{Timeout: timeout},
		userAgent:       userAgent,
		store:           store,
		VersionIndexURL: latestVersionURL,
		PackageBase:     packageBaseURL,
		ClientPatchHost: clientPatchHost,
	}
}

// Store returns the cache store the service writes manifests to.
func (s *Service) Store() *cache.Store { return s.store }

func (s *Service) get(ctx context.Context, url string, extraHeaders map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", s.userAgent)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetchFailed, "%s: %v", url, err)
	}
	return resp, nil
}

// getBytes fetches url and returns the body together with the HTTP status.
// Callers decide whether a non-200 status is fatal.
func (s *Service) getBytes(ctx context.Context, url string) ([]byte, int, error) {
	resp, err := s.get(ctx, url, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrapf(errors.ErrFetchFailed, "%s: %v", url, err)
	}
	return body, resp.StatusCode, nil
}

// getJSON fetches url and decodes the body into out. Any failure, including a
// non-200 status, is wrapped as a fatal fetch error.
func (s *Service) getJSON(ctx context.Context, url string, out interface{}) error {
	body, status, err := s.getBytes(ctx, url)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errors.Wrapf(errors.ErrFetchFailed, "%s: HTTP %d", url, status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(errors.ErrFetchFailed, "%s: invalid JSON: %v", url, err)
	}
	return nil
}
