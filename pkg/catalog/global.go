package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/errors"
)

// The global server publishes one consolidated resource manifest instead of
// the per-category catalogs the JP server uses.
const (
	resourceDataPath = "/resource-data.json"
	resourceDataName = "resource-data.json"
)

// FetchResourceData acquires the global server's resource-data document from
// under the catalog root and caches it verbatim. Cached data is reused unless
// force is set.
func (s *Service) FetchResourceData(ctx context.Context, root string, force bool) ([]byte, error) {
	if !force && s.store.HasManifest(resourceDataName) {
		logger.Debug("Using cached resource data", logger.Fields{"dir": s.store.Dir()})
		return os.ReadFile(s.store.ManifestPath(resourceDataName))
	}

	logger.Info("Fetching resource data", logger.Fields{"root": root})
	body, status, err := s.getBytes(ctx, root+resourceDataPath)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrFetchFailed, "resource data returned status %d", status)
	}
	if !json.Valid(body) {
		return nil, errors.Wrapf(errors.ErrCatalogDecode, "resource data under %s is not valid JSON", root)
	}
	if err := s.store.SaveRaw(resourceDataName, body); err != nil {
		return nil, err
	}
	return body, nil
}
