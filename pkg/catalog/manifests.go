package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/errors"
)

// bundleDownloadInfo is the per-platform asset bundle manifest document.
type bundleDownloadInfo struct {
	BundleFiles []bundleFile `json:"BundleFiles"`
}

type bundleFile struct {
	Name string `json:"Name"`
	Size int64  `json:"Size"`
	Crc  uint32 `json:"Crc"`
}

// Remote manifest locations under the resolved manifest root.
const (
	androidManifestPath = "/Android/bundleDownloadInfo.json"
	iosManifestPath     = "/iOS/bundleDownloadInfo.json"
	tableCatalogPath    = "/TableBundles/TableCatalog.bytes"
)

// mediaCatalogPaths are tried in order; the catalog moved between releases.
var mediaCatalogPaths = []string{
	"/MediaResources/Catalog/MediaCatalog.bytes",
	"/MediaResources/MediaCatalog.bytes",
}

// FetchManifests acquires the four manifest documents under the manifest root
// and returns their normalized index. Cached manifests are reused unless force
// is set. A bundle or table manifest the server does not have yields an empty
// category; the media catalog has alternate locations instead and fetching
// fails only when all of them are exhausted.
func (s *Service) FetchManifests(ctx context.Context, root string, force bool) (*Index, error) {
	if !force && s.manifestsCached() {
		logger.Debug("Using cached manifests", logger.Fields{"dir": s.store.Dir()})
		return s.BuildIndex(root)
	}

	logger.Info("Fetching catalogs", logger.Fields{"root": root})

	android, err := s.fetchBundleManifest(ctx, root+androidManifestPath)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveJSON(manifestAndroid, android); err != nil {
		return nil, err
	}

	ios, err := s.fetchBundleManifest(ctx, root+iosManifestPath)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveJSON(manifestIOS, ios); err != nil {
		return nil, err
	}

	table, err := s.fetchTableCatalog(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveJSON(manifestTable, table); err != nil {
		return nil, err
	}

	media, err := s.fetchMediaCatalog(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveJSON(manifestMedia, media); err != nil {
		return nil, err
	}

	idx, err := s.BuildIndex(root)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveJSON(gameFilesName, idx.snapshot()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *Service) manifestsCached() bool {
	for _, name := range []string{manifestAndroid, manifestIOS, manifestTable, manifestMedia} {
		if !s.store.HasManifest(name) {
			return false
		}
	}
	return true
}

func (s *Service) fetchBundleManifest(ctx context.Context, url string) (*bundleDownloadInfo, error) {
	var info bundleDownloadInfo
	body, status, err := s.getBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, errors.Wrapf(errors.ErrCatalogDecode, "manifest %s: %v", url, err)
		}
		return &info, nil
	case http.StatusNotFound:
		logger.Warnf("manifest %s not found, category will be empty", url)
		return &info, nil
	default:
		return nil, errors.Wrapf(errors.ErrFetchFailed, "manifest %s returned status %d", url, status)
	}
}

func (s *Service) fetchTableCatalog(ctx context.Context, root string) (*TableCatalog, error) {
	body, status, err := s.getBytes(ctx, root+tableCatalogPath)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return ParseTableCatalog(body)
	case http.StatusNotFound:
		logger.Warnf("table catalog not found under %s, category will be empty", root)
		return &TableCatalog{TableBundles: map[string]TableBundle{}}, nil
	default:
		return nil, errors.Wrapf(errors.ErrFetchFailed, "table catalog returned status %d", status)
	}
}

// fetchMediaCatalog tries each known media catalog location in order. Any
// failure on one location falls through to the next; only exhausting every
// location is fatal.
func (s *Service) fetchMediaCatalog(ctx context.Context, root string) (*MediaCatalog, error) {
	for _, p := range mediaCatalogPaths {
		body, status, err := s.getBytes(ctx, root+p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			logger.Warnf("media catalog %s: %v, trying next path", root+p, err)
			continue
		}
		if status != http.StatusOK {
			logger.Warnf("media catalog %s returned status %d, trying next path", root+p, status)
			continue
		}
		return ParseMediaCatalog(body)
	}
	return nil, errors.Wrapf(errors.ErrFetchFailed, "media catalog unavailable under %s at every known path", root)
}

// BuildIndex assembles the normalized index from the cached manifest files.
// Content URLs are joined from the manifest root, the category segment and the
// entry path; media paths use forward slashes regardless of how the catalog
// spells them.
func (s *Service) BuildIndex(root string) (*Index, error) {
	var android, ios bundleDownloadInfo
	if err := s.store.LoadJSON(manifestAndroid, &android); err != nil {
		return nil, err
	}
	if err := s.store.LoadJSON(manifestIOS, &ios); err != nil {
		return nil, err
	}
	var table TableCatalog
	if err := s.store.LoadJSON(manifestTable, &table); err != nil {
		return nil, err
	}
	var media MediaCatalog
	if err := s.store.LoadJSON(manifestMedia, &media); err != nil {
		return nil, err
	}

	entries := map[Category][]Entry{
		CategoryAndroid: bundleEntries(root, "Android", android.BundleFiles),
		CategoryIOS:     bundleEntries(root, "iOS", ios.BundleFiles),
		CategoryTable:   tableEntries(root, table.TableBundles),
		CategoryMedia:   mediaEntries(root, media.MediaResources),
	}
	return NewIndex(entries), nil
}

func bundleEntries(root, segment string, files []bundleFile) []Entry {
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, Entry{
			Name: f.Name,
			URL:  root + "/" + segment + "/" + f.Name,
			Path: f.Name,
			Size: f.Size,
			CRC:  f.Crc,
		})
	}
	sortEntries(entries)
	return entries
}

func tableEntries(root string, bundles map[string]TableBundle) []Entry {
	entries := make([]Entry, 0, len(bundles))
	for name, tb := range bundles {
		entries = append(entries, Entry{
			Name: name,
			URL:  root + "/TableBundles/" + name,
			Path: name,
			Size: tb.Size,
			CRC:  tb.Crc,
		})
	}
	sortEntries(entries)
	return entries
}

func mediaEntries(root string, resources map[string]MediaResource) []Entry {
	entries := make([]Entry, 0, len(resources))
	for _, m := range resources {
		mediaPath := strings.ReplaceAll(m.Path, "\\", "/")
		name := m.FileName
		if name == "" {
			name = path.Base(mediaPath)
		}
		entries = append(entries, Entry{
			Name: name,
			URL:  root + "/MediaResources/" + mediaPath,
			Path: mediaPath,
			Size: m.Bytes,
			CRC:  m.Crc,
		})
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}

// LoadIndex reads the GameFiles.json snapshot written by a previous
// acquisition cycle.
func (s *Service) LoadIndex() (*Index, error) {
	var snap snapshot
	if err := s.store.LoadJSON(gameFilesName, &snap); err != nil {
		return nil, err
	}
	return NewIndex(snap), nil
}
