package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schale-tools/baad/pkg/errors"
)

// manifestServer serves a complete set of manifests. The media catalog only
// exists at the legacy location, exercising the fallback path.
func manifestServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	tableData := encodeTableCatalog([]TableBundle{
		{Name: "Excel.zip", Size: 1024, Crc: 111},
	})
	mediaData := encodeMediaCatalog(map[string]MediaResource{
		"OPENING_01": {Path: "GameData\\Audio\\Opening.mp3", FileName: "Opening.mp3", Bytes: 2048, Crc: 222},
	})
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		switch r.URL.Path {
		case "/r73/Android/bundleDownloadInfo.json":
			_, _ = w.Write([]byte(`{"BundleFiles": [{"Name": "android-prefab.bundle", "Size": 10, "Crc": 333}]}`))
		case "/r73/iOS/bundleDownloadInfo.json":
			_, _ = w.Write([]byte(`{"BundleFiles": [{"Name": "ios-prefab.bundle", "Size": 20, "Crc": 444}]}`))
		case "/r73/TableBundles/TableCatalog.bytes":
			_, _ = w.Write(tableData)
		case "/r73/MediaResources/MediaCatalog.bytes":
			_, _ = w.Write(mediaData)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchManifests(t *testing.T) {
	ts := manifestServer(t, nil)
	defer ts.Close()
	root := ts.URL + "/r73"

	svc := newTestService(t)
	idx, err := svc.FetchManifests(context.Background(), root, false)
	require.NoError(t, err)

	assert.Equal(t, 4, idx.Total())
	counts := idx.Counts()
	assert.Equal(t, 1, counts[CategoryAndroid])
	assert.Equal(t, 1, counts[CategoryIOS])
	assert.Equal(t, 1, counts[CategoryTable])
	assert.Equal(t, 1, counts[CategoryMedia])

	android := idx.Entries(CategoryAndroid)
	require.Len(t, android, 1)
	assert.Equal(t, root+"/Android/android-prefab.bundle", android[0].URL)
	assert.Equal(t, uint32(333), android[0].CRC)

	table := idx.Entries(CategoryTable)
	require.Len(t, table, 1)
	assert.Equal(t, root+"/TableBundles/Excel.zip", table[0].URL)
	assert.Equal(t, int64(1024), table[0].Size)

	media := idx.Entries(CategoryMedia)
	require.Len(t, media, 1)
	assert.Equal(t, "GameData/Audio/Opening.mp3", media[0].Path)
	assert.Equal(t, root+"/MediaResources/GameData/Audio/Opening.mp3", media[0].URL)
	assert.Equal(t, "Opening.mp3", media[0].Name)

	for _, name := range []string{manifestAndroid, manifestIOS, manifestTable, manifestMedia, gameFilesName} {
		assert.True(t, svc.Store().HasManifest(name), name)
	}
}

func TestFetchManifestsUsesCache(t *testing.T) {
	var requests atomic.Int64
	ts := manifestServer(t, &requests)
	defer ts.Close()
	root := ts.URL + "/r73"

	svc := newTestService(t)
	_, err := svc.FetchManifests(context.Background(), root, false)
	require.NoError(t, err)
	fetched := requests.Load()

	idx, err := svc.FetchManifests(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, fetched, requests.Load(), "cached manifests should not hit the server")
	assert.Equal(t, 4, idx.Total())
}

func TestFetchManifestsForceRefetches(t *testing.T) {
	var requests atomic.Int64
	ts := manifestServer(t, &requests)
	defer ts.Close()
	root := ts.URL + "/r73"

	svc := newTestService(t)
	_, err := svc.FetchManifests(context.Background(), root, false)
	require.NoError(t, err)
	fetched := requests.Load()

	_, err = svc.FetchManifests(context.Background(), root, true)
	require.NoError(t, err)
	assert.Greater(t, requests.Load(), fetched)
}

func TestFetchManifestsMissingBundleManifestsAreEmpty(t *testing.T) {
	mediaData := encodeMediaCatalog(map[string]MediaResource{
		"OPENING_01": {Path: "GameData/Audio/Opening.mp3", FileName: "Opening.mp3", Bytes: 2048, Crc: 222},
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/MediaResources/Catalog/MediaCatalog.bytes" {
			_, _ = w.Write(mediaData)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	svc := newTestService(t)
	idx, err := svc.FetchManifests(context.Background(), ts.URL, false)
	require.NoError(t, err)

	counts := idx.Counts()
	assert.Equal(t, 0, counts[CategoryAndroid])
	assert.Equal(t, 0, counts[CategoryIOS])
	assert.Equal(t, 0, counts[CategoryTable])
	assert.Equal(t, 1, counts[CategoryMedia])
}

func TestFetchManifestsMediaExhaustionIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	svc := newTestService(t)
	_, err := svc.FetchManifests(context.Background(), ts.URL, false)
	assert.ErrorIs(t, err, errors.ErrFetchFailed)
}

func TestFetchMediaCatalogErrorFallsThrough(t *testing.T) {
	mediaData := encodeMediaCatalog(map[string]MediaResource{
		"OPENING_01": {Path: "GameData/Audio/Opening.mp3", FileName: "Opening.mp3", Bytes: 2048, Crc: 222},
	})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/MediaResources/Catalog/MediaCatalog.bytes":
			w.WriteHeader(http.StatusInternalServerError)
		case "/MediaResources/MediaCatalog.bytes":
			_, _ = w.Write(mediaData)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	svc := newTestService(t)
	media, err := svc.fetchMediaCatalog(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, media.MediaResources, 1)
}

func TestFetchManifestsServerErrorIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := newTestService(t)
	_, err := svc.FetchManifests(context.Background(), ts.URL, false)
	assert.ErrorIs(t, err, errors.ErrFetchFailed)
}

func TestFetchManifestsBadTableCatalog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Android/bundleDownloadInfo.json", "/iOS/bundleDownloadInfo.json":
			_, _ = w.Write([]byte(`{"BundleFiles": []}`))
		case "/TableBundles/TableCatalog.bytes":
			_, _ = w.Write([]byte{0xFF, 0xFF, 0xFF})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	svc := newTestService(t)
	_, err := svc.FetchManifests(context.Background(), ts.URL, false)
	assert.ErrorIs(t, err, errors.ErrCatalogDecode)
}

func TestLoadIndexRoundTrip(t *testing.T) {
	ts := manifestServer(t, nil)
	defer ts.Close()
	root := ts.URL + "/r73"

	svc := newTestService(t)
	fetched, err := svc.FetchManifests(context.Background(), root, false)
	require.NoError(t, err)

	loaded, err := svc.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, fetched.Counts(), loaded.Counts())
	assert.Equal(t, fetched.Entries(CategoryMedia), loaded.Entries(CategoryMedia))
}

func TestLoadIndexMissingSnapshot(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.LoadIndex()
	assert.Error(t, err)
}
