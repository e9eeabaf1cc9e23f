package catalog

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/schale-tools/baad/pkg/download"
)

// Category tags one downloadable group of the catalog.
type Category string

const (
	CategoryAndroid Category = "AndroidAssetBundles"
	CategoryIOS     Category = "iOSAssetBundles"
	CategoryTable   Category = "TableBundles"
	CategoryMedia   Category = "MediaResources"
)

// Categories lists all category tags in catalog order.
func Categories() []Category {
	return []Category{CategoryAndroid, CategoryIOS, CategoryTable, CategoryMedia}
}

// ParseCategory maps a CLI-friendly alias to a category tag.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android", "androidassets", "androidassetbundles":
		return CategoryAndroid, true
	case "ios", "iosassets", "iosassetbundles":
		return CategoryIOS, true
	case "table", "tables", "tablebundles":
		return CategoryTable, true
	case "media", "mediaresources":
		return CategoryMedia, true
	default:
		return "", false
	}
}

// Entry is one downloadable unit from a manifest.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	CRC  uint32 `json:"crc"`
}

// Index is the normalized union of all manifests for one acquisition cycle.
// It is built once and never mutated; consumers get copies or read-only
// views.
type Index struct {
	entries map[Category][]Entry
}

// NewIndex builds an index from per-category entry lists.
func NewIndex(entries map[Category][]Entry) *Index {
	m := make(map[Category][]Entry, len(entries))
	for cat, list := range entries {
		m[cat] = append([]Entry(nil), list...)
	}
	return &Index{entries: m}
}

// Entries returns the entries of the given categories in catalog order. With
// no categories given it returns everything.
func (idx *Index) Entries(categories ...Category) []Entry {
	if len(categories) == 0 {
		categories = Categories()
	}
	var out []Entry
	for _, cat := range categories {
		out = append(out, idx.entries[cat]...)
	}
	return out
}

// Counts returns the entry count per category.
func (idx *Index) Counts() map[Category]int {
	counts := make(map[Category]int, len(idx.entries))
	for cat, list := range idx.entries {
		counts[cat] = len(list)
	}
	return counts
}

// Total returns the number of entries across all categories.
func (idx *Index) Total() int {
	total := 0
	for _, list := range idx.entries {
		total += len(list)
	}
	return total
}

// Filter returns a new index holding only entries whose name or path
// contains the pattern, case-insensitively. When no entry contains the
// pattern, fuzzy matching over entry names is tried before giving up. An
// empty pattern returns the index unchanged.
func (idx *Index) Filter(pattern string) *Index {
	if pattern == "" {
		return idx
	}
	needle := strings.ToLower(pattern)
	filtered := make(map[Category][]Entry)
	matched := false
	for cat, list := range idx.entries {
		for _, e := range list {
			if strings.Contains(strings.ToLower(e.Name), needle) ||
				strings.Contains(strings.ToLower(e.Path), needle) {
				filtered[cat] = append(filtered[cat], e)
				matched = true
			}
		}
	}
	if matched {
		return &Index{entries: filtered}
	}

	for cat, list := range idx.entries {
		for _, e := range list {
			if fuzzy.MatchNormalizedFold(pattern, e.Name) {
				filtered[cat] = append(filtered[cat], e)
			}
		}
	}
	return &Index{entries: filtered}
}

// Items converts the entries of the given categories into download items.
// Each item's output path is prefixed with its category directory, which
// keeps destination paths distinct across categories.
func (idx *Index) Items(categories ...Category) []download.Item {
	if len(categories) == 0 {
		categories = Categories()
	}
	var items []download.Item
	for _, cat := range categories {
		for _, e := range idx.entries[cat] {
			items = append(items, download.Item{
				Name: e.Name,
				URL:  e.URL,
				Path: string(cat) + "/" + e.Path,
				Size: e.Size,
				CRC:  e.CRC,
			})
		}
	}
	return items
}

// snapshot is the serialized GameFiles.json form of an index.
type snapshot map[Category][]Entry

func (idx *Index) snapshot() snapshot {
	return idx.entries
}
