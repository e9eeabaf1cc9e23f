package catalog

import (
	"encoding/binary"
	"fmt"

	"github.com/schale-tools/baad/pkg/errors"
)

// TableBundle describes one entry of the table bundle catalog.
type TableBundle struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Crc       uint32 `json:"crc"`
	IsInbuild bool   `json:"isInbuild"`
}

// MediaResource describes one entry of the media resource catalog.
type MediaResource struct {
	Path            string `json:"path"`
	FileName        string `json:"fileName"`
	Bytes           int64  `json:"bytes"`
	Crc             uint32 `json:"crc"`
	IsPrologue      bool   `json:"isPrologue"`
	IsSplitDownload bool   `json:"isSplitDownload"`
}

// TableCatalog is the decoded TableCatalog.bytes document, keyed by bundle name.
type TableCatalog struct {
	TableBundles map[string]TableBundle `json:"TableBundles"`
}

// MediaCatalog is the decoded MediaCatalog.bytes document, keyed by media key.
type MediaCatalog struct {
	MediaResources map[string]MediaResource `json:"MediaResources"`
}

// binaryReader consumes the little-endian length-prefixed catalog wire format.
// The first decode error sticks; subsequent reads return zero values.
type binaryReader struct {
	data []byte
	off  int
	err  error
}

func (r *binaryReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = errors.Wrapf(errors.ErrCatalogDecode, format, args...)
	}
}

func (r *binaryReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail("truncated catalog at offset %d", r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *binaryReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binaryReader) int64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (r *binaryReader) bool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}

func (r *binaryReader) string() string {
	n := r.uint32()
	if r.err != nil {
		return ""
	}
	return string(r.take(int(n)))
}

// ParseTableCatalog decodes a TableCatalog.bytes payload.
func ParseTableCatalog(data []byte) (*TableCatalog, error) {
	r := &binaryReader{data: data}
	count := r.uint32()
	cat := &TableCatalog{TableBundles: make(map[string]TableBundle, count)}
	for i := uint32(0); i < count && r.err == nil; i++ {
		entry := TableBundle{
			Name:      r.string(),
			Size:      r.int64(),
			Crc:       r.uint32(),
			IsInbuild: r.bool(),
		}
		if r.err == nil {
			cat.TableBundles[entry.Name] = entry
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes in table catalog", errors.ErrCatalogDecode, len(data)-r.off)
	}
	return cat, nil
}

// ParseMediaCatalog decodes a MediaCatalog.bytes payload.
func ParseMediaCatalog(data []byte) (*MediaCatalog, error) {
	r := &binaryReader{data: data}
	count := r.uint32()
	cat := &MediaCatalog{MediaResources: make(map[string]MediaResource, count)}
	for i := uint32(0); i < count && r.err == nil; i++ {
		key := r.string()
		entry := MediaResource{
			Path:            r.string(),
			FileName:        r.string(),
			Bytes:           r.int64(),
			Crc:             r.uint32(),
			IsPrologue:      r.bool(),
			IsSplitDownload: r.bool(),
		}
		if r.err == nil {
			cat.MediaResources[key] = entry
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes in media catalog", errors.ErrCatalogDecode, len(data)-r.off)
	}
	return cat, nil
}
