package catalog

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schale-tools/baad/pkg/errors"
)

type catalogWriter struct {
	buf bytes.Buffer
}

func (w *catalogWriter) uint32(v uint32) {
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *catalogWriter) int64(v int64) {
	_ = binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *catalogWriter) bool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	w.buf.WriteByte(b)
}

func (w *catalogWriter) string(s string) {
	w.uint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func encodeTableCatalog(bundles []TableBundle) []byte {
	w := &catalogWriter{}
	w.uint32(uint32(len(bundles)))
	for _, b := range bundles {
		w.string(b.Name)
		w.int64(b.Size)
		w.uint32(b.Crc)
		w.bool(b.IsInbuild)
	}
	return w.buf.Bytes()
}

func encodeMediaCatalog(resources map[string]MediaResource) []byte {
	w := &catalogWriter{}
	w.uint32(uint32(len(resources)))
	for key, m := range resources {
		w.string(key)
		w.string(m.Path)
		w.string(m.FileName)
		w.int64(m.Bytes)
		w.uint32(m.Crc)
		w.bool(m.IsPrologue)
		w.bool(m.IsSplitDownload)
	}
	return w.buf.Bytes()
}

func TestParseTableCatalog(t *testing.T) {
	data := encodeTableCatalog([]TableBundle{
		{Name: "Excel.zip", Size: 14683876, Crc: 2423410180, IsInbuild: true},
		{Name: "ExcelDB.db", Size: 70167676, Crc: 99223701, IsInbuild: false},
	})

	cat, err := ParseTableCatalog(data)
	require.NoError(t, err)
	require.Len(t, cat.TableBundles, 2)
	assert.Equal(t, int64(14683876), cat.TableBundles["Excel.zip"].Size)
	assert.Equal(t, uint32(2423410180), cat.TableBundles["Excel.zip"].Crc)
	assert.True(t, cat.TableBundles["Excel.zip"].IsInbuild)
	assert.False(t, cat.TableBundles["ExcelDB.db"].IsInbuild)
}

func TestParseTableCatalogEmpty(t *testing.T) {
	cat, err := ParseTableCatalog(encodeTableCatalog(nil))
	require.NoError(t, err)
	assert.Empty(t, cat.TableBundles)
}

func TestParseTableCatalogTruncated(t *testing.T) {
	data := encodeTableCatalog([]TableBundle{{Name: "Excel.zip", Size: 1, Crc: 2}})
	_, err := ParseTableCatalog(data[:len(data)-3])
	assert.ErrorIs(t, err, errors.ErrCatalogDecode)
}

func TestParseTableCatalogTrailingBytes(t *testing.T) {
	data := append(encodeTableCatalog(nil), 0xFF)
	_, err := ParseTableCatalog(data)
	assert.ErrorIs(t, err, errors.ErrCatalogDecode)
}

func TestParseMediaCatalog(t *testing.T) {
	data := encodeMediaCatalog(map[string]MediaResource{
		"OPENING_01": {
			Path:            "GameData\\Audio\\VOC_JP\\Opening.mp3",
			FileName:        "Opening.mp3",
			Bytes:           483212,
			Crc:             7714923,
			IsPrologue:      true,
			IsSplitDownload: false,
		},
	})

	cat, err := ParseMediaCatalog(data)
	require.NoError(t, err)
	require.Len(t, cat.MediaResources, 1)
	entry := cat.MediaResources["OPENING_01"]
	assert.Equal(t, `GameData\Audio\VOC_JP\Opening.mp3`, entry.Path)
	assert.Equal(t, "Opening.mp3", entry.FileName)
	assert.Equal(t, int64(483212), entry.Bytes)
	assert.True(t, entry.IsPrologue)
}

func TestParseMediaCatalogGarbage(t *testing.T) {
	_, err := ParseMediaCatalog([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, errors.ErrCatalogDecode)
}
