// Package bootstrap recovers the first server endpoint from the game package.
// The client embeds an encrypted GameMainConfig record inside its Unity data
// files; a fixed binary signature marks it, and the payload decrypts to a JSON
// document whose field names are themselves obfuscated under the same cipher.
package bootstrap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/schale-tools/baad/internal/logger"
	"github.com/schale-tools/baad/pkg/cache"
	"github.com/schale-tools/baad/pkg/errors"
	"github.com/schale-tools/baad/pkg/keystream"
)

// signature marks the GameMainConfig record: the field name, two NUL bytes and
// a record-type tag.
var signature = []byte{
	0x47, 0x61, 0x6D, 0x65, 0x4D, 0x61, 0x69, 0x6E, 0x43, 0x6F, 0x6E, 0x66,
	0x69, 0x67, 0x00, 0x00, 0x92, 0x03, 0x00, 0x00,
}

// trailerSize is the number of trailing bytes after the payload.
const trailerSize = 2

const (
	configKeyName = "GameMainConfig"
	serverKeyName = "ServerInfoDataUrl"
)

// Locate scans the given roots, in priority order, for a file containing the
// config signature and returns the payload that follows it. The first match
// wins across all roots; unreadable files are logged and skipped.
func Locate(roots []string) ([]byte, error) {
	for _, root := range roots {
		payload, found := scanRoot(root)
		if found {
			logger.Debug("found game config signature", logger.Fields{"root": root})
			return payload, nil
		}
	}
	return nil, errors.ErrSignatureNotFound
}

func scanRoot(root string) ([]byte, bool) {
	if _, err := os.Stat(root); err != nil {
		return nil, false
	}

	var payload []byte
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			return nil
		}
		if found || d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warnf("error reading file %s: %v", path, err)
			return nil
		}
		idx := bytes.Index(content, signature)
		if idx < 0 {
			return nil
		}
		data := content[idx+len(signature):]
		if len(data) <= trailerSize {
			// Signature with no payload behind it is not a usable match.
			return nil
		}
		payload = data[:len(data)-trailerSize]
		found = true
		return fs.SkipAll
	})
	return payload, found
}

// DefaultRoot returns the bundled fallback data directory, relative to the
// working directory.
func DefaultRoot() string {
	return filepath.Join("public", "jp", "data", "assets", "bin", "Data")
}

// SearchRoots returns the candidate directories for Locate, in priority
// order: the version-specific extracted data, the bundled default path, then
// any other cached versions.
func SearchRoots(store *cache.Store, version string, defaultRoot string) []string {
	var roots []string
	if version != "" {
		roots = append(roots, unityDataDir(store.DataDir(version)))
	}
	if defaultRoot != "" {
		roots = append(roots, defaultRoot)
	}
	versions, err := store.Versions()
	if err != nil {
		return roots
	}
	for _, v := range versions {
		if v == version {
			continue
		}
		roots = append(roots, unityDataDir(store.DataDir(v)))
	}
	return roots
}

func unityDataDir(dataDir string) string {
	return filepath.Join(dataDir, "assets", "bin", "Data")
}

// Decrypt decodes the located payload into the bootstrap server URL. The
// payload is base64-re-encoded, decrypted with the GameMainConfig key into a
// JSON document, and the server URL is read from the field whose obfuscated
// name is derived from ServerInfoDataUrl.
func Decrypt(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", errors.Wrap(errors.ErrBootstrapDecode, "empty game config payload")
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(blob)))
	base64.StdEncoding.Encode(encoded, blob)

	configKey := keystream.CreateKey(configKeyName)
	serverKey := keystream.CreateKey(serverKeyName)

	plain, err := keystream.ConvertString(encoded, configKey)
	if err != nil {
		return "", errors.Wrap(errors.ErrBootstrapDecode, err.Error())
	}

	var doc map[string]string
	if err := json.Unmarshal([]byte(plain), &doc); err != nil {
		return "", errors.Wrapf(errors.ErrBootstrapDecode, "decrypted config is not valid JSON: %v", err)
	}

	field := keystream.EncryptString(serverKeyName, serverKey)
	value, ok := doc[field]
	if !ok {
		return "", errors.Wrapf(errors.ErrBootstrapDecode, "config field %s not present", field)
	}

	url, err := keystream.ConvertString([]byte(value), serverKey)
	if err != nil {
		return "", errors.Wrap(errors.ErrBootstrapDecode, err.Error())
	}
	return url, nil
}
