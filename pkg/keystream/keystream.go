// Package keystream derives the deterministic byte streams the game uses for
// two unrelated jobs that happen to share one construction: per-archive zip
// passwords and the XOR cipher that obfuscates bootstrap config fields. A name
// string is hashed with XXH32 (seed 0) and the hash seeds an MT19937 stream.
// The shared construction is preserved as-is; it is not generalized further.
package keystream

import (
	"encoding/base64"

	"github.com/schale-tools/baad/internal/mersenne"
	"github.com/schale-tools/baad/internal/xxhash32"
	"github.com/schale-tools/baad/pkg/errors"
)

// workingKeySize is the key length the string cipher uses; shorter inputs are
// left untouched by the scheme.
const workingKeySize = 8

const passwordSeedSize = 15

// DeriveStream returns the first length bytes of the stream seeded with seed.
// Pure: identical arguments always produce identical bytes, and shorter
// streams are prefixes of longer ones.
func DeriveStream(seed uint32, length int) []byte {
	return mersenne.New(seed).NextBytes(length)
}

// CreateKey derives the 8-byte working key for a named config field.
func CreateKey(name string) []byte {
	return DeriveStream(xxhash32.SumString(name, 0), workingKeySize)
}

// ArchivePassword derives the zip password for an archive from its file name.
// The name must already be lower-cased by the caller when it comes from the
// filesystem; archives with the same case-insensitive name share a password.
func ArchivePassword(fileName string) []byte {
	raw := DeriveStream(xxhash32.SumString(fileName, 0), passwordSeedSize)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out
}

// ConvertString decrypts (or, symmetrically, encrypts) a base64-encoded value
// with the given key. Raw values shorter than the key size pass through
// undeciphered, mirroring the scheme's small-value escape.
func ConvertString(value []byte, key []byte) (string, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(value)))
	n, err := base64.StdEncoding.Decode(raw, value)
	if err != nil {
		return "", errors.Wrap(err, "keystream: value is not valid base64")
	}
	raw = raw[:n]
	if len(raw) < workingKeySize {
		return string(raw), nil
	}
	return string(xorCycle(raw, key)), nil
}

// EncryptString obfuscates a plain string under the key and base64-encodes the
// result. ConvertString with the same key restores the original.
func EncryptString(value string, key []byte) string {
	raw := []byte(value)
	if len(raw) < workingKeySize {
		return value
	}
	return base64.StdEncoding.EncodeToString(xorCycle(raw, key))
}

// xorCycle XORs value against key, cycling the key when the value is longer
// and truncating it when shorter.
func xorCycle(value, key []byte) []byte {
	out := make([]byte, len(value))
	for i, b := range value {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
