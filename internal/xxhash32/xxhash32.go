// Package xxhash32 implements the 32-bit variant of xxHash. The obfuscation
// layer seeds its key-stream generator with XXH32 of a name string, so the
// 64-bit implementations common in the ecosystem are not interchangeable here.
package xxhash32

import "encoding/binary"

const (
	prime1 = 2654435761
	prime2 = 2246822519
	prime3 = 3266489917
	prime4 = 668265263
	prime5 = 374761393
)

// Sum computes the XXH32 digest of data with the given seed.
func Sum(data []byte, seed uint32) uint32 {
	n := len(data)
	var h uint32

	if n >= 16 {
		v1 := seed + prime1 + prime2
		v2 := seed + prime2
		v3 := seed
		v4 := seed - prime1
		for len(data) >= 16 {
			v1 = round(v1, binary.LittleEndian.Uint32(data[0:4]))
			v2 = round(v2, binary.LittleEndian.Uint32(data[4:8]))
			v3 = round(v3, binary.LittleEndian.Uint32(data[8:12]))
			v4 = round(v4, binary.LittleEndian.Uint32(data[12:16]))
			data = data[16:]
		}
		h = rotl(v1, 1) + rotl(v2, 7) + rotl(v3, 12) + rotl(v4, 18)
	} else {
		h = seed + prime5
	}

	h += uint32(n)

	for len(data) >= 4 {
		h += binary.LittleEndian.Uint32(data[0:4]) * prime3
		h = rotl(h, 17) * prime4
		data = data[4:]
	}
	for _, b := range data {
		h += uint32(b) * prime5
		h = rotl(h, 11) * prime1
	}

	h ^= h >> 15
	h *= prime2
	h ^= h >> 13
	h *= prime3
	h ^= h >> 16
	return h
}

// SumString computes the XXH32 digest of the UTF-8 bytes of s.
func SumString(s string, seed uint32) uint32 {
	return Sum([]byte(s), seed)
}

func round(acc, lane uint32) uint32 {
	acc += lane * prime2
	return rotl(acc, 13) * prime1
}

func rotl(x uint32, r uint) uint32 {
	return x<<r | x>>(32-r)
}
