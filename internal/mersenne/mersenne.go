// Package mersenne implements the 32-bit MT19937 generator used by the game's
// obfuscation layer. The client derives zip passwords and string-cipher keys from
// this generator, so the output has to match the reference implementation word for
// word; do not swap in math/rand or adjust the tempering constants.
package mersenne

import "encoding/binary"

const (
	stateSize = 624
	shiftSize = 397

	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff

	initMultiplier = 1812433253

	temperB = 0x9d2c5680
	temperC = 0xefc60000
)

// Twister is a deterministic MT19937 stream. Two Twisters created with the same
// seed produce identical output. It is not safe for concurrent use; callers
// create one per derivation.
type Twister struct {
	state [stateSize]uint32
	index int
}

// New seeds a Twister with the classic init_genrand routine.
func New(seed uint32) *Twister {
	t := &Twister{index: stateSize}
	t.state[0] = seed
	for i := 1; i < stateSize; i++ {
		prev := t.state[i-1]
		t.state[i] = initMultiplier*(prev^(prev>>30)) + uint32(i)
	}
	return t
}

// Uint32 returns the next tempered 32-bit word.
func (t *Twister) Uint32() uint32 {
	if t.index >= stateSize {
		t.twist()
	}

	y := t.state[t.index]
	t.index++

	y ^= y >> 11
	y ^= (y << 7) & temperB
	y ^= (y << 15) & temperC
	y ^= y >> 18
	return y
}

// NextBytes returns the next n bytes of the stream: successive raw 32-bit words
// serialized little-endian, truncated to n.
func (t *Twister) NextBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	words := (n + 3) / 4
	buf := make([]byte, words*4)
	for i := 0; i < words; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], t.Uint32())
	}
	return buf[:n]
}

func (t *Twister) twist() {
	for i := 0; i < stateSize; i++ {
		y := (t.state[i] & upperMask) | (t.state[(i+1)%stateSize] & lowerMask)
		next := t.state[(i+shiftSize)%stateSize] ^ (y >> 1)
		if y&1 != 0 {
			next ^= matrixA
		}
		t.state[i] = next
	}
	t.index = 0
}
