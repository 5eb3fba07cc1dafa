package ida

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// encodeBCH builds an n-bit systematic codeword (data in the top bits,
// parity in the bottom deg bits) for the given generator, mirroring the
// encode half of the decoders under test.
func encodeBCH(data uint64, dataBits, deg int, poly uint64) []byte {
	n := dataBits + deg
	shifted := data << uint(deg)
	bits := make([]byte, n)
	for i := 0; i < n; i++ {
		bits[i] = byte((shifted >> uint(n-1-i)) & 1)
	}
	// Compute parity via the same remainder function, then fold it in.
	rem := remainderBits(bits, n, poly, deg)
	for i := 0; i < deg; i++ {
		bits[n-deg+i] = byte((rem >> uint(deg-1-i)) & 1)
	}
	return bits
}

func remainderBits(bits []byte, n int, poly uint64, deg int) uint64 {
	mask := uint64(1)<<uint(deg) - 1
	polyLow := poly & mask
	var reg uint64
	for i := 0; i < n; i++ {
		msb := (reg >> uint(deg-1)) & 1
		reg = ((reg << 1) | uint64(bits[i]&1)) & mask
		if msb == 1 {
			reg ^= polyLow
		}
	}
	return reg
}

// encodeLCW builds the 46 pre-permutation, pre-pair-swap bits for a given
// (ft, lcw_ft, lcw_code, lcw3_val) tuple, inverting DecodeLCW's pipeline.
func encodeLCW(ft, lcwFT, lcwCode int, lcw3Val uint32) []byte {
	// lcw1 has 3 data bits -> exactly ft.
	cw1 := encodeBCH(uint64(ft), 3, 4, 29)

	lcw2Data := uint64(lcwFT)<<4 | uint64(lcwCode)
	cw2Full := encodeBCH(lcw2Data, 6, 8, 465) // 14 bits
	cw2 := cw2Full[:13]                       // drop the trailing pad bit fed into the BCH codeword

	cw3 := encodeBCH(uint64(lcw3Val), 21, 5, 41)

	perm := make([]byte, 46)
	copy(perm[0:7], cw1)
	copy(perm[7:20], cw2)
	copy(perm[20:46], cw3)

	// Invert the permutation: perm[i] = swapped[lcwPerm[i]-1]
	swapped := make([]byte, 46)
	for i, p := range lcwPerm {
		swapped[p-1] = perm[i]
	}

	// Invert the pair-swap.
	bits := make([]byte, 46)
	for i := 0; i < 46; i += 2 {
		bits[i] = swapped[i+1]
		bits[i+1] = swapped[i]
	}
	return bits
}

// validLCW2Data lists the 6-bit (lcw_ft<<4|lcw_code) combinations whose
// BCH(14,6,1) codeword ends in a 0 bit, so the 13 transmitted bits plus the
// receiver's zero pad reproduce the codeword with no correction. For the
// other half of the 6-bit space the zero pad differs from the last codeword
// bit, and DecodeLCW recovers the value only by spending lcw2's single-bit
// correction on the pad.
var validLCW2Data = func() []int {
	var out []int
	for d := 0; d < 64; d++ {
		cw := encodeBCH(uint64(d), 6, 8, 465)
		if cw[len(cw)-1] == 0 {
			out = append(out, d)
		}
	}
	return out
}()

func TestLCWRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ft := rapid.IntRange(0, 7).Draw(t, "ft")
		data := rapid.SampledFrom(validLCW2Data).Draw(t, "lcw2_data")
		lcwFT := (data >> 4) & 0x3
		lcwCode := data & 0xF
		lcw3Val := uint32(rapid.IntRange(0, (1<<21)-1).Draw(t, "lcw3_val"))

		bits := encodeLCW(ft, lcwFT, lcwCode, lcw3Val)
		got, ok := DecodeLCW(bits)
		require.True(t, ok)
		assert.Equal(t, ft, got.FT)
		assert.Equal(t, lcwFT, got.LCWFT)
		assert.Equal(t, lcwCode, got.LCWCode)
		assert.Equal(t, lcw3Val, got.LCW3Val)
	})
}

func TestLCWSingleBitFlipRecovered(t *testing.T) {
	bits := encodeLCW(2, 1, 3, 0x1ABCD&((1<<21)-1))
	// Flip one bit within the lcw1 span (post pair-swap/perm space is hard
	// to target directly, so flip pre-transform bit 0, which maps into the
	// lcw1 codeword through the permutation).
	flipped := append([]byte(nil), bits...)
	flipped[0] ^= 1
	got, ok := DecodeLCW(flipped)
	require.True(t, ok)
	assert.Equal(t, 2, got.FT)
	assert.Equal(t, 1, got.LCWFT)
	assert.Equal(t, 3, got.LCWCode)
}

func TestFormatLCWHeaderWidth(t *testing.T) {
	bits := encodeLCW(2, 0, 3, 0)
	lcw, ok := DecodeLCW(bits)
	require.True(t, ok)
	header := FormatLCWHeader(lcw)
	assert.Equal(t, 111, len(header))
	assert.Equal(t, byte(' '), header[len(header)-1])
}
