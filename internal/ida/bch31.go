package ida

import (
	"math"

	"github.com/iridium-toolkit/iridiumcore/internal/gf2"
)

const (
	bchPolyDA  = 3545
	bchDASyn   = 11 // syndrome width: bit_length(3545)-1
	bchDAData  = 20 // 31 - 11
	chaseFlips = 5
)

// chaseBCH31 decodes one 31-bit BCH(31,20,t=2) chunk, falling back to Chase
// soft-decision search over the 5 least-reliable bits when the hard
// syndrome lookup fails to correct it. llr31 may be nil, in which case the
// Chase path is skipped and a hard-decision miss is terminal.
//
// Returns the 20 decoded data bits, whether any bits were flipped, and ok.
func chaseBCH31(block31 []byte, llr31 []float64) (data []byte, fixed bool, ok bool) {
	val := bitsToUint(block31, 31)
	syn := gf2.Remainder(block31, 31, bchPolyDA, bchDASyn)

	if syn == 0 {
		return uintToBits(val>>bchDASyn, bchDAData), false, true
	}

	if errMask, found := gf2.DATable().Lookup(syn); found {
		val ^= errMask
		return uintToBits(val>>bchDASyn, bchDAData), true, true
	}

	if llr31 == nil {
		return nil, false, false
	}

	// Sort the 31 bit positions by ascending |LLR| (least reliable first).
	pos := make([]int, 31)
	for i := range pos {
		pos[i] = i
	}
	for i := 0; i < chaseFlips; i++ {
		minIdx := i
		for j := i + 1; j < 31; j++ {
			if math.Abs(llr31[pos[j]]) < math.Abs(llr31[pos[minIdx]]) {
				minIdx = j
			}
		}
		pos[i], pos[minIdx] = pos[minIdx], pos[i]
	}

	var flipMask [chaseFlips]uint64
	for i := 0; i < chaseFlips; i++ {
		flipMask[i] = uint64(1) << uint(30-pos[i])
	}

	base := bitsToUint(block31, 31)
	for mask := 1; mask < (1 << chaseFlips); mask++ {
		flipped := base
		for b := 0; b < chaseFlips; b++ {
			if mask&(1<<uint(b)) != 0 {
				flipped ^= flipMask[b]
			}
		}

		bits := uintToBits(flipped, 31)
		syn = gf2.Remainder(bits, 31, bchPolyDA, bchDASyn)
		if syn == 0 {
			return uintToBits(flipped>>bchDASyn, bchDAData), true, true
		}
		if errMask, found := gf2.DATable().Lookup(syn); found {
			flipped ^= errMask
			return uintToBits(flipped>>bchDASyn, bchDAData), true, true
		}
	}

	return nil, false, false
}

func bitsToUint(bits []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v = (v << 1) | uint64(bits[i]&1)
	}
	return v
}

func uintToBits(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte((v >> uint(n-1-i)) & 1)
	}
	return out
}

// deinterleaveN splits n_sym symbol-pairs (2*n_sym input bits) into two
// n_sym-bit halves. half1 collects symbol pairs at positions
// {n_sym-1, n_sym-3, ..., 1} and half2 at {n_sym-2, n_sym-4, ..., 0}, each
// preserving intra-pair bit order -- the inverse of the transmitter's
// symbol interleaver.
func deinterleaveN(in []byte, nSym int) (half1, half2 []byte) {
	half1 = make([]byte, nSym)
	half2 = make([]byte, nSym)
	p := 0
	for s := nSym - 1; s >= 1; s -= 2 {
		half1[p] = in[2*s]
		half1[p+1] = in[2*s+1]
		p += 2
	}
	p = 0
	for s := nSym - 2; s >= 0; s -= 2 {
		half2[p] = in[2*s]
		half2[p+1] = in[2*s+1]
		p += 2
	}
	return half1, half2
}

func deinterleaveLLRN(in []float64, nSym int) (half1, half2 []float64) {
	half1 = make([]float64, nSym)
	half2 = make([]float64, nSym)
	p := 0
	for s := nSym - 1; s >= 1; s -= 2 {
		half1[p] = in[2*s]
		half1[p+1] = in[2*s+1]
		p += 2
	}
	p = 0
	for s := nSym - 2; s >= 0; s -= 2 {
		half2[p] = in[2*s]
		half2[p+1] = in[2*s+1]
		p += 2
	}
	return half1, half2
}

// orderDA is the chunk reorder applied to the 4 concatenated 31-bit chunks
// of a de-interleaved 124-bit block, matching the transmitter interleaver.
var orderDA = [4]int{3, 1, 2, 0}

// DescramblePayload de-interleaves and BCH(31,20)-decodes data (the bits
// following the 46-bit LCW), returning the concatenated decoded data bits
// (20 bits per successfully decoded chunk) and the number of chunks that
// required bit-flip correction. llr may be nil for hard-decision-only
// frames. Decoding stops at the first chunk that cannot be corrected.
func DescramblePayload(data []byte, llr []float64) (bchStream []byte, fixedErrs int) {
	nFull := len(data) / 124
	remain := len(data) % 124

	for blk := 0; blk < nFull; blk++ {
		block := data[blk*124 : blk*124+124]
		var blockLLR []float64
		if llr != nil {
			blockLLR = llr[blk*124 : blk*124+124]
		}

		half1, half2 := deinterleaveN(block, 62)
		var lhalf1, lhalf2 []float64
		if blockLLR != nil {
			lhalf1, lhalf2 = deinterleaveLLRN(blockLLR, 62)
		}

		combined := append(append([]byte(nil), half1...), half2...)
		var lcombined []float64
		if blockLLR != nil {
			lcombined = append(append([]float64(nil), lhalf1...), lhalf2...)
		}

		stop := false
		for _, c := range orderDA {
			off := c * 31
			var chunkLLR []float64
			if lcombined != nil {
				chunkLLR = lcombined[off : off+31]
			}
			out, fixed, ok := chaseBCH31(combined[off:off+31], chunkLLR)
			if !ok {
				stop = true
				break
			}
			if fixed {
				fixedErrs++
			}
			bchStream = append(bchStream, out...)
		}
		if stop {
			return bchStream, fixedErrs
		}
	}

	// Partial tail block.
	if remain >= 4 {
		nSymLast := remain / 2
		tail := data[nFull*124:]
		var tailLLR []float64
		if llr != nil {
			tailLLR = llr[nFull*124:]
		}

		h1, h2 := deinterleaveN(tail, nSymLast)
		var lh1, lh2 []float64
		if tailLLR != nil {
			lh1, lh2 = deinterleaveLLRN(tailLLR, nSymLast)
		}

		if nSymLast > 1 {
			var combined []byte
			var lcombined []float64
			for i := 1; i < nSymLast; i++ {
				combined = append(combined, h2[i])
				if tailLLR != nil {
					lcombined = append(lcombined, lh2[i])
				}
			}
			for i := 1; i < nSymLast; i++ {
				combined = append(combined, h1[i])
				if tailLLR != nil {
					lcombined = append(lcombined, lh1[i])
				}
			}

			pos := 0
			for pos+31 <= len(combined) {
				var chunkLLR []float64
				if lcombined != nil {
					chunkLLR = lcombined[pos : pos+31]
				}
				out, fixed, ok := chaseBCH31(combined[pos:pos+31], chunkLLR)
				if !ok {
					break
				}
				if fixed {
					fixedErrs++
				}
				bchStream = append(bchStream, out...)
				pos += 31
			}
		}
	}

	return bchStream, fixedErrs
}
