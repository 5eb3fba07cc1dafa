package ida

import (
	"fmt"

	"github.com/iridium-toolkit/iridiumcore/internal/bitpack"
	"github.com/iridium-toolkit/iridiumcore/internal/gf2"
)

// lcwPerm is the fixed 46-entry 1-indexed de-interleave permutation applied
// to the pair-swapped LCW bits before the three BCH codewords are split
// out. Verbatim from the iridium-toolkit bitsparser LCW table.
var lcwPerm = [46]int{
	40, 39, 36, 35, 32, 31, 28, 27, 24, 23,
	20, 19, 16, 15, 12, 11, 8, 7, 4, 3,
	41, 38, 37, 34, 33, 30, 29, 26, 25, 22,
	21, 18, 17, 14, 13, 10, 9, 6, 5, 2,
	1, 46, 45, 44, 43, 42,
}

// LCW is the decoded Link Control Word: frame type plus the maintenance /
// handoff metadata carried in the remaining two sub-fields.
type LCW struct {
	FT      int // 3-bit frame type; only ft=2 denotes an IDA frame
	LCWFT   int // 2-bit sub-type
	LCWCode int // 4-bit code within the sub-type
	LCW3Val uint32
	ErrCount int // number of BCH components that required correction
}

// DecodeLCW extracts and error-corrects the LCW carried in bits[0:46].
// Returns ok=false if any of the three interleaved BCH codewords exceeds
// its correction radius.
func DecodeLCW(bits []byte) (LCW, bool) {
	if len(bits) < 46 {
		return LCW{}, false
	}

	// Pair-swap: undoes an omitted global symbol reversal upstream of the
	// permutation table.
	var swapped [46]byte
	for i := 0; i < 46; i += 2 {
		swapped[i] = bits[i+1]
		swapped[i+1] = bits[i]
	}

	var perm [46]byte
	for i, p := range lcwPerm {
		perm[i] = swapped[p-1]
	}

	// lcw1: bits 0-6, BCH(7,3,1), generator 29.
	lcw1 := append([]byte(nil), perm[0:7]...)
	v1 := bitpack.PackMSBFirst(lcw1, 0, 7)
	s1 := gf2.Remainder(lcw1, 7, 29, 4)
	if s1 != 0 {
		errMask, ok := gf2.LCW1Table().Lookup(s1)
		if !ok {
			return LCW{}, false
		}
		v1 ^= errMask
	}
	ft := int(v1>>4) & 0x7

	// lcw2: bits 7-19 (13 bits) + trailing zero pad = 14 bits, generator 465.
	lcw2 := make([]byte, 14)
	copy(lcw2, perm[7:20])
	v2 := bitpack.PackMSBFirst(lcw2, 0, 14)
	s2 := gf2.Remainder(lcw2, 14, 465, 8)
	if s2 != 0 {
		errMask, ok := gf2.LCW2Table().Lookup(s2)
		if !ok {
			return LCW{}, false
		}
		v2 ^= errMask
	}

	// lcw3: bits 20-45, 26 bits, generator 41.
	lcw3 := append([]byte(nil), perm[20:46]...)
	v3 := bitpack.PackMSBFirst(lcw3, 0, 26)
	s3 := gf2.Remainder(lcw3, 26, 41, 5)
	if s3 != 0 {
		errMask, ok := gf2.LCW3Table().Lookup(s3)
		if !ok {
			return LCW{}, false
		}
		v3 ^= errMask
	}

	lcw2Data := int(v2>>8) & 0x3F
	lcw3Data := uint32(v3 >> 5)

	errCount := 0
	if s1 != 0 {
		errCount++
	}
	if s2 != 0 {
		errCount++
	}
	if s3 != 0 {
		errCount++
	}

	return LCW{
		FT:       ft,
		LCWFT:    (lcw2Data >> 4) & 0x3,
		LCWCode:  lcw2Data & 0xF,
		LCW3Val:  lcw3Data,
		ErrCount: errCount,
	}, true
}

func lcw3Bits(val uint32, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte((val >> uint(n-1-i)) & 1)
	}
	return out
}

func bitsToInt(bits []byte) int {
	var v int
	for _, b := range bits {
		v = (v << 1) | int(b)
	}
	return v
}

func bitsToString(bits []byte) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		out[i] = '0' + b
	}
	return string(out)
}

// FormatLCWHeader renders lcw as the fixed-width "LCW(...)" header string
// used in the IDA parsed output line. The mapping from (lcw_ft, lcw_code)
// to a category and its sub-fields mirrors iridium-toolkit's pretty_lcw.
func FormatLCWHeader(lcw LCW) string {
	b := lcw3Bits(lcw.LCW3Val, 21)

	var ty, code, remain string

	switch lcw.LCWFT {
	case 0:
		ty = "maint"
		switch lcw.LCWCode {
		case 0:
			status := int(b[1])
			dtoa := bitsToInt(b[3:13])
			dfoa := bitsToInt(b[13:21])
			code = fmt.Sprintf("sync[status:%d,dtoa:%d,dfoa:%d]", status, dtoa, dfoa)
			remain = fmt.Sprintf("%c|%c", '0'+b[0], '0'+b[2])
		case 1:
			dtoa := bitsToInt(b[3:13])
			dfoa := bitsToInt(b[13:21])
			code = fmt.Sprintf("switch[dtoa:%d,dfoa:%d]", dtoa, dfoa)
			remain = bitsToString(b[0:3])
		case 3:
			lqi := int(b[1])*2 + int(b[2])
			power := bitsToInt(b[3:6])
			fDtoa := bitsToInt(b[6:13])
			fDfoa := bitsToInt(b[13:20])
			code = fmt.Sprintf("maint[2][lqi:%d,power:%d,f_dtoa:%d,f_dfoa:%d]", lqi, power, fDtoa, fDfoa)
			remain = fmt.Sprintf("%c|%c", '0'+b[0], '0'+b[20])
		case 6:
			code = "geoloc"
			remain = bitsToString(b)
		case 12:
			lqi := int(b[19])*2 + int(b[20])
			power := bitsToInt(b[16:19])
			code = fmt.Sprintf("maint[1][lqi:%d,power:%d]", lqi, power)
			remain = bitsToString(b[0:16])
		case 15:
			code = "<silent>"
			remain = bitsToString(b)
		default:
			code = fmt.Sprintf("rsrvd(%d)", lcw.LCWCode)
			remain = bitsToString(b)
		}
	case 1:
		ty = "acchl"
		if lcw.LCWCode == 1 {
			msgType := bitsToInt(b[1:4])
			blocNum := int(b[4])
			sapiCode := bitsToInt(b[5:8])
			segm := bitsToString(b[8:16])
			code = fmt.Sprintf("acchl[msg_type:%01x,bloc_num:%01x,sapi_code:%01x,segm_list:%s]", msgType, blocNum, sapiCode, segm)
			tail := bitsToInt(b[16:21])
			remain = fmt.Sprintf("%c,%02x", '0'+b[0], tail)
		} else {
			code = fmt.Sprintf("rsrvd(%d)", lcw.LCWCode)
			remain = bitsToString(b)
		}
	case 2:
		ty = "hndof"
		switch lcw.LCWCode {
		case 3:
			cand := byte('P')
			if b[2] != 0 {
				cand = 'S'
			}
			denied := int(b[3])
			ref := int(b[4])
			slot := 1 + int(b[6])*2 + int(b[7])
			sbandUp := bitsToInt(b[8:13])
			sbandDn := bitsToInt(b[13:18])
			access := bitsToInt(b[18:21]) + 1
			code = fmt.Sprintf("handoff_resp[cand:%c,denied:%d,ref:%d,slot:%d,sband_up:%d,sband_dn:%d,access:%d]",
				cand, denied, ref, slot, sbandUp, sbandDn, access)
			remain = fmt.Sprintf("%s,%c", bitsToString(b[0:2]), '0'+b[5])
		case 12:
			code = "handoff_cand"
			remain = fmt.Sprintf("%s,%s", bitsToString(b[0:11]), bitsToString(b[11:21]))
		case 15:
			code = "<silent>"
			remain = bitsToString(b)
		default:
			code = fmt.Sprintf("rsrvd(%d)", lcw.LCWCode)
			remain = bitsToString(b)
		}
	default:
		ty = "rsrvd"
		code = fmt.Sprintf("<%d>", lcw.LCWCode)
		remain = bitsToString(b)
	}

	raw := fmt.Sprintf("LCW(%d,T:%s,C:%s,%s)", lcw.FT, ty, code, remain)
	return fmt.Sprintf("%-110s ", raw)
}
