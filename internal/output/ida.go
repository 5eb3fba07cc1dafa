package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/iridium-toolkit/iridiumcore/internal/ida"
)

// bitsStr renders a slice of 0/1 bytes as an ASCII '0'/'1' string.
func bitsStr(bits []byte) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		out[i] = '0' + b
	}
	return string(out)
}

// FormatIDA renders one IDA: line for a decoded burst, following
// iridium-parser.py's field layout exactly (including the 60-char hex
// dump padding and the da_len==0 special case). ok is false when IDA
// output is suppressed by configuration.
func (f *Formatter) FormatIDA(burst *ida.Burst) (string, bool) {
	if f.cfg.DiagnosticMode {
		return "", false
	}
	f.ensureEpoch(burst.TimestampNS)

	tsMs := float64(burst.TimestampNS-f.t0) / 1e6

	leveldb := -99.99
	if burst.Level > 0 {
		leveldb = 20.0 * math.Log10(burst.Level)
	}

	syms := burst.NumSymbols
	if syms < 0 {
		syms = 0
	}

	line := fmt.Sprintf("IDA: %s %014.4f %010d %3d%% %06.2f|%07.2f|%05.2f %3d %s %s",
		f.parsedInfo, tsMs, burst.FrequencyHz,
		burst.Confidence, leveldb, burst.Noise, burst.Magnitude,
		syms, burst.Direction.String(), burst.LCWHeader)

	bs := burst.BchStream
	if len(bs) < 20 {
		return line, true
	}

	line += bitsStr(bs[0:3])
	line += " cont=" + bitsStr(bs[3:4])
	line += " " + bitsStr(bs[4:5])
	line += " ctr=" + bitsStr(bs[5:8])
	line += " " + bitsStr(bs[8:11])
	line += fmt.Sprintf(" len=%02d", burst.DaLen)
	line += " 0:" + bitsStr(bs[16:20])

	hexPart, nbytes := formatPayloadHex(burst.Payload, burst.DaLen)
	contentLen := nbytes * 3 // hex digits + separators (nbytes*3-1) plus the closing ']'
	pad := 60 - contentLen
	if pad < 0 {
		pad = 0
	}
	line += " [" + hexPart + "]" + strings.Repeat(" ", pad)

	if burst.DaLen > 0 {
		line += fmt.Sprintf(" %04x/%04x", burst.StoredCRC, burst.ComputedCRC)
		if burst.CRCOK {
			line += " CRC:OK"
		} else {
			line += " CRC:no"
		}
	} else {
		line += "  ---   "
	}

	const bodyEnd = 9*20 + 16
	if len(bs) > bodyEnd {
		line += " " + bitsStr(bs[bodyEnd:len(bs)])
	} else {
		line += " 0000"
	}

	if burst.DaLen > 0 && len(bs) >= 9*20 {
		line += " SBD: " + sbdPreview(bs)
	}

	return line, true
}

// formatPayloadHex builds the bracket-interior hex dump per the da_len==0
// / all-zero-tail / mixed-tail cases, and returns the byte count actually
// printed (needed for the 60-column padding calculation).
func formatPayloadHex(payload [20]byte, daLen int) (string, int) {
	if daLen <= 0 {
		return joinHex(payload[:20], -1), 20
	}

	allZero := true
	for i := daLen; i < 20; i++ {
		if payload[i] != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return joinHex(payload[:daLen], -1), daLen
	}
	return joinHex(payload[:20], daLen), 20
}

// joinHex renders bytes as dotted hex pairs, using '!' instead of '.' at
// the boundary position (if boundary >= 0 and interior to the slice).
func joinHex(bytes []byte, boundary int) string {
	var sb strings.Builder
	for i, b := range bytes {
		if i > 0 {
			if i == boundary && boundary > 0 && boundary < len(bytes) {
				sb.WriteByte('!')
			} else {
				sb.WriteByte('.')
			}
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// sbdPreview extracts the 20 bytes spanning bch_stream bits [20:180) --
// the SBD application payload -- and renders printable ASCII, '.' elsewhere.
func sbdPreview(bs []byte) string {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		var v byte
		for b := 0; b < 8; b++ {
			v = (v << 1) | bs[20+i*8+b]
		}
		if v >= 32 && v < 127 {
			sb.WriteByte(v)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
