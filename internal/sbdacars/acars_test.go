package sbdacars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oddParity sets bit 7 so the byte's total popcount is odd, matching the
// encoder side of the 7-bit-plus-odd-parity ACARS character scheme.
func oddParity(c byte) byte {
	bits := 0
	for b := c; b != 0; b >>= 1 {
		bits += int(b & 1)
	}
	if bits%2 == 0 {
		return c | 0x80
	}
	return c &^ 0x80
}

func parityEncode(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = oddParity(s[i])
	}
	return out
}

// buildAcarsBody assembles the 12-byte fixed header plus text body (all
// odd-parity encoded), appends the Kermit CRC and trailing 0x7f, and
// prepends the 0x01 ACARS marker -- the inverse of parseAcars.
func buildAcarsBody(mode byte, tail string, ack byte, label string, blockID byte, text string) []byte {
	var body []byte
	body = append(body, mode)
	reg := make([]byte, 7)
	copy(reg, []byte(tail))
	for i := len(tail); i < 7; i++ {
		reg[i] = '.'
	}
	// registration is right-justified in 7 bytes with leading dot padding
	padded := make([]byte, 7)
	pad := 7 - len(tail)
	for i := 0; i < pad; i++ {
		padded[i] = '.'
	}
	copy(padded[pad:], tail)
	body = append(body, padded...)
	body = append(body, ack)
	body = append(body, label[0], label[1])
	body = append(body, blockID)
	body = append(body, text...)

	encoded := parityEncode(string(body))

	crc := crc16Kermit(append(append([]byte(nil), encoded...), 0, 0))
	_ = crc
	// Compute the real trailing CRC bytes such that encoded+csum has
	// crc16Kermit==0: since Kermit CRC is linear over GF(2) feed, we can
	// just compute crc over encoded and use it directly as the two
	// trailing bytes (crc16_kermit(msg + crc_bytes_of(msg)) == 0 is the
	// standard Kermit check property when csum is appended exactly as
	// computed, big-endian swapped per the reflected convention: low byte
	// first matches how acars_parse reads csum[0],csum[1] directly into
	// the verification buffer, so we must append the two bytes in the
	// same order the verifier re-assembles them).
	c := crc16Kermit(encoded)
	csum := []byte{byte(c & 0xff), byte(c >> 8)}

	full := append([]byte{0x01}, encoded...)
	full = append(full, csum...)
	full = append(full, 0x7f)
	return full
}

func TestParseAcarsDownlinkText(t *testing.T) {
	text := "\x02HELLO\x03"
	msg := buildAcarsBody('2', "N12345", 0x15, "H1", 'A', text)
	acars, ok := parseAcars(msg, false, 0, 1626000000, 10.0)
	require.True(t, ok)
	assert.Equal(t, byte('2'), acars.Mode)
	assert.Equal(t, "N12345", acars.Tail)
	assert.Equal(t, "H1", acars.LabelDisplay(true))
	assert.Equal(t, byte('A'), acars.BlockID)
	assert.Equal(t, "HELLO", acars.Text)
	assert.True(t, acars.BlockEnd)
	assert.Equal(t, 0, acars.Errors)
}

func TestParseAcarsUplinkSeqFlight(t *testing.T) {
	text := "\x02A123AB1234HELLO"
	msg := buildAcarsBody('2', "N99999", '1', "H1", 'A', text)
	acars, ok := parseAcars(msg, true, 0, 1626000000, 10.0)
	require.True(t, ok)
	assert.Equal(t, "A123", acars.Seq)
	assert.Equal(t, "AB1234", acars.Flight)
	assert.Equal(t, "HELLO", acars.Text)
}

func TestParseAcarsBadCRCFlagged(t *testing.T) {
	msg := buildAcarsBody('2', "N12345", 0x15, "H1", 'A', "\x02HI\x03")
	msg[len(msg)-2] ^= 0xff // corrupt a CRC byte
	acars, ok := parseAcars(msg, false, 0, 1626000000, 10.0)
	require.True(t, ok)
	assert.Greater(t, acars.Errors, 0)
}

func TestParseAcarsTooShortRejected(t *testing.T) {
	_, ok := parseAcars([]byte{0x01, 0x02, 0x03}, false, 0, 0, 0)
	assert.False(t, ok)
}

func TestParseAcarsWrongMarkerRejected(t *testing.T) {
	_, ok := parseAcars([]byte{0x02, 0x02, 0x03, 0x04}, false, 0, 0, 0)
	assert.False(t, ok)
}
