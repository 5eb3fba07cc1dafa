package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iridium-toolkit/iridiumcore/internal/demod"
	"github.com/iridium-toolkit/iridiumcore/internal/ida"
	"github.com/iridium-toolkit/iridiumcore/internal/sbdacars"
)

func TestFormatRAWSuppressedInDiagnosticMode(t *testing.T) {
	f := NewFormatter(Config{DiagnosticMode: true})
	frame := &demod.Frame{TimestampNS: 1_000_000_000, Bits: []byte{0, 1, 1}}
	_, ok := f.FormatRAW(frame)
	assert.False(t, ok)
}

func TestFormatRAWBasicFields(t *testing.T) {
	f := NewFormatter(Config{})
	frame := &demod.Frame{
		TimestampNS: 1_626_000_000_000_000_000,
		FrequencyHz: 1626000000,
		ID:          42,
		Magnitude:   12.34,
		Noise:       -5.5,
		Confidence:  87,
		Level:       0.5,
		NumSymbols:  100,
		Bits:        []byte{0, 1, 0, 1},
	}
	line, ok := f.FormatRAW(frame)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(line, "RAW: i-1626000000-t1 "))
	assert.True(t, strings.HasSuffix(line, "0101"))
	assert.Contains(t, line, "I:00000000042")
	assert.Contains(t, line, "87%")
}

func TestFormatIDAZeroLenUsesDashCRC(t *testing.T) {
	f := NewFormatter(Config{})
	bchStream := make([]byte, 200)
	burst := &ida.Burst{
		TimestampNS: 1_000_000_000,
		FrequencyHz: 1626000000,
		Direction:   demod.Downlink,
		Confidence:  90,
		Level:       1.0,
		DaLen:       0,
		BchStream:   bchStream,
		LCWHeader:   strings.Repeat(" ", 111),
	}
	line, ok := f.FormatIDA(burst)
	require.True(t, ok)
	assert.Contains(t, line, "  ---   ")
	assert.Contains(t, line, "len=00")
}

func TestFormatIDAHexPaddingReaches60Columns(t *testing.T) {
	f := NewFormatter(Config{})
	bchStream := make([]byte, 200)
	bchStream[3] = 1 // cont
	var payload [20]byte
	copy(payload[:], []byte("HELLOWORLD"))
	burst := &ida.Burst{
		TimestampNS: 1_000_000_000,
		FrequencyHz: 1626000000,
		Direction:   demod.Uplink,
		Confidence:  90,
		Level:       1.0,
		DaLen:       10,
		CRCOK:       true,
		Payload:     payload,
		BchStream:   bchStream,
		LCWHeader:   strings.Repeat(" ", 111),
	}
	line, ok := f.FormatIDA(burst)
	require.True(t, ok)

	openIdx := strings.Index(line, "[")
	closeIdx := strings.Index(line, "]")
	require.Greater(t, closeIdx, openIdx)
	// Content after ']' up to the CRC section is padding spaces bringing
	// the hex-dump-plus-bracket run to 60 columns.
	crcIdx := closeIdx + strings.Index(line[closeIdx:], " 0000/0000")
	require.Greater(t, crcIdx, closeIdx)
	runLen := crcIdx - (openIdx + 1)
	assert.Equal(t, 60, runLen)
	assert.Contains(t, line, "48.45.4c.4c.4f.57.4f.52.4c.44")
}

func TestFormatAcarsJSONFields(t *testing.T) {
	f := NewFormatter(Config{StationID: "KXYZ"})
	a := sbdacars.Acars{
		Uplink:      false,
		TimestampNS: 1_000_000_000,
		FrequencyHz: 1626000000,
		Magnitude:   10.5,
		Mode:        '2',
		Tail:        "N12345",
		Label0:      'H',
		Label1:      '1',
		BlockID:     'A',
		Text:        "HELLO",
		BlockEnd:    true,
	}
	line, ok := f.FormatAcarsJSON(a)
	require.True(t, ok)
	assert.Contains(t, line, `"station_id":"KXYZ"`)
	assert.Contains(t, line, `"link_direction":"downlink"`)
	assert.Contains(t, line, `"mode":"2"`)
	assert.Contains(t, line, `"tail":"N12345"`)
	assert.Contains(t, line, `"label":"H1"`)
	assert.Contains(t, line, `"block_id":"A"`)
	assert.Contains(t, line, `"text":"HELLO"`)
	assert.Contains(t, line, `"block_end":true`)
}

func TestFormatAcarsJSONSuppressedOnError(t *testing.T) {
	f := NewFormatter(Config{StationID: "KXYZ"})
	a := sbdacars.Acars{
		Uplink:      false,
		TimestampNS: 1_000_000_000,
		FrequencyHz: 1626000000,
		Mode:        '2',
		Tail:        "N12345",
		Label0:      'H',
		Label1:      '1',
		BlockID:     'A',
		Text:        "HELLO",
		BlockEnd:    true,
		Errors:      1,
	}
	line, ok := f.FormatAcarsJSON(a)
	assert.False(t, ok)
	assert.Empty(t, line)
}

func TestFormatAcarsTextNakTag(t *testing.T) {
	f := NewFormatter(Config{})
	a := sbdacars.Acars{
		Uplink:  false,
		Mode:    '2',
		Tail:    "N12345",
		IsNak:   true,
		Label0:  'H',
		Label1:  '1',
		BlockID: 'A',
		Errors:  1,
	}
	line := f.FormatAcarsText(a)
	assert.Contains(t, line, "NAK")
	assert.Contains(t, line, "ERRORS")
}
