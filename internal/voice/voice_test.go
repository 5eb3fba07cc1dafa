package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iridium-toolkit/iridiumcore/internal/ambe"
	"github.com/iridium-toolkit/iridiumcore/internal/demod"
)

func payloadFor(seed byte) []byte {
	p := make([]byte, 8)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

func TestClustererArchivesCompleteCall(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	freq := 1626000000.0
	for i := 0; i < 5; i++ {
		c.AddFrame(demod.VocData{
			Payload:     payloadFor(byte(i + 1)),
			TimestampNS: uint64(i) * 90_000_000,
			FrequencyHz: freq,
		})
	}
	c.Flush()

	require.Equal(t, 1, c.CallCount())
	call, ok := c.GetCall(0)
	require.True(t, ok)
	assert.Equal(t, 5, call.NFrames)
	assert.Greater(t, call.NSamples, 0)
}

func TestClustererDropsShortCall(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	c.AddFrame(demod.VocData{Payload: payloadFor(1), TimestampNS: 0, FrequencyHz: 1626000000})
	c.AddFrame(demod.VocData{Payload: payloadFor(2), TimestampNS: 90_000_000, FrequencyHz: 1626000000})
	c.Flush()

	assert.Equal(t, 0, c.CallCount())
}

func TestClustererSplitsOnTimeGap(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	freq := 1626000000.0
	for i := 0; i < 4; i++ {
		c.AddFrame(demod.VocData{Payload: payloadFor(byte(i + 1)), TimestampNS: uint64(i) * 90_000_000, FrequencyHz: freq})
	}
	// 25s gap exceeds the 20s cluster timeout -- starts a new call.
	for i := 0; i < 4; i++ {
		ts := uint64(25_000_000_000 + i*90_000_000)
		c.AddFrame(demod.VocData{Payload: payloadFor(byte(i + 10)), TimestampNS: ts, FrequencyHz: freq})
	}
	c.Flush()

	assert.Equal(t, 2, c.CallCount())
}

func TestClustererSeparatesByFrequency(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	for i := 0; i < 4; i++ {
		c.AddFrame(demod.VocData{Payload: payloadFor(byte(i + 1)), TimestampNS: uint64(i) * 90_000_000, FrequencyHz: 1626000000})
	}
	for i := 0; i < 4; i++ {
		c.AddFrame(demod.VocData{Payload: payloadFor(byte(i + 1)), TimestampNS: uint64(i) * 90_000_000, FrequencyHz: 1626100000})
	}
	c.Flush()

	assert.Equal(t, 2, c.CallCount())
}

func TestGetCallOutOfRange(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	_, ok := c.GetCall(0)
	assert.False(t, ok)
}

// TestArchiveEvictsOldestBeyondCapacity drives 101 distinct completed calls
// through a single clusterer -- one more than the archive holds -- and
// checks the ring buffer evicted call 0, keeping the newest 100.
func TestArchiveEvictsOldestBeyondCapacity(t *testing.T) {
	c := NewClusterer(ambe.NewPlaceholderDecoder(8000))
	freq := 1626000000.0
	const calls = maxArchiveCalls + 1

	var ts uint64
	for call := 0; call < calls; call++ {
		for i := 0; i < 5; i++ {
			c.AddFrame(demod.VocData{
				Payload:     payloadFor(byte(i + 1)),
				TimestampNS: ts,
				FrequencyHz: freq,
			})
			ts += 90_000_000
		}
		// Gap exceeds the cluster timeout so the next iteration's frames
		// start a new call instead of extending this one.
		ts += uint64((clusterTimeSec + 1) * 1e9)
	}
	c.Flush()

	require.Equal(t, calls, c.TotalCalls())
	require.Equal(t, maxArchiveCalls, c.CallCount())

	oldest, ok := c.GetCall(0)
	require.True(t, ok)
	assert.Equal(t, 1, oldest.ID)
}
