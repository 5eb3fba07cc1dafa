package ambe

import "math"

// PlaceholderDecoder is a deterministic stand-in for a licensed AMBE
// codec: it is NOT bit-accurate AMBE. It derives a pitch and gain seed
// from the payload bytes and synthesizes a parametric multi-band
// excitation waveform, giving the voice pipeline something audible and
// reproducible to exercise end to end. Real deployments substitute a
// licensed implementation behind the Decoder interface.
type PlaceholderDecoder struct {
	sampleRate int
	phase      float64
}

// NewPlaceholderDecoder returns a placeholder AMBE decoder sampling at
// sampleRate Hz (8000 for the Iridium voice channel).
func NewPlaceholderDecoder(sampleRate int) *PlaceholderDecoder {
	return &PlaceholderDecoder{sampleRate: sampleRate}
}

// DecodeSuperframe synthesizes SamplesPerSuperframe PCM samples from the
// payload bytes. Every sub-frame half of the payload is treated as
// "recoverable" (subframesOK=2); a one-byte payload fills only the first
// sub-frame (subframesOK=1), and an empty or all-zero payload is treated
// as FEC failure (subframesOK=0, nil PCM) -- the same shape of
// success/failure signal a real decoder reports, without claiming to
// perform real error correction.
func (d *PlaceholderDecoder) DecodeSuperframe(payload []byte) ([]int16, int, error) {
	if len(payload) == 0 {
		return nil, 0, nil
	}

	allZero := true
	for _, b := range payload {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, 0, nil
	}

	half := len(payload) / 2
	if half == 0 {
		half = len(payload)
	}

	pcm := make([]int16, SamplesPerSuperframe)
	subframesOK := 0

	for sf := 0; sf < 2; sf++ {
		start := sf * half
		end := start + half
		if start >= len(payload) {
			continue
		}
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[start:end]
		if len(chunk) == 0 {
			continue
		}

		pitchSeed, gainSeed := seedFromBytes(chunk)
		freq := 80.0 + pitchSeed*240.0   // 80-320 Hz, voice pitch range
		gain := 2000.0 + gainSeed*10000.0 // amplitude seed

		samplesPerSub := SamplesPerSuperframe / 2
		off := sf * samplesPerSub
		for i := 0; i < samplesPerSub && off+i < len(pcm); i++ {
			t := float64(i) / float64(d.sampleRate)
			v := gain * math.Sin(2*math.Pi*freq*t+d.phase)
			v += 0.3 * gain * math.Sin(2*math.Pi*2*freq*t+d.phase)
			pcm[off+i] = clampInt16(v)
		}
		d.phase += 2 * math.Pi * freq * float64(samplesPerSub) / float64(d.sampleRate)
		subframesOK++
	}

	return pcm, subframesOK, nil
}

// seedFromBytes derives two values in [0,1) from a byte chunk, used as
// deterministic pitch/gain seeds.
func seedFromBytes(chunk []byte) (float64, float64) {
	var a, b uint32
	for i, c := range chunk {
		if i%2 == 0 {
			a = a*31 + uint32(c)
		} else {
			b = b*37 + uint32(c)
		}
	}
	return float64(a%1000) / 1000.0, float64(b%1000) / 1000.0
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
