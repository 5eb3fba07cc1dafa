// Package ambe defines the boundary to an AMBE vocoder. The codec math
// itself is a licensed, proprietary collaborator in the same sense as the
// QPSK demodulator -- this package only models the interface the voice
// clustering stage calls through, plus one deterministic placeholder
// implementation for development and testing without a real codec
// attached.
package ambe

// Decoder decodes one AMBE superframe payload into PCM samples, the way
// gopus.Decoder.Decode turns an Opus packet into PCM for a different
// codec family. subframesOK reports how many of the superframe's
// sub-frames passed FEC (0, 1, or 2); the caller discards a call whose
// total across all superframes falls below its usable-audio threshold.
type Decoder interface {
	DecodeSuperframe(payload []byte) (pcm []int16, subframesOK int, err error)
}

// SamplesPerSuperframe is the PCM sample count one decoded superframe
// produces at the Iridium voice channel's 8kHz sample rate (90ms frames).
const SamplesPerSuperframe = 720
