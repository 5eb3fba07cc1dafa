// Package voice clusters VOC (voice channel) frames into calls by
// frequency and time proximity, decodes each call's AMBE superframes to
// PCM, classifies call quality, and archives completed calls in a
// bounded circular buffer.
package voice

import (
	"math"
	"sync"

	"github.com/iridium-toolkit/iridiumcore/internal/ambe"
	"github.com/iridium-toolkit/iridiumcore/internal/demod"
)

const (
	maxActiveCalls   = 8
	maxFramesPerCall = 2000
	maxArchiveCalls  = 100
	clusterFreqHz    = 20000.0
	clusterTimeSec   = 20.0
)

// Quality is a coarse call-quality classification based on the fraction
// of expected superframes actually received.
type Quality int

const (
	QualityPoor Quality = iota
	QualityFair
	QualityGood
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityFair:
		return "fair"
	default:
		return "poor"
	}
}

// Call is one archived, fully decoded voice call.
type Call struct {
	ID          int
	StartNS     uint64
	EndNS       uint64
	FrequencyHz float64
	NFrames     int
	Quality     Quality
	Audio       []int16
	NSamples    int
}

type vocFrame struct {
	payload     []byte
	timestampNS uint64
}

// activeCall accumulates VOC frames for one in-progress call.
type activeCall struct {
	active    bool
	frames    []vocFrame
	firstTime uint64
	lastTime  uint64
	freqSum   float64
}

// Clusterer groups incoming VOC frames into calls and archives completed
// ones. Frame ingestion (AddFrame, Flush) runs single-threaded on the
// demod-consumer goroutine per the concurrency model and is not itself
// synchronized; the completed-call archive is guarded by a mutex since it
// may be read concurrently (e.g. by a playback/UI consumer).
type Clusterer struct {
	dec    ambe.Decoder
	active [maxActiveCalls]activeCall

	mu           sync.Mutex
	archive      [maxArchiveCalls]Call
	archiveHead  int
	archiveCount int
	totalCalls   int
	totalFrames  int

	// OnArchived and OnDiscarded, if set, are called from finalizeCall to
	// report outcomes to an external metrics sink (e.g. internal/metrics).
	// Left nil, they are no-ops -- the clusterer has no hard dependency on
	// any instrumentation package.
	OnArchived  func()
	OnDiscarded func()
}

// NewClusterer returns an empty clusterer that decodes superframes with dec.
func NewClusterer(dec ambe.Decoder) *Clusterer {
	return &Clusterer{dec: dec}
}

// AddFrame ingests one VOC frame, assigning it to a matching in-progress
// call or starting a new one.
func (c *Clusterer) AddFrame(voc demod.VocData) {
	c.totalFrames++

	call := c.findCall(voc.FrequencyHz)
	if call != nil {
		dt := float64(voc.TimestampNS-call.lastTime) / 1e9
		if dt > clusterTimeSec {
			c.finalizeCall(call)
			call = nil
		}
	}
	if call == nil {
		call = c.allocCall()
		call.active = true
		call.frames = call.frames[:0]
		call.firstTime = voc.TimestampNS
		call.freqSum = 0
	}

	if len(call.frames) < maxFramesPerCall {
		call.frames = append(call.frames, vocFrame{
			payload:     append([]byte(nil), voc.Payload...),
			timestampNS: voc.TimestampNS,
		})
	}
	call.lastTime = voc.TimestampNS
	call.freqSum += voc.FrequencyHz
}

// Flush finalizes every in-progress call, used at shutdown.
func (c *Clusterer) Flush() {
	for i := range c.active {
		if c.active[i].active {
			c.finalizeCall(&c.active[i])
		}
	}
}

func (c *Clusterer) findCall(freq float64) *activeCall {
	for i := range c.active {
		a := &c.active[i]
		if !a.active || len(a.frames) == 0 {
			continue
		}
		avg := a.freqSum / float64(len(a.frames))
		if math.Abs(freq-avg) <= clusterFreqHz {
			return a
		}
	}
	return nil
}

func (c *Clusterer) allocCall() *activeCall {
	for i := range c.active {
		if !c.active[i].active {
			return &c.active[i]
		}
	}
	oldest := &c.active[0]
	for i := 1; i < maxActiveCalls; i++ {
		if c.active[i].firstTime < oldest.firstTime {
			oldest = &c.active[i]
		}
	}
	c.finalizeCall(oldest)
	return oldest
}

// finalizeCall decodes a call's accumulated frames, discards it if fewer
// than 3 frames were collected or fewer than 4 sub-frames decoded
// cleanly, normalizes volume, classifies quality, and archives it.
func (c *Clusterer) finalizeCall(call *activeCall) {
	defer func() {
		call.active = false
		call.frames = nil
		call.freqSum = 0
	}()

	if !call.active || len(call.frames) < 3 {
		if call.active && c.OnDiscarded != nil {
			c.OnDiscarded()
		}
		return
	}

	audio := make([]int16, 0, len(call.frames)*ambe.SamplesPerSuperframe)
	decodedOK := 0
	for _, f := range call.frames {
		pcm, ok, err := c.dec.DecodeSuperframe(f.payload)
		if err != nil || ok <= 0 {
			continue
		}
		audio = append(audio, pcm...)
		decodedOK += ok
	}
	if decodedOK < 4 {
		if c.OnDiscarded != nil {
			c.OnDiscarded()
		}
		return
	}

	normalizeVolume(audio)

	durationMS := int64(call.lastTime-call.firstTime) / 1_000_000

	c.mu.Lock()
	defer c.mu.Unlock()
	c.archive[c.archiveHead] = Call{
		ID:          c.totalCalls,
		StartNS:     call.firstTime,
		EndNS:       call.lastTime,
		FrequencyHz: call.freqSum / float64(len(call.frames)),
		NFrames:     len(call.frames),
		Quality:     classifyQuality(len(call.frames), durationMS),
		Audio:       audio,
		NSamples:    len(audio),
	}
	c.totalCalls++
	c.archiveHead = (c.archiveHead + 1) % maxArchiveCalls
	if c.archiveCount < maxArchiveCalls {
		c.archiveCount++
	}
	if c.OnArchived != nil {
		c.OnArchived()
	}
}

// classifyQuality expects roughly 11 superframes/sec (90ms each).
func classifyQuality(nFrames int, durationMS int64) Quality {
	if durationMS <= 0 {
		return QualityPoor
	}
	expected := float64(durationMS) / 90.0
	ratio := float64(nFrames) / expected
	switch {
	case ratio > 0.8:
		return QualityGood
	case ratio > 0.5:
		return QualityFair
	default:
		return QualityPoor
	}
}

// normalizeVolume boosts quiet calls toward ~80% of full scale, capped at
// 8x gain, leaving already-loud calls untouched.
func normalizeVolume(audio []int16) {
	var peak int16
	for _, v := range audio {
		av := v
		if av < 0 {
			av = -av
		}
		if av > peak {
			peak = av
		}
	}
	if peak <= 0 || peak >= 16000 {
		return
	}
	gain := 26000.0 / float64(peak)
	if gain > 8.0 {
		gain = 8.0
	}
	for i, v := range audio {
		audio[i] = clampInt16(float64(v) * gain)
	}
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

// TotalCalls returns the number of calls ever archived.
func (c *Clusterer) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCalls
}

// TotalFrames returns the number of VOC frames ever ingested.
func (c *Clusterer) TotalFrames() int {
	return c.totalFrames
}

// CallCount returns the number of calls currently held in the archive.
func (c *Clusterer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.archiveCount
}

// GetCall returns the archived call at index (0 = oldest), or ok=false
// if index is out of range.
func (c *Clusterer) GetCall(index int) (Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= c.archiveCount {
		return Call{}, false
	}
	pos := (c.archiveHead - c.archiveCount + index + maxArchiveCalls) % maxArchiveCalls
	return c.archive[pos], true
}
