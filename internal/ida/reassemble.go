package ida

import "github.com/iridium-toolkit/iridiumcore/internal/demod"

const (
	maxReassemblySlots = 16
	maxSlotBytes       = 256
	reassemblyTimeoutNS = 280_000_000
)

// slot is one entry of the fixed 16-slot IDA reassembly table.
type slot struct {
	active        bool
	direction     demod.Direction
	frequency     int64
	lastTimestamp uint64
	lastCtr       int
	data          []byte
}

// Message is a completed reassembled IDA application message.
type Message struct {
	Data        []byte
	TimestampNS uint64
	FrequencyHz int64
	Direction   demod.Direction
	Magnitude   float64
}

// Reassembler joins a sequence of single-direction, single-frequency IDA
// bursts into complete application messages. It is single-threaded and
// non-blocking, matching the demod-consumer-thread concurrency model -- no
// internal synchronization.
type Reassembler struct {
	slots [maxReassemblySlots]slot
}

// NewReassembler returns an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Push feeds one decoded burst into the reassembler. If a message
// completes as a result, it is returned with ok=true.
func (r *Reassembler) Push(b *Burst) (Message, bool) {
	if !b.CRCOK || b.DaLen == 0 {
		return Message{}, false
	}

	for i := range r.slots {
		s := &r.slots[i]
		if !s.active {
			continue
		}
		if s.direction != b.Direction {
			continue
		}
		if absInt64(s.frequency-b.FrequencyHz) > 260 {
			continue
		}
		if b.TimestampNS < s.lastTimestamp {
			continue
		}
		if b.TimestampNS-s.lastTimestamp > reassemblyTimeoutNS {
			continue
		}
		if (s.lastCtr+1)%8 != b.DaCtr {
			continue
		}

		if len(s.data)+b.DaLen <= maxSlotBytes {
			s.data = append(s.data, b.Payload[:b.DaLen]...)
		}
		s.lastTimestamp = b.TimestampNS
		s.lastCtr = b.DaCtr

		if !b.Cont {
			msg := Message{
				Data:        s.data,
				TimestampNS: b.TimestampNS,
				FrequencyHz: s.frequency,
				Direction:   s.direction,
				Magnitude:   b.Magnitude,
			}
			s.active = false
			s.data = nil
			return msg, true
		}
		return Message{}, false
	}

	// Single-burst message: ctr==0, no continuation.
	if b.DaCtr == 0 && !b.Cont {
		return Message{
			Data:        append([]byte(nil), b.Payload[:b.DaLen]...),
			TimestampNS: b.TimestampNS,
			FrequencyHz: b.FrequencyHz,
			Direction:   b.Direction,
			Magnitude:   b.Magnitude,
		}, true
	}

	// Start a new multi-burst message: ctr==0, continuation expected.
	if b.DaCtr == 0 && b.Cont {
		idx := r.allocSlot()
		s := &r.slots[idx]
		s.active = true
		s.direction = b.Direction
		s.frequency = b.FrequencyHz
		s.lastTimestamp = b.TimestampNS
		s.lastCtr = b.DaCtr
		s.data = append([]byte(nil), b.Payload[:b.DaLen]...)
		return Message{}, false
	}

	// Orphan continuation fragment: no matching slot, discard silently.
	return Message{}, false
}

// allocSlot returns the first free slot, or evicts the one with the oldest
// last_timestamp if the table is full.
func (r *Reassembler) allocSlot() int {
	for i := range r.slots {
		if !r.slots[i].active {
			return i
		}
	}
	oldest := 0
	oldestTS := r.slots[0].lastTimestamp
	for i := 1; i < maxReassemblySlots; i++ {
		if r.slots[i].lastTimestamp < oldestTS {
			oldest = i
			oldestTS = r.slots[i].lastTimestamp
		}
	}
	return oldest
}

// Flush deactivates any slot whose last_timestamp is older than
// now-280ms, returning how many slots it evicted. now is a frame
// timestamp (ns), never wall clock, so replay from a recorded session
// stays deterministic.
func (r *Reassembler) Flush(nowNS uint64) int {
	timedOut := 0
	for i := range r.slots {
		s := &r.slots[i]
		if s.active && nowNS > s.lastTimestamp+reassemblyTimeoutNS {
			s.active = false
			s.data = nil
			timedOut++
		}
	}
	return timedOut
}

// ActiveSlots returns the number of currently occupied reassembly slots.
func (r *Reassembler) ActiveSlots() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].active {
			n++
		}
	}
	return n
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
