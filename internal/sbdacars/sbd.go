package sbdacars

import (
	"github.com/iridium-toolkit/iridiumcore/internal/demod"
	"github.com/iridium-toolkit/iridiumcore/internal/ida"
)

const (
	maxMultiSlots  = 8
	maxSlotBytes   = 1024
	multiTimeoutNS = 5_000_000_000
)

// multiSlot tracks one in-progress multi-packet SBD reassembly.
type multiSlot struct {
	active    bool
	direction demod.Direction
	msgno     int
	msgcnt    int
	timestamp uint64
	frequency int64
	magnitude float64
	data      []byte
}

// Extractor recognizes SBD framing in reassembled IDA payloads, reassembles
// multi-packet SBD messages, and parses the ACARS application carried
// inside. It is stateless except for the fixed 8-slot multi-packet table,
// matching the single-threaded, non-blocking demod-consumer concurrency
// model: no internal synchronization.
type Extractor struct {
	slots [maxMultiSlots]multiSlot
}

// NewExtractor returns an empty SBD/ACARS extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Process feeds one reassembled IDA application message through SBD
// recognition and, on a complete single- or multi-packet SBD message,
// ACARS parsing. Returns ok=false when the payload is not SBD, is an
// orphan/incomplete fragment, or fails ACARS framing.
func (e *Extractor) Process(msg ida.Message) (Acars, bool) {
	e.expire(msg.TimestampNS)

	data := msg.Data
	if len(data) < 5 {
		return Acars{}, false
	}

	ul := msg.Direction == demod.Uplink

	isSBD := false
	if data[0] == 0x76 && data[1] != 0x05 {
		if ul {
			isSBD = data[1] >= 0x0c && data[1] <= 0x0e
		} else {
			isSBD = data[1] >= 0x08 && data[1] <= 0x0b
		}
	} else if data[0] == 0x06 && data[1] == 0x00 {
		switch data[2] {
		case 0x00, 0x10, 0x20, 0x40, 0x50, 0x70:
			isSBD = true
		}
	}
	if !isSBD {
		return Acars{}, false
	}

	typ0, typ1 := data[0], data[1]
	data = data[2:]

	var msgno, msgcnt int
	var sbdData []byte

	if typ0 == 0x06 && typ1 == 0x00 {
		if len(data) < 30 || data[0] != 0x20 {
			return Acars{}, false
		}
		msgcnt = int(data[15])
		if msgcnt == 0 {
			msgno = 0
		} else {
			msgno = 1
		}
		sbdData = data[29:]
	} else {
		if typ1 == 0x08 {
			if len(data) < 5 {
				return Acars{}, false
			}
			prehdrLen := 7
			if data[0] == 0x20 {
				prehdrLen = 5
			}
			if len(data) < prehdrLen {
				return Acars{}, false
			}
			msgcnt = int(data[3])
			data = data[prehdrLen:]
		} else {
			msgcnt = -1
		}

		if ul && len(data) >= 3 && (data[0] == 0x50 || data[0] == 0x51) {
			data = data[3:]
		}

		switch {
		case len(data) == 0:
			msgno = 0
			sbdData = data
		case len(data) > 3 && data[0] == 0x10:
			pktLen := int(data[1])
			msgno = int(data[2])
			data = data[3:]
			if len(data) < pktLen {
				return Acars{}, false
			}
			sbdData = data[:pktLen]
		default:
			msgno = 0
			sbdData = data
		}
	}

	switch {
	case msgno == 0:
		if len(sbdData) == 0 {
			return Acars{}, false
		}
		return parseAcars(sbdData, ul, msg.TimestampNS, msg.FrequencyHz, msg.Magnitude)

	case msgcnt == 1 && msgno == 1:
		return parseAcars(sbdData, ul, msg.TimestampNS, msg.FrequencyHz, msg.Magnitude)

	case msgcnt > 1:
		idx := e.allocSlot()
		s := &e.slots[idx]
		s.active = true
		s.msgno = msgno
		s.msgcnt = msgcnt
		s.direction = msg.Direction
		s.timestamp = msg.TimestampNS
		s.frequency = msg.FrequencyHz
		s.magnitude = msg.Magnitude
		n := len(sbdData)
		if n > maxSlotBytes {
			n = maxSlotBytes
		}
		s.data = append([]byte(nil), sbdData[:n]...)
		return Acars{}, false

	case msgno > 1:
		for i := maxMultiSlots - 1; i >= 0; i-- {
			s := &e.slots[i]
			if !s.active || s.direction != msg.Direction || msgno != s.msgno+1 {
				continue
			}
			space := maxSlotBytes - len(s.data)
			n := len(sbdData)
			if n > space {
				n = space
			}
			if n > 0 {
				s.data = append(s.data, sbdData[:n]...)
			}
			s.msgno = msgno
			s.timestamp = msg.TimestampNS

			if msgno == s.msgcnt {
				acars, ok := parseAcars(s.data, ul, msg.TimestampNS, s.frequency, s.magnitude)
				s.active = false
				s.data = nil
				return acars, ok
			}
			return Acars{}, false
		}
		// No matching slot: orphan continuation fragment, discard.
		return Acars{}, false
	}

	return Acars{}, false
}

// allocSlot returns the first free slot, evicting the one with the oldest
// timestamp if the table is full.
func (e *Extractor) allocSlot() int {
	for i := range e.slots {
		if !e.slots[i].active {
			return i
		}
	}
	oldest := 0
	oldestTS := e.slots[0].timestamp
	for i := 1; i < maxMultiSlots; i++ {
		if e.slots[i].timestamp < oldestTS {
			oldest = i
			oldestTS = e.slots[i].timestamp
		}
	}
	return oldest
}

// expire deactivates any multi-packet slot whose last fragment predates
// now by more than the 5s SBD reassembly timeout. now is a frame
// timestamp, never wall clock.
func (e *Extractor) expire(nowNS uint64) {
	for i := range e.slots {
		s := &e.slots[i]
		if s.active && nowNS > s.timestamp+multiTimeoutNS {
			s.active = false
			s.data = nil
		}
	}
}
