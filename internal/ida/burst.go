package ida

import (
	"github.com/iridium-toolkit/iridiumcore/internal/bitpack"
	"github.com/iridium-toolkit/iridiumcore/internal/demod"
)

// Burst is the decoded output of one IDA-carrying DemodFrame.
type Burst struct {
	TimestampNS uint64
	FrequencyHz int64
	Direction   demod.Direction
	Magnitude   float64
	Noise       float64
	Level       float64
	Confidence  int
	NumSymbols  int

	DaCtr     int
	DaLen     int
	Cont      bool
	CRCOK     bool
	StoredCRC uint16
	ComputedCRC uint16
	FixedErrs int

	Payload   [20]byte // only DaLen bytes are semantically valid
	PayloadLen int

	BchStream []byte // full BCH-decoded bitstream, bounded at 256 bits
	LCW       LCW
	LCWHeader string
}

// crcCCITTFalse computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF, no
// reflect, no final XOR) over data.
func crcCCITTFalse(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc = crc << 1
			}
		}
	}
	return crc
}

// DecodeBurst runs the full LCW + payload BCH decode pipeline against one
// DemodFrame. Returns ok=false on any precondition or decode failure --
// those are silently discardable per the malformed-frame error taxonomy.
// A bad CRC is not a decode failure: the burst is still returned with
// CRCOK=false so diagnostic output can surface it.
func DecodeBurst(frame *demod.Frame) (*Burst, bool) {
	if len(frame.Bits) < 24+46+124 {
		return nil, false
	}

	data := frame.Bits[24:]
	var dataLLR []float64
	if frame.HasLLR() {
		dataLLR = frame.LLR[24:]
	}

	lcw, ok := DecodeLCW(data[:46])
	if !ok || lcw.FT != 2 {
		return nil, false
	}

	payloadData := data[46:]
	var payloadLLR []float64
	if dataLLR != nil {
		payloadLLR = dataLLR[46:]
	}
	if len(payloadData) < 124 {
		return nil, false
	}

	bchStream, fixedErrs := DescramblePayload(payloadData, payloadLLR)
	if len(bchStream) < 196 {
		return nil, false
	}
	if len(bchStream) > 256 {
		bchStream = bchStream[:256]
	}

	cont := bchStream[3] != 0
	daCtr := int(bitpack.PackMSBFirst(bchStream, 5, 8))
	daLen := int(bitpack.PackMSBFirst(bchStream, 11, 16))
	zero1 := bitpack.PackMSBFirst(bchStream, 17, 20)
	if zero1 != 0 {
		return nil, false
	}
	if daLen > 20 {
		return nil, false
	}

	var payload [20]byte
	for i := 0; i < 20; i++ {
		payload[i] = byte(bitpack.PackMSBFirst(bchStream, 20+i*8, 20+i*8+8))
	}

	crcOK := false
	var storedCRC, computedCRC uint16
	if daLen > 0 {
		storedCRC = uint16(bitpack.PackMSBFirst(bchStream, 9*20, 9*20+16))

		// CRC input: bits[0:20] ++ 12 zero bits ++ bits[20:bch_len-4].
		crcBits := make([]byte, 0, 20+12+len(bchStream))
		crcBits = append(crcBits, bchStream[0:20]...)
		crcBits = append(crcBits, make([]byte, 12)...)
		crcBits = append(crcBits, bchStream[20:len(bchStream)-4]...)
		computedCRC = crcCCITTFalse(bitpack.ToBytesMSBFirst(crcBits))
		crcOK = computedCRC == 0
	}

	payloadLen := daLen
	if payloadLen == 0 {
		payloadLen = 20
	}

	burst := &Burst{
		TimestampNS: frame.TimestampNS,
		FrequencyHz: frame.FrequencyHz,
		Direction:   frame.Direction,
		Magnitude:   frame.Magnitude,
		Noise:       frame.Noise,
		Level:       frame.Level,
		Confidence:  frame.Confidence,
		NumSymbols:  frame.NumSymbols,
		DaCtr:       daCtr,
		DaLen:       daLen,
		Cont:        cont,
		CRCOK:       crcOK,
		StoredCRC:   storedCRC,
		ComputedCRC: computedCRC,
		FixedErrs:   fixedErrs,
		Payload:     payload,
		PayloadLen:  payloadLen,
		BchStream:   bchStream,
		LCW:         lcw,
	}
	burst.LCWHeader = FormatLCWHeader(lcw)
	return burst, true
}
