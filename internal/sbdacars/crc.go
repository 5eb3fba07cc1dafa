// Package sbdacars extracts SBD (Short Burst Data) application messages
// from reassembled IDA payloads and parses the ACARS messages they carry.
package sbdacars

// crcKermitTable is the CRC-16/Kermit (reflected, poly 0x8408, init 0)
// lookup table, built once at package init the same way the IDA decoder's
// syndrome tables are precomputed.
var crcKermitTable [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
		crcKermitTable[i] = crc
	}
}

// crc16Kermit computes CRC-16/Kermit over data.
func crc16Kermit(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crcKermitTable[(crc^uint16(b))&0xFF] ^ (crc >> 8)
	}
	return crc
}
