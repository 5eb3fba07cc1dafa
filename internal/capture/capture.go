// Package capture runs an external capture/demodulator backend as a
// subprocess and turns its line-oriented stdout into demod.Frame values,
// mirroring go1090's rtl_adsb package (which drives rtl_adsb.exe and
// parses its hex-burst lines the same way). This gives the receiver core
// a runnable producer without owning any SDR or QPSK-demodulator
// internals, and doubles as the replay path for recorded RAW-format
// session logs in tests.
package capture

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/iridium-toolkit/iridiumcore/internal/demod"
)

// Handler receives one demodulated frame parsed from the backend's output.
type Handler func(demod.Frame)

// StartReceive launches execPath, parses each RAW-format line its stdout
// produces into a demod.Frame, and invokes handler for each one. The
// returned stop function kills the subprocess; StartReceive returns an
// error if the process cannot be started.
func StartReceive(execPath string, handler Handler) (func(), error) {
	cmd := exec.Command(execPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			frame, ok := ParseRAWLine(scanner.Text())
			if ok {
				handler(frame)
			}
		}
		_ = cmd.Wait()
	}()

	return func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}, nil
}

// ParseRAWLine parses one "RAW: ..." line (as produced by
// internal/output.Formatter.FormatRAW) back into a demod.Frame. The RAW
// line carries no direction field, so the returned Frame always carries
// the zero value, demod.Downlink; ida.DecodeBurst copies the frame's
// direction unchanged, so every burst decoded from a replayed line is
// reported as downlink.
func ParseRAWLine(line string) (demod.Frame, bool) {
	const prefix = "RAW: "
	if !strings.HasPrefix(line, prefix) {
		return demod.Frame{}, false
	}
	fields := strings.Fields(line[len(prefix):])
	if len(fields) < 8 {
		return demod.Frame{}, false
	}

	tsMs, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return demod.Frame{}, false
	}
	freqHz, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return demod.Frame{}, false
	}

	magNoise := strings.TrimPrefix(fields[3], "N:")
	signIdx := strings.IndexAny(magNoise[1:], "+-")
	if signIdx < 0 {
		return demod.Frame{}, false
	}
	signIdx++ // restore offset lost by slicing magNoise[1:]
	magnitude, err := strconv.ParseFloat(magNoise[:signIdx], 64)
	if err != nil {
		return demod.Frame{}, false
	}
	noise, err := strconv.ParseFloat(magNoise[signIdx:], 64)
	if err != nil {
		return demod.Frame{}, false
	}

	idStr := strings.TrimPrefix(fields[4], "I:")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return demod.Frame{}, false
	}

	confStr := strings.TrimSuffix(fields[5], "%")
	confidence, err := strconv.Atoi(confStr)
	if err != nil {
		return demod.Frame{}, false
	}

	level, err := strconv.ParseFloat(fields[6], 64)
	if err != nil {
		return demod.Frame{}, false
	}

	syms, err := strconv.Atoi(fields[7])
	if err != nil {
		return demod.Frame{}, false
	}

	var bits []byte
	if len(fields) > 8 {
		bitsStr := fields[8]
		bits = make([]byte, len(bitsStr))
		for i := 0; i < len(bitsStr); i++ {
			if bitsStr[i] != '0' && bitsStr[i] != '1' {
				return demod.Frame{}, false
			}
			bits[i] = bitsStr[i] - '0'
		}
	}

	return demod.Frame{
		TimestampNS: uint64(tsMs * 1e6),
		FrequencyHz: freqHz,
		ID:          id,
		Magnitude:   magnitude,
		Noise:       noise,
		Level:       level,
		Confidence:  confidence,
		NumSymbols:  syms,
		Bits:        bits,
	}, true
}
