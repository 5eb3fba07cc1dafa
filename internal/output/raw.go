package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iridium-toolkit/iridiumcore/internal/demod"
)

// Formatter renders output lines for a single receiver session. It owns
// the lazily-initialized session epoch (t0, file_info, parsed_info) that
// every RAW/IDA line is relative to, and the ACARS wall-clock anchor --
// both initialized from the first frame observed, mirroring the
// reference encoder's static-latched globals as per-instance state.
type Formatter struct {
	cfg Config

	mu          sync.Mutex
	initialized bool
	t0          uint64
	fileInfo    string
	parsedInfo  string

	acarsOnce    sync.Once
	acarsWallT0  int64 // unix nanoseconds captured at first ACARS frame
	acarsFirstTS uint64
}

// NewFormatter returns a Formatter for one receiver session.
func NewFormatter(cfg Config) *Formatter {
	return &Formatter{cfg: cfg}
}

// AcarsJSON reports whether ACARS records should be rendered as JSON
// rather than text, per the Config this Formatter was built with.
func (f *Formatter) AcarsJSON() bool {
	return f.cfg.AcarsJSON
}

func (f *Formatter) ensureEpoch(tsNS uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initialized {
		return
	}
	f.t0 = (tsNS / 1_000_000_000) * 1_000_000_000
	fi := f.cfg.FileInfo
	if fi == "" {
		fi = fmt.Sprintf("i-%d-t1", f.t0/1_000_000_000)
	}
	f.fileInfo = fi
	f.parsedInfo = fmt.Sprintf("p-%d", f.t0/1_000_000_000)
	f.initialized = true
}

// FormatRAW renders one RAW: line for a demodulated frame. ok is false
// when RAW output is suppressed by configuration.
func (f *Formatter) FormatRAW(frame *demod.Frame) (string, bool) {
	if f.cfg.DiagnosticMode || f.cfg.AcarsEnabled {
		return "", false
	}
	f.ensureEpoch(frame.TimestampNS)

	tsMs := float64(frame.TimestampNS-f.t0) / 1e6
	syms := frame.NumSymbols
	if syms < 0 {
		syms = 0
	}

	var bits strings.Builder
	bits.Grow(len(frame.Bits))
	for _, b := range frame.Bits {
		bits.WriteByte('0' + b)
	}

	line := fmt.Sprintf("RAW: %s %012.4f %010d N:%05.2f%+06.2f I:%011d %3d%% %.5f %3d %s",
		f.fileInfo, tsMs, frame.FrequencyHz,
		frame.Magnitude, frame.Noise, frame.ID,
		frame.Confidence, frame.Level, syms, bits.String())
	return line, true
}
