package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/iridium-toolkit/iridiumcore/internal/sbdacars"
)

const acarsTimestampLayout = "%Y-%m-%dT%H:%M:%SZ"

// acarsTimestamp derives the ISO-8601 UTC timestamp for an ACARS record:
// the wall-clock time captured at the first ACARS frame, advanced by the
// frame-timestamp delta since then.
func (f *Formatter) acarsTimestamp(tsNS uint64) string {
	f.acarsOnce.Do(func() {
		f.acarsWallT0 = time.Now().UnixNano()
		f.acarsFirstTS = tsNS
	})
	elapsed := time.Duration(int64(tsNS-f.acarsFirstTS)) * time.Nanosecond
	wall := time.Unix(0, f.acarsWallT0).Add(elapsed).UTC()
	formatted, err := strftime.Format(acarsTimestampLayout, wall)
	if err != nil {
		return wall.Format("2006-01-02T15:04:05Z")
	}
	return formatted
}

// jsonEscape escapes a raw byte string for embedding inside a JSON string
// literal, matching the reference encoder's escape table: quote,
// backslash, and the common control-character shorthands get two-char
// escapes; everything else below 0x20 or equal to 0x7f gets \u00XX.
func jsonEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func hexString(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// FormatAcarsJSON renders one ACARS message as a single-line JSON object
// matching iridium-toolkit's acarsdec-derived schema. ok is false when a
// carries a parity/CRC error -- JSON mode drops failed messages entirely
// rather than emitting them, unlike text mode's ERRORS tag.
func (f *Formatter) FormatAcarsJSON(a sbdacars.Acars) (string, bool) {
	if a.Errors > 0 {
		return "", false
	}

	ts := f.acarsTimestamp(a.TimestampNS)

	var b strings.Builder
	b.WriteString(`{"app":{"name":"iridiumcore","version":"1.0"},"source":{"transport":"iridium","protocol":"acars"`)
	if f.cfg.StationID != "" {
		b.WriteString(`,"station_id":"`)
		b.WriteString(jsonEscape(f.cfg.StationID))
		b.WriteString(`"`)
	}
	b.WriteString(`},"acars":{"timestamp":"`)
	b.WriteString(ts)
	b.WriteString(`","errors":0,"link_direction":"`)
	if a.Uplink {
		b.WriteString("uplink")
	} else {
		b.WriteString("downlink")
	}
	b.WriteString(`","block_end":`)
	if a.BlockEnd {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	b.WriteString(`,"mode":"`)
	b.WriteString(jsonEscape(string(a.Mode)))
	b.WriteString(`","tail":"`)
	b.WriteString(jsonEscape(a.Tail))
	b.WriteString(`"`)

	if ack, ok := a.AckDisplay(); ok {
		b.WriteString(`,"ack":"`)
		b.WriteString(jsonEscape(string(ack)))
		b.WriteString(`"`)
	}

	b.WriteString(`,"label":"`)
	b.WriteString(jsonEscape(a.LabelDisplay(true)))
	b.WriteString(`","block_id":"`)
	b.WriteString(jsonEscape(string(a.BlockID)))
	b.WriteString(`"`)

	if a.Uplink && a.Seq != "" {
		b.WriteString(`,"message_number":"`)
		b.WriteString(jsonEscape(a.Seq))
		b.WriteString(`"`)
	}
	if a.Uplink && a.Flight != "" {
		b.WriteString(`,"flight":"`)
		b.WriteString(jsonEscape(a.Flight))
		b.WriteString(`"`)
	}
	if a.Text != "" {
		b.WriteString(`,"text":"`)
		b.WriteString(jsonEscape(a.Text))
		b.WriteString(`"`)
	}

	fmt.Fprintf(&b, `},"freq":%.0f,"level":%.2f,"header":"%s"}`,
		float64(a.FrequencyHz), a.Magnitude, hexString(a.Header))
	return b.String(), true
}

// FormatAcarsText renders one ACARS message as a single human-readable
// line, including an ERRORS tag when parity/CRC checks failed.
func (f *Formatter) FormatAcarsText(a sbdacars.Acars) string {
	ts := f.acarsTimestamp(a.TimestampNS)
	dir := "DL"
	if a.Uplink {
		dir = "UL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ACARS: %s %s Mode:%c REG:%-7s ", ts, dir, a.Mode, a.Tail)

	if a.IsNak {
		b.WriteString("NAK  ")
	} else {
		fmt.Fprintf(&b, "ACK:%c ", a.AckRaw)
	}

	fmt.Fprintf(&b, "Label:%s bID:%c ", a.LabelDisplay(false), a.BlockID)

	if a.Uplink && a.Seq != "" {
		fmt.Fprintf(&b, "SEQ:%s FNO:%s ", a.Seq, a.Flight)
		if a.Text != "" {
			b.WriteString("[" + printableOnly(a.Text) + "]")
		}
	} else if a.Text != "" {
		b.WriteString("[" + printableOnly(a.Text) + "]")
	}

	if !a.BlockEnd {
		b.WriteString(" CONT'd")
	}
	if a.Errors > 0 {
		b.WriteString(" ERRORS")
	}
	return b.String()
}

func printableOnly(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
