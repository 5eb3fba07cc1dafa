// Package output formats decoded frames, bursts, and ACARS messages into
// the line-oriented wire formats this receiver emits: the RAW demod-frame
// dump, the parsed IDA burst line, and ACARS JSON/text records. Formatting
// only -- nothing here writes to stdout or a socket; callers feed the
// returned strings to whatever sink they choose (stdout, the pubsub hub,
// a file).
package output

// Config holds the enumerated configuration knobs a host process assembles
// from its own CLI/env front-end. The core never parses flags or
// environment variables itself -- this struct is constructed externally.
type Config struct {
	// DiagnosticMode suppresses RAW and IDA stdout lines entirely.
	DiagnosticMode bool
	// AcarsEnabled suppresses RAW output (ACARS-only operation).
	AcarsEnabled bool
	// AcarsJSON selects JSON-formatted ACARS records over the text format.
	AcarsJSON bool
	// StationID, if set, is embedded in ACARS JSON output.
	StationID string
	// FileInfo overrides the auto-generated "i-<epoch>-t1" RAW file tag.
	FileInfo string
}
