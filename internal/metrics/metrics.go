// Package metrics registers the receiver's Prometheus instrumentation.
// The core never starts an HTTP listener itself -- the map server (out of
// scope here) owns that -- so Metrics only exposes its Registerer for a
// host process to mount at whatever path it chooses.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter/gauge the receiver's core pipeline updates.
type Metrics struct {
	registry *prometheus.Registry

	BurstsDecoded         prometheus.Counter
	BurstsCRCFailed       prometheus.Counter
	ReassemblyCompleted   prometheus.Counter
	ReassemblyTimedOut    prometheus.Counter
	SBDMessagesExtracted  prometheus.Counter
	AcarsParityErrors     prometheus.Counter
	VoiceCallsArchived    prometheus.Counter
	VoiceCallsDiscarded   prometheus.Counter
	ActiveReassemblySlots prometheus.Gauge
}

// New creates a Metrics instance on its own registry (never the global
// default registry, so multiple receivers in one process don't collide).
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		BurstsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_ida_bursts_decoded_total",
			Help: "Total number of IDA bursts successfully decoded.",
		}),
		BurstsCRCFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_ida_bursts_crc_failed_total",
			Help: "Total number of IDA bursts with a CRC mismatch.",
		}),
		ReassemblyCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_ida_reassembly_completed_total",
			Help: "Total number of IDA multi-burst messages reassembled.",
		}),
		ReassemblyTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_ida_reassembly_timeout_total",
			Help: "Total number of IDA reassembly slots evicted by timeout.",
		}),
		SBDMessagesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_sbd_messages_total",
			Help: "Total number of SBD application messages extracted.",
		}),
		AcarsParityErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_acars_parity_errors_total",
			Help: "Total number of ACARS messages with a parity or CRC error.",
		}),
		VoiceCallsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_voice_calls_archived_total",
			Help: "Total number of voice calls archived.",
		}),
		VoiceCallsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "iridium_voice_calls_discarded_total",
			Help: "Total number of voice calls discarded (too short or FEC failure).",
		}),
		ActiveReassemblySlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iridium_ida_active_reassembly_slots",
			Help: "Current number of occupied IDA reassembly slots.",
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	m.registry.MustRegister(
		m.BurstsDecoded,
		m.BurstsCRCFailed,
		m.ReassemblyCompleted,
		m.ReassemblyTimedOut,
		m.SBDMessagesExtracted,
		m.AcarsParityErrors,
		m.VoiceCallsArchived,
		m.VoiceCallsDiscarded,
		m.ActiveReassemblySlots,
	)
}

// Registerer exposes the underlying registry for a host process to mount
// behind its own HTTP handler (e.g. promhttp.HandlerFor).
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Gatherer exposes the underlying registry for scraping.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
