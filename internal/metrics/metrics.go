// Package metrics defines the counters the packet engine and session
// driver expose, registered against a caller-supplied Prometheus
// registerer so exposition (the HTTP /metrics endpoint) stays out of
// scope for this module.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PacketCounters are incremented by the packet engine (C2).
type PacketCounters struct {
	TagMismatch    prometheus.Counter
	Replayed       prometheus.Counter
	DecodingErrors prometheus.Counter
	Forwarded      prometheus.Counter
	DeliveredFinal prometheus.Counter
}

// NewPacketCounters constructs and registers the packet engine counters.
// Registerer may be a *prometheus.Registry or the default registerer; a
// nil registerer yields unregistered, still-usable counters (useful in
// tests).
func NewPacketCounters(reg prometheus.Registerer) *PacketCounters {
	mk := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopr",
			Subsystem: "packet",
			Name:      name,
			Help:      help,
		})
		if reg != nil {
			reg.MustRegister(c)
		}
		return c
	}
	return &PacketCounters{
		TagMismatch:    mk("tag_mismatch_total", "packets dropped due to a MAC/tag mismatch"),
		Replayed:       mk("replayed_total", "packets dropped as replays"),
		DecodingErrors: mk("decoding_errors_total", "packets dropped due to malformed wire data"),
		Forwarded:      mk("forwarded_total", "packets forwarded to the next hop"),
		DeliveredFinal: mk("delivered_final_total", "packets delivered as final to the application layer"),
	}
}

// SessionCounters are incremented by the session driver (C4).
type SessionCounters struct {
	SegmentsSent     prometheus.Counter
	SegmentsReceived prometheus.Counter
	FramesReassembled prometheus.Counter
	Retransmits      prometheus.Counter
	FramesEvicted    prometheus.Counter
}

func NewSessionCounters(reg prometheus.Registerer) *SessionCounters {
	mk := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hopr",
			Subsystem: "session",
			Name:      name,
			Help:      help,
		})
		if reg != nil {
			reg.MustRegister(c)
		}
		return c
	}
	return &SessionCounters{
		SegmentsSent:      mk("segments_sent_total", "segments transmitted"),
		SegmentsReceived:  mk("segments_received_total", "segments received"),
		FramesReassembled: mk("frames_reassembled_total", "frames fully reassembled"),
		Retransmits:       mk("retransmits_total", "segment retransmissions"),
		FramesEvicted:     mk("frames_evicted_total", "unacknowledged frames evicted from the outbox after timeout"),
	}
}
