// Package trace provides packet lifecycle recording for post-run analysis.
// It has no dependencies on sim/ or sim/iot/ and stores pure data types.
package trace

// Kind names a lifecycle event.
type Kind string

const (
	KindGenerated    Kind = "generated"
	KindSent         Kind = "sent"
	KindLost         Kind = "lost"
	KindReceived     Kind = "received"
	KindInterference Kind = "interference"
)

// EventRecord captures one lifecycle event at a virtual instant.
// Device and PacketID are empty for interference events.
type EventRecord struct {
	Clock    float64 `json:"clock"`
	Kind     Kind    `json:"kind"`
	Device   string  `json:"device,omitempty"`
	PacketID string  `json:"packet_id,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Latency  float64 `json:"latency,omitempty"` // set for received packets only
}
