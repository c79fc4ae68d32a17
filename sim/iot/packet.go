package iot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Packet is one sensor reading in transit from a Device to the Network.
// ReceivedAt stays nil while the packet is buffered or in flight and is
// written exactly once, by Network.ReceivePacket.
type Packet struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  float64   `json:"timestamp"` // generation virtual time
	Value      float64   `json:"value"`
	Device     string    `json:"device"`
	ReceivedAt *float64  `json:"received_at,omitempty"`
}

// Received reports whether the gateway has stamped the packet.
func (p *Packet) Received() bool {
	return p.ReceivedAt != nil
}

// Latency returns ReceivedAt - Timestamp; ok is false for undelivered packets.
func (p *Packet) Latency() (latency float64, ok bool) {
	if p.ReceivedAt == nil {
		return 0, false
	}
	return *p.ReceivedAt - p.Timestamp, true
}

var (
	errNilPacket        = errors.New("nil packet")
	errAlreadyReceived  = errors.New("packet already received")
	errArrivalBeforeGen = errors.New("arrival precedes generation")
)

// stamp validates the packet and records its arrival time.
func (p *Packet) stamp(now float64) error {
	if p == nil {
		return errNilPacket
	}
	if p.ReceivedAt != nil {
		return fmt.Errorf("%w: %s at %.6f", errAlreadyReceived, p.ID, *p.ReceivedAt)
	}
	if p.Device == "" {
		return fmt.Errorf("packet %s: missing origin device", p.ID)
	}
	if now < p.Timestamp {
		return fmt.Errorf("%w: packet %s generated at %.6f, received at %.6f", errArrivalBeforeGen, p.ID, p.Timestamp, now)
	}
	at := now
	p.ReceivedAt = &at
	return nil
}
