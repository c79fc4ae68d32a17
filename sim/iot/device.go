package iot

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/google/uuid"

	"github.com/iotnet-sim/iotnet-sim/sim"
)

// Device is a sensor node. It owns two processes, generation and transmission,
// which are the only code that touches its buffer.
type Device struct {
	name     string
	dataRate float64
	buffer   []*Packet // FIFO, unbounded
	inFlight *Packet   // delivered when the transmitter resumes

	params  Params
	rng     *rand.Rand
	ids     io.Reader
	network *Network
	log     *sim.EventLog
	obs     Observer
}

// newDevice wires a device to its network. rng drives readings, delays and
// loss draws; ids is the byte stream packet UUIDs are read from.
func newDevice(name string, dataRate float64, params Params, rng *rand.Rand, ids io.Reader,
	network *Network, log *sim.EventLog, obs Observer) (*Device, error) {
	if dataRate <= 0 {
		return nil, sim.NewConfigurationError("data_rate", "device %s: must be > 0, got %v", name, dataRate)
	}
	return &Device{
		name:     name,
		dataRate: dataRate,
		buffer:   make([]*Packet, 0),
		params:   params,
		rng:      rng,
		ids:      ids,
		network:  network,
		log:      log,
		obs:      obs,
	}, nil
}

// Name returns the device identifier.
func (d *Device) Name() string { return d.name }

// DataRate returns readings per second.
func (d *Device) DataRate() float64 { return d.dataRate }

// Buffered returns the number of packets waiting to be transmitted.
func (d *Device) Buffered() int { return len(d.buffer) }

// Pending returns buffered packets plus the one in flight, if any.
func (d *Device) Pending() int {
	if d.inFlight != nil {
		return len(d.buffer) + 1
	}
	return len(d.buffer)
}

// Generator returns the generation process.
func (d *Device) Generator() sim.Process { return &generateProcess{d: d} }

// Transmitter returns the transmission process.
func (d *Device) Transmitter() sim.Process { return &transmitProcess{d: d} }

// generateProcess appends one reading per period 1/dataRate.
type generateProcess struct {
	d *Device
}

func (g *generateProcess) Resume(now float64) (sim.Step, error) {
	d := g.d
	id, err := uuid.NewRandomFromReader(d.ids)
	if err != nil {
		return sim.Step{}, fmt.Errorf("device %s: packet id: %w", d.name, err)
	}
	p := &Packet{
		ID:        id,
		Timestamp: now,
		Value:     sim.Uniform(d.rng, d.params.ValueMin, d.params.ValueMax),
		Device:    d.name,
	}
	d.buffer = append(d.buffer, p)
	d.log.Logf(now, "%s generated: %.2f°C", d.name, p.Value)
	d.obs.PacketGenerated(now, p)
	return sim.Wait(1 / d.dataRate), nil
}

// transmitProcess drains the buffer one packet at a time. A delivered packet
// occupies the channel for its transmission delay; a lost packet is dropped
// immediately and the next one is tried without waiting.
type transmitProcess struct {
	d *Device
}

func (t *transmitProcess) Resume(now float64) (sim.Step, error) {
	d := t.d
	if p := d.inFlight; p != nil {
		d.inFlight = nil
		if err := d.network.ReceivePacket(p, now); err != nil {
			return sim.Step{}, err
		}
		d.log.Logf(now, "%s sent packet to gateway", d.name)
		d.obs.PacketSent(now, p)
	}

	for len(d.buffer) > 0 {
		p := d.buffer[0]
		d.buffer[0] = nil
		d.buffer = d.buffer[1:]

		delay := sim.Uniform(d.rng, d.params.DelayMin, d.params.DelayMax)
		if d.rng.Float64() >= d.network.LossProbability(now) {
			d.inFlight = p
			return sim.Wait(delay), nil
		}
		d.log.Logf(now, "Packet from %s lost!", d.name)
		d.obs.PacketLost(now, p)
	}
	return sim.Wait(d.params.PollInterval), nil
}
