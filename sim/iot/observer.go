package iot

import "github.com/iotnet-sim/iotnet-sim/sim/trace"

// Observer receives packet lifecycle notifications in simulation order.
// Observers must not mutate the packets they are handed.
type Observer interface {
	PacketGenerated(now float64, p *Packet)
	PacketSent(now float64, p *Packet)
	PacketLost(now float64, p *Packet)
	PacketReceived(now float64, p *Packet)
	Interference(now float64)
}

// observers fans a notification out to every member in order.
type observers []Observer

func (o observers) PacketGenerated(now float64, p *Packet) {
	for _, ob := range o {
		ob.PacketGenerated(now, p)
	}
}

func (o observers) PacketSent(now float64, p *Packet) {
	for _, ob := range o {
		ob.PacketSent(now, p)
	}
}

func (o observers) PacketLost(now float64, p *Packet) {
	for _, ob := range o {
		ob.PacketLost(now, p)
	}
}

func (o observers) PacketReceived(now float64, p *Packet) {
	for _, ob := range o {
		ob.PacketReceived(now, p)
	}
}

func (o observers) Interference(now float64) {
	for _, ob := range o {
		ob.Interference(now)
	}
}

// Stats counts lifecycle events of one run.
// Generated == Delivered + Lost + Pending once a run has finished.
type Stats struct {
	Generated     int `json:"generated"`
	Delivered     int `json:"delivered"`
	Lost          int `json:"lost"`
	Pending       int `json:"pending"` // buffered or in flight when the horizon was reached
	Interferences int `json:"interference"`
}

func (s *Stats) PacketGenerated(float64, *Packet) { s.Generated++ }
func (s *Stats) PacketSent(float64, *Packet)      {}
func (s *Stats) PacketLost(float64, *Packet)      { s.Lost++ }
func (s *Stats) PacketReceived(float64, *Packet)  { s.Delivered++ }
func (s *Stats) Interference(float64)             { s.Interferences++ }

// tracer records lifecycle events into a SimulationTrace.
type tracer struct {
	st *trace.SimulationTrace
}

func (t tracer) PacketGenerated(now float64, p *Packet) {
	t.st.Record(trace.EventRecord{Clock: now, Kind: trace.KindGenerated, Device: p.Device, PacketID: p.ID.String(), Value: p.Value})
}

func (t tracer) PacketSent(now float64, p *Packet) {
	t.st.Record(trace.EventRecord{Clock: now, Kind: trace.KindSent, Device: p.Device, PacketID: p.ID.String(), Value: p.Value})
}

func (t tracer) PacketLost(now float64, p *Packet) {
	t.st.Record(trace.EventRecord{Clock: now, Kind: trace.KindLost, Device: p.Device, PacketID: p.ID.String(), Value: p.Value})
}

func (t tracer) PacketReceived(now float64, p *Packet) {
	latency, _ := p.Latency()
	t.st.Record(trace.EventRecord{Clock: now, Kind: trace.KindReceived, Device: p.Device, PacketID: p.ID.String(), Value: p.Value, Latency: latency})
}

func (t tracer) Interference(now float64) {
	t.st.Record(trace.EventRecord{Clock: now, Kind: trace.KindInterference})
}
