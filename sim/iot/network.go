package iot

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/iotnet-sim/iotnet-sim/sim"
)

// GatewayName identifies the single gateway of a run.
const GatewayName = "Central Gateway"

// Network is the central gateway. Its received list is append-only and in
// arrival order.
type Network struct {
	received []*Packet

	params     Params
	rng        *rand.Rand
	log        *sim.EventLog
	obs        Observer
	boostUntil float64
}

func newNetwork(params Params, rng *rand.Rand, log *sim.EventLog, obs Observer) *Network {
	return &Network{
		received:   make([]*Packet, 0),
		params:     params,
		rng:        rng,
		log:        log,
		obs:        obs,
		boostUntil: math.Inf(-1),
	}
}

// ReceivePacket stamps the packet's arrival time and appends it. It does not
// model any delay: the caller has already waited out the transmission.
// A malformed packet is rejected with an error, which aborts the run as a
// *sim.FaultError once it reaches the scheduler.
func (n *Network) ReceivePacket(p *Packet, now float64) error {
	if err := p.stamp(now); err != nil {
		return fmt.Errorf("receive_packet: %w", err)
	}
	n.received = append(n.received, p)
	n.log.Logf(now, "Gateway received: %.2f°C from %s", p.Value, p.Device)
	n.obs.PacketReceived(now, p)
	return nil
}

// Received returns the delivered packets in arrival order.
func (n *Network) Received() []*Packet {
	return n.received
}

// LossProbability returns the loss probability in effect at now: the base
// probability plus the interference boost while one is active, capped at 1.
func (n *Network) LossProbability(now float64) float64 {
	p := n.params.LossProbability
	if n.params.InterferenceCoupled() && now < n.boostUntil {
		p += n.params.InterferenceLossBoost
	}
	return math.Min(p, 1)
}

// Interference returns the interference process.
func (n *Network) Interference() sim.Process { return &interferenceProcess{n: n} }

// interferenceProcess emits an interference notice every U[min, max] seconds.
// Its first resumption only draws the initial gap.
type interferenceProcess struct {
	n       *Network
	started bool
}

func (ip *interferenceProcess) Resume(now float64) (sim.Step, error) {
	n := ip.n
	if ip.started {
		n.log.Logf(now, "Network interference detected!")
		if n.params.InterferenceCoupled() {
			n.boostUntil = now + n.params.InterferenceDuration
		}
		n.obs.Interference(now)
	}
	ip.started = true
	return sim.Wait(sim.Uniform(n.rng, n.params.InterferenceMin, n.params.InterferenceMax)), nil
}
