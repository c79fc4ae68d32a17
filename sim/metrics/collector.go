// Package metrics exposes a run's packet lifecycle as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotnet-sim/iotnet-sim/sim/iot"
)

const (
	Generated    = "iotsim_packets_generated_total"
	Delivered    = "iotsim_packets_delivered_total"
	Lost         = "iotsim_packets_lost_total"
	Interference = "iotsim_interference_events_total"
	Latency      = "iotsim_packet_latency_seconds"
	VirtualTime  = "iotsim_virtual_time_seconds"
)

// Collector is an iot.Observer backed by Prometheus collectors.
// Register it on a per-run registry; it holds no global state.
type Collector struct {
	counters map[string]*prometheus.CounterVec
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Histogram
	events   prometheus.Counter
}

var _ iot.Observer = (*Collector)(nil)

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: Generated,
		Help: "Sensor readings generated, by device.",
	}, []string{"device"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: Delivered,
		Help: "Packets received by the gateway, by origin device.",
	}, []string{"device"})
	lost := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: Lost,
		Help: "Packets dropped on the channel, by origin device.",
	}, []string{"device"})
	interference := prometheus.NewCounter(prometheus.CounterOpts{
		Name: Interference,
		Help: "Interference events emitted by the network.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    Latency,
		Help:    "Generation-to-arrival latency in virtual seconds.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})
	clock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: VirtualTime,
		Help: "Virtual time of the latest lifecycle event.",
	})

	for _, c := range []prometheus.Collector{generated, delivered, lost, interference, latency, clock} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		counters: map[string]*prometheus.CounterVec{
			Generated: generated,
			Delivered: delivered,
			Lost:      lost,
		},
		gauges: map[string]prometheus.Gauge{
			VirtualTime: clock,
		},
		histos: map[string]prometheus.Histogram{
			Latency: latency,
		},
		events: interference,
	}, nil
}

func (c *Collector) inc(name, device string, now float64) {
	c.counters[name].WithLabelValues(device).Inc()
	c.gauges[VirtualTime].Set(now)
}

func (c *Collector) PacketGenerated(now float64, p *iot.Packet) {
	c.inc(Generated, p.Device, now)
}

func (c *Collector) PacketSent(now float64, p *iot.Packet) {
	c.gauges[VirtualTime].Set(now)
}

func (c *Collector) PacketLost(now float64, p *iot.Packet) {
	c.inc(Lost, p.Device, now)
}

func (c *Collector) PacketReceived(now float64, p *iot.Packet) {
	c.inc(Delivered, p.Device, now)
	if latency, ok := p.Latency(); ok {
		c.histos[Latency].Observe(latency)
	}
}

func (c *Collector) Interference(now float64) {
	c.events.Inc()
	c.gauges[VirtualTime].Set(now)
}
