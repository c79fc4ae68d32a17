// Package iot models the sensor network: packets, devices with their
// generation and transmission processes, the gateway network, and the driver
// that wires them onto a sim.Scheduler for one run.
package iot

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/iotnet-sim/iotnet-sim/sim"
	"github.com/iotnet-sim/iotnet-sim/sim/trace"
)

// DefaultSeed is used when a caller does not pick one.
const DefaultSeed int64 = 42

// Config describes one simulation run.
type Config struct {
	NumDevices int              // must be >= 1
	Horizon    float64          // virtual seconds, must be > 0
	Seed       int64            // master seed; equal seeds reproduce a run exactly
	Params     Params           // model constants
	Trace      trace.TraceLevel // "none" (default) or "events"
	Observers  []Observer       // notified after the built-in statistics and trace
}

// DefaultConfig returns a run of numDevices devices to horizon with the
// reference parameters.
func DefaultConfig(numDevices int, horizon float64) Config {
	return Config{
		NumDevices: numDevices,
		Horizon:    horizon,
		Seed:       DefaultSeed,
		Params:     DefaultParams(),
		Trace:      trace.TraceLevelNone,
	}
}

// Validate returns a *sim.ConfigurationError for the first invalid field.
func (c Config) Validate() error {
	if c.NumDevices < 1 {
		return sim.NewConfigurationError("num_devices", "must be >= 1, got %d", c.NumDevices)
	}
	if math.IsNaN(c.Horizon) || math.IsInf(c.Horizon, 0) || c.Horizon <= 0 {
		return sim.NewConfigurationError("horizon", "must be a positive finite number, got %v", c.Horizon)
	}
	if !trace.IsValidTraceLevel(string(c.Trace)) {
		return sim.NewConfigurationError("trace", "unknown trace level %q", c.Trace)
	}
	return c.Params.Validate()
}

// DeviceInfo describes a device as it stood at the end of a run.
type DeviceInfo struct {
	Name     string  `json:"name"`
	DataRate float64 `json:"data_rate"`
	Buffered int     `json:"buffered"` // waiting in the device buffer
	Pending  int     `json:"pending"`  // buffered plus the packet in flight
}

// Result is everything a run produces.
type Result struct {
	Received []*Packet              `json:"received"`
	Logs     []string               `json:"logs"`
	Stats    Stats                  `json:"stats"`
	Devices  []DeviceInfo           `json:"devices"`
	Trace    *trace.SimulationTrace `json:"trace,omitempty"` // nil unless cfg.Trace is "events"
}

// Run builds a fresh scheduler, network and cfg.NumDevices devices, runs the
// simulation to cfg.Horizon and returns the delivered packets and log lines.
// Every log line is also passed to sink (may be nil) as it is produced.
//
// Run is safe to call repeatedly: nothing survives between calls. It owns its
// object graph exclusively, so a caller running it on a background goroutine
// must only read the Result after Run returns.
//
// There is no cancellation. A "stop" requested by a front-end is advisory:
// Run always continues to cfg.Horizon. Configuration problems are reported as
// *sim.ConfigurationError before anything runs; an internal fault aborts the
// run with a *sim.FaultError and no partial result.
func Run(cfg Config, sink sim.LogSink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	logrus.Infof("Starting IoT simulation: devices=%d horizon=%.2fs key=%d", cfg.NumDevices, cfg.Horizon, rng.Key())
	logrus.Debugf("Parameters: %s", cfg.Params)

	scheduler := sim.NewScheduler()
	eventLog := sim.NewEventLog(sink)

	stats := &Stats{}
	obs := observers{stats}
	var st *trace.SimulationTrace
	if cfg.Trace.Enabled() {
		st = trace.NewSimulationTrace(cfg.Trace)
		obs = append(obs, tracer{st: st})
	}
	obs = append(obs, cfg.Observers...)

	network := newNetwork(cfg.Params, rng.ForSubsystem(sim.SubsystemNetwork), eventLog, obs)

	topology := rng.ForSubsystem(sim.SubsystemTopology)
	ids := rng.ForSubsystem(sim.SubsystemPacketIDs)
	devices := make([]*Device, 0, cfg.NumDevices)
	for i := 0; i < cfg.NumDevices; i++ {
		rate := sim.Uniform(topology, cfg.Params.DataRateMin, cfg.Params.DataRateMax)
		d, err := newDevice(fmt.Sprintf("Sensor_%d", i), rate, cfg.Params,
			rng.ForSubsystem(sim.SubsystemDevice(i)), ids, network, eventLog, obs)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("Device %s: data rate %.3f readings/s", d.Name(), d.DataRate())
		devices = append(devices, d)
	}

	for _, d := range devices {
		if err := scheduler.Schedule(d.Generator(), 0); err != nil {
			return nil, err
		}
		if err := scheduler.Schedule(d.Transmitter(), 0); err != nil {
			return nil, err
		}
	}
	if err := scheduler.Schedule(network.Interference(), 0); err != nil {
		return nil, err
	}

	if err := scheduler.Run(cfg.Horizon); err != nil {
		logrus.Errorf("Simulation aborted at t=%.2f: %v", scheduler.Now(), err)
		return nil, fmt.Errorf("run aborted: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		stats.Pending += d.Pending()
		infos = append(infos, DeviceInfo{
			Name:     d.Name(),
			DataRate: d.DataRate(),
			Buffered: d.Buffered(),
			Pending:  d.Pending(),
		})
	}

	logrus.Infof("Simulation ended at t=%.2f: generated=%d delivered=%d lost=%d pending=%d",
		scheduler.Now(), stats.Generated, stats.Delivered, stats.Lost, stats.Pending)

	return &Result{
		Received: network.Received(),
		Logs:     eventLog.Lines(),
		Stats:    *stats,
		Devices:  infos,
		Trace:    st,
	}, nil
}
