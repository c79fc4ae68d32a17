package iot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotnet-sim/iotnet-sim/sim"
)

// lossless returns reference parameters with loss forced to 0.
func lossless() Params {
	p := DefaultParams()
	p.LossProbability = 0
	return p
}

// mustRun runs cfg and fails the test on error.
func mustRun(t *testing.T, cfg Config) *Result {
	t.Helper()
	res, err := Run(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// testNetwork builds a network with its own log and stats.
func testNetwork(params Params) (*Network, *sim.EventLog, *Stats) {
	log := sim.NewEventLog(nil)
	stats := &Stats{}
	return newNetwork(params, rand.New(rand.NewSource(1)), log, observers{stats}), log, stats
}

// testDevice builds a device attached to n.
func testDevice(t *testing.T, name string, rate float64, params Params, n *Network, log *sim.EventLog, stats *Stats) *Device {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	d, err := newDevice(name, rate, params, rng, rand.New(rand.NewSource(8)), n, log, observers{stats})
	require.NoError(t, err)
	return d
}
