package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotnet-sim/iotnet-sim/sim/iot"
)

func TestCollector_RecordsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	at := 1.3
	p := &iot.Packet{Timestamp: 1, Device: "Sensor_0", ReceivedAt: &at}
	c.PacketGenerated(1, p)
	c.PacketGenerated(2, &iot.Packet{Timestamp: 2, Device: "Sensor_1"})
	c.PacketLost(2, &iot.Packet{Timestamp: 2, Device: "Sensor_1"})
	c.PacketReceived(1.3, p)
	c.PacketSent(1.3, p)
	c.Interference(6)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.counters[Generated].WithLabelValues("Sensor_0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.counters[Generated].WithLabelValues("Sensor_1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.counters[Lost].WithLabelValues("Sensor_1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.counters[Delivered].WithLabelValues("Sensor_0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.gauges[VirtualTime]))
	assert.Equal(t, 1, testutil.CollectAndCount(c.histos[Latency]))
}

func TestCollector_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollector_MatchesRunStats(t *testing.T) {
	// GIVEN a collector attached to a run
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	cfg := iot.DefaultConfig(4, 80)
	cfg.Params.LossProbability = 0.1
	cfg.Observers = []iot.Observer{c}

	// WHEN the run completes
	res, err := iot.Run(cfg, nil)
	require.NoError(t, err)

	// THEN the metric totals agree with the run's own statistics
	var generated, delivered, lost float64
	for _, d := range res.Devices {
		generated += testutil.ToFloat64(c.counters[Generated].WithLabelValues(d.Name))
		delivered += testutil.ToFloat64(c.counters[Delivered].WithLabelValues(d.Name))
		lost += testutil.ToFloat64(c.counters[Lost].WithLabelValues(d.Name))
	}
	assert.Equal(t, float64(res.Stats.Generated), generated)
	assert.Equal(t, float64(res.Stats.Delivered), delivered)
	assert.Equal(t, float64(res.Stats.Lost), lost)
	assert.Equal(t, float64(res.Stats.Interferences), testutil.ToFloat64(c.events))
	assert.Less(t, testutil.ToFloat64(c.gauges[VirtualTime]), cfg.Horizon)
}
