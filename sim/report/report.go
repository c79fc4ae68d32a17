// Package report prepares delivered packets for plotting: the latency
// distribution and the reading-over-time series. An empty packet list is a
// valid input and yields empty output.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/iotnet-sim/iotnet-sim/sim/iot"
)

// DefaultBins matches the latency histogram of the original plots.
const DefaultBins = 20

// Bin is one latency histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Point is one reading in the time series.
type Point struct {
	Time   float64 `json:"time"` // generation virtual time
	Value  float64 `json:"value"`
	Device string  `json:"device"`
}

// Summary holds latency and reading statistics of delivered packets.
type Summary struct {
	Count       int     `json:"count"`
	MeanLatency float64 `json:"mean_latency"`
	MinLatency  float64 `json:"min_latency"`
	MaxLatency  float64 `json:"max_latency"`
	P50Latency  float64 `json:"p50_latency"`
	P95Latency  float64 `json:"p95_latency"`
	P99Latency  float64 `json:"p99_latency"`
	MeanValue   float64 `json:"mean_value"`
}

// Latencies returns received_at - timestamp of every delivered packet, in
// input order. Undelivered packets are skipped.
func Latencies(pkts []*iot.Packet) []float64 {
	out := make([]float64, 0, len(pkts))
	for _, p := range pkts {
		if l, ok := p.Latency(); ok {
			out = append(out, l)
		}
	}
	return out
}

// LatencyHistogram buckets latencies into bins equal-width bins spanning
// [min, max]. bins < 1 falls back to DefaultBins.
func LatencyHistogram(pkts []*iot.Packet, bins int) []Bin {
	if bins < 1 {
		bins = DefaultBins
	}
	x := Latencies(pkts)
	if len(x) == 0 {
		return []Bin{}
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if hi == lo {
		hi = lo + 1
	}
	// stat.Histogram needs every sample strictly below the last divider.
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, x, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	return out
}

// ReadingSeries returns delivered readings ordered by generation time. Ties keep
// arrival order.
func ReadingSeries(pkts []*iot.Packet) []Point {
	out := make([]Point, 0, len(pkts))
	for _, p := range pkts {
		if !p.Received() {
			continue
		}
		out = append(out, Point{Time: p.Timestamp, Value: p.Value, Device: p.Device})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Summarize computes latency quantiles and the mean reading.
func Summarize(pkts []*iot.Packet) Summary {
	x := Latencies(pkts)
	if len(x) == 0 {
		return Summary{}
	}
	sort.Float64s(x)

	values := make([]float64, 0, len(x))
	for _, p := range pkts {
		if p.Received() {
			values = append(values, p.Value)
		}
	}

	return Summary{
		Count:       len(x),
		MeanLatency: stat.Mean(x, nil),
		MinLatency:  x[0],
		MaxLatency:  x[len(x)-1],
		P50Latency:  stat.Quantile(0.50, stat.Empirical, x, nil),
		P95Latency:  stat.Quantile(0.95, stat.Empirical, x, nil),
		P99Latency:  stat.Quantile(0.99, stat.Empirical, x, nil),
		MeanValue:   stat.Mean(values, nil),
	}
}
