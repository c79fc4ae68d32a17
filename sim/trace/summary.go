package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents   int
	Generated     int
	Sent          int
	Lost          int
	Received      int
	Interference  int
	MeanLatency   float64
	MaxLatency    float64
	UniqueDevices int
	PerDevice     map[string]int // device name → packets generated
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PerDevice: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	totalLatency := 0.0
	for _, e := range st.Events {
		switch e.Kind {
		case KindGenerated:
			summary.Generated++
			summary.PerDevice[e.Device]++
		case KindSent:
			summary.Sent++
		case KindLost:
			summary.Lost++
		case KindReceived:
			summary.Received++
			totalLatency += e.Latency
			if e.Latency > summary.MaxLatency {
				summary.MaxLatency = e.Latency
			}
		case KindInterference:
			summary.Interference++
		}
	}
	if summary.Received > 0 {
		summary.MeanLatency = totalLatency / float64(summary.Received)
	}

	summary.UniqueDevices = len(summary.PerDevice)

	return summary
}
