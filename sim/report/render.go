package report

import (
	"fmt"
	"io"
	"strings"
)

// histogramWidth is the length of the longest bar.
const histogramWidth = 40

// WriteHistogram renders bins as a horizontal bar chart.
func WriteHistogram(w io.Writer, bins []Bin) error {
	if len(bins) == 0 {
		_, err := fmt.Fprintln(w, "No packets received!")
		return err
	}
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	for _, b := range bins {
		bar := 0
		if peak > 0 {
			bar = b.Count * histogramWidth / peak
		}
		if _, err := fmt.Fprintf(w, "[%6.3f, %6.3f) %5d %s\n", b.Lo, b.Hi, b.Count, strings.Repeat("#", bar)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary prints s in a fixed layout.
func WriteSummary(w io.Writer, s Summary) error {
	_, err := fmt.Fprintf(w, "=== Packet Latency ===\n"+
		"Delivered packets    : %d\n"+
		"Mean latency         : %.3f s\n"+
		"Min / max latency    : %.3f / %.3f s\n"+
		"p50 / p95 / p99      : %.3f / %.3f / %.3f s\n"+
		"Mean reading         : %.2f°C\n",
		s.Count, s.MeanLatency, s.MinLatency, s.MaxLatency,
		s.P50Latency, s.P95Latency, s.P99Latency, s.MeanValue)
	return err
}
