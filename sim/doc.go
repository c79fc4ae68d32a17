// Package sim provides the discrete-event simulation kernel for iotnet-sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - process.go: the cooperative Process contract (Resume until Wait or Finish)
//   - scheduler.go: virtual time, the resumption heap and the Run loop
//   - logsink.go: per-run log collection and sink injection
//
// # Architecture
//
// The kernel knows nothing about sensors or gateways. Domain behavior lives in
// sub-packages:
//   - sim/iot/: packets, devices, the gateway network and the run driver
//   - sim/trace/: structured packet lifecycle records
//   - sim/metrics/: Prometheus collectors fed by run observers
//   - sim/report/: latency and reading series prepared for plotting
//
// Execution is single-threaded. Processes are interleaved by virtual time and,
// for equal times, by the order in which their resumptions were scheduled.
// Reproducibility comes from PartitionedRNG: every random draw in a run comes
// from a stream derived from the run's SimulationKey.
package sim
