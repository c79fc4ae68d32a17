package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iotnet-sim/iotnet-sim/sim/iot"
	"github.com/iotnet-sim/iotnet-sim/sim/metrics"
	"github.com/iotnet-sim/iotnet-sim/sim/report"
	"github.com/iotnet-sim/iotnet-sim/sim/trace"
)

var (
	// CLI flags for the run
	seed        int64   // Master seed for every random draw
	numDevices  int     // Number of sensor devices
	horizon     float64 // Virtual seconds to simulate
	logLevel    string  // Log verbosity level
	configPath  string  // Optional YAML run file
	profile     string  // Parameter profile (default, legacy)
	lossProb    float64 // Override of params.loss_probability
	traceLevel  string  // Lifecycle trace level
	quiet       bool    // Suppress the live simulation log
	showReport  bool    // Print latency summary and histogram
	bins        int     // Histogram bins
	resultPath  string  // Write the result as JSON here
	metricsAddr string  // Serve Prometheus metrics here after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "iotnet-sim",
	Short: "Discrete-event simulator for IoT sensor networks",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the IoT network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		var reg *prometheus.Registry
		if metricsAddr != "" {
			reg = prometheus.NewRegistry()
			collector, err := metrics.NewCollector(reg)
			if err != nil {
				logrus.Fatalf("register metrics: %v", err)
			}
			cfg.Observers = append(cfg.Observers, collector)
		}

		interrupts := make(chan os.Signal, 2)
		signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(interrupts)

		var live io.Writer = os.Stdout
		if quiet {
			live = io.Discard
		}
		outcome, err := executeRun(cfg, live, interrupts)
		if err != nil {
			logrus.Fatalf("Simulation error: %v", err)
		}
		res := outcome.Result
		fmt.Fprintln(os.Stdout, "Simulation completed!")

		if showReport {
			if err := report.WriteSummary(os.Stdout, report.Summarize(res.Received)); err != nil {
				logrus.Fatalf("write report: %v", err)
			}
			if err := report.WriteHistogram(os.Stdout, report.LatencyHistogram(res.Received, bins)); err != nil {
				logrus.Fatalf("write report: %v", err)
			}
		}
		if resultPath != "" {
			if err := writeResult(resultPath, res); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Result written to %s", resultPath)
		}
		if reg != nil {
			serveMetrics(reg, interrupts)
		}
	},
}

// buildConfig layers profile defaults, the --config file and explicitly set
// flags, in that order of increasing precedence.
func buildConfig(cmd *cobra.Command) (iot.Config, error) {
	cfg := iot.DefaultConfig(numDevices, horizon)
	cfg.Seed = seed
	cfg.Trace = trace.TraceLevel(traceLevel)

	if configPath != "" {
		override := ""
		if cmd.Flags().Changed("profile") {
			override = profile
		}
		rf, err := loadRunFile(configPath, override)
		if err != nil {
			return cfg, err
		}
		cfg.Params = rf.Params
		if rf.Devices != 0 && !cmd.Flags().Changed("devices") {
			cfg.NumDevices = rf.Devices
		}
		if rf.Horizon != 0 && !cmd.Flags().Changed("horizon") {
			cfg.Horizon = rf.Horizon
		}
		if rf.Seed != nil && !cmd.Flags().Changed("seed") {
			cfg.Seed = *rf.Seed
		}
		if rf.Trace != "" && !cmd.Flags().Changed("trace") {
			cfg.Trace = trace.TraceLevel(rf.Trace)
		}
	} else {
		params, err := iot.ParamsForProfile(profile)
		if err != nil {
			return cfg, err
		}
		cfg.Params = params
	}

	if cmd.Flags().Changed("loss-prob") {
		cfg.Params.LossProbability = lossProb
	}
	return cfg, cfg.Validate()
}

// exit terminates the process. Tests replace it.
var exit = os.Exit

// exitInterrupted is the conventional status for termination by SIGINT.
const exitInterrupted = 130

var errAborted = errors.New("simulation aborted by user")

// runOutcome is what executeRun hands back to the command.
type runOutcome struct {
	Result        *iot.Result
	StopRequested int // interrupts received while the run was in progress
}

// syncWriter serializes writes from the simulation goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// executeRun runs the simulation on a background goroutine, streaming log
// lines to live. A first interrupt is advisory: it is logged and the run still
// completes to its horizon. A second one exits the process.
func executeRun(cfg iot.Config, live io.Writer, interrupts <-chan os.Signal) (*runOutcome, error) {
	out := &syncWriter{w: live}
	type finished struct {
		res *iot.Result
		err error
	}
	done := make(chan finished, 1)
	go func() {
		res, err := iot.Run(cfg, func(line string) {
			fmt.Fprintln(out, line)
		})
		done <- finished{res: res, err: err}
	}()

	outcome := &runOutcome{}
	for {
		select {
		case sig := <-interrupts:
			outcome.StopRequested++
			if outcome.StopRequested >= 2 {
				logrus.Errorf("Simulation aborted by user (%v)", sig)
				exit(exitInterrupted)
				return nil, errAborted
			}
			logrus.Warnf("Stop requested (%v). The simulation cannot be interrupted and will run to t=%.2f; interrupt again to exit.", sig, cfg.Horizon)
		case f := <-done:
			if f.err != nil {
				return nil, f.err
			}
			outcome.Result = f.res
			return outcome, nil
		}
	}
}

func writeResult(path string, res *iot.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result %s: %w", path, err)
	}
	return nil
}

// serveMetrics exposes reg on metricsAddr until an interrupt arrives.
func serveMetrics(reg *prometheus.Registry, interrupts <-chan os.Signal) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	go func() {
		<-interrupts
		_ = srv.Close()
	}()
	logrus.Infof("Serving run metrics on %s/metrics (Ctrl-C to exit)", metricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("metrics server: %v", err)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	runCmd.Flags().Int64Var(&seed, "seed", iot.DefaultSeed, "Seed for every random draw")
	runCmd.Flags().IntVar(&numDevices, "devices", 5, "Number of sensor devices")
	runCmd.Flags().Float64Var(&horizon, "horizon", 30, "Simulation horizon (virtual seconds)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Model parameters
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run file (devices, horizon, seed, trace, profile, params)")
	runCmd.Flags().StringVar(&profile, "profile", "default", "Parameter profile (default, legacy)")
	runCmd.Flags().Float64Var(&lossProb, "loss-prob", 0.01, "Per-packet loss probability")

	// Output
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Lifecycle trace level (none, events)")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "Do not stream simulation log lines")
	runCmd.Flags().BoolVar(&showReport, "report", false, "Print latency summary and histogram after the run")
	runCmd.Flags().IntVar(&bins, "bins", report.DefaultBins, "Latency histogram bins")
	runCmd.Flags().StringVar(&resultPath, "out", "", "Write received packets, logs and stats as JSON")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics for the run on this address after it completes")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
