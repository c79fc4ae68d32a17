package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotnet-sim/iotnet-sim/sim"
	"github.com/iotnet-sim/iotnet-sim/sim/iot"
	"github.com/iotnet-sim/iotnet-sim/sim/trace"
)

// resetFlags restores every run flag to its default and clears Changed.
func resetFlags(t *testing.T) {
	t.Helper()
	restore := func() {
		runCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	restore()
	t.Cleanup(restore)
}

func TestBuildConfig_Defaults(t *testing.T) {
	resetFlags(t)

	cfg, err := buildConfig(runCmd)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NumDevices)
	assert.Equal(t, 30.0, cfg.Horizon)
	assert.Equal(t, iot.DefaultSeed, cfg.Seed)
	assert.Equal(t, iot.DefaultParams(), cfg.Params)
	assert.Equal(t, trace.TraceLevelNone, cfg.Trace)
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	// GIVEN a run file and explicit --devices/--loss-prob flags
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profile: legacy
devices: 9
horizon: 15
seed: 3
params:
  loss_probability: 0.3
  delay_max: 0.4
`), 0o644))
	require.NoError(t, runCmd.Flags().Set("config", path))
	require.NoError(t, runCmd.Flags().Set("devices", "2"))
	require.NoError(t, runCmd.Flags().Set("loss-prob", "0.05"))

	// WHEN the config is built
	cfg, err := buildConfig(runCmd)
	require.NoError(t, err)

	// THEN flags win over the file, and the file wins over the profile
	assert.Equal(t, 2, cfg.NumDevices)
	assert.Equal(t, 15.0, cfg.Horizon)
	assert.Equal(t, int64(3), cfg.Seed)
	assert.Equal(t, 0.05, cfg.Params.LossProbability)
	assert.Equal(t, 0.4, cfg.Params.DelayMax)
	assert.Equal(t, 3.0, cfg.Params.DataRateMin, "legacy profile rate")
}

func TestBuildConfig_ZeroDevicesRejected(t *testing.T) {
	resetFlags(t)
	require.NoError(t, runCmd.Flags().Set("devices", "0"))

	_, err := buildConfig(runCmd)

	var cfgErr *sim.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "num_devices", cfgErr.Field)
}

func TestBuildConfig_UnknownProfile(t *testing.T) {
	resetFlags(t)
	require.NoError(t, runCmd.Flags().Set("profile", "turbo"))
	_, err := buildConfig(runCmd)
	assert.Error(t, err)
}

func TestExecuteRun_StreamsLogLines(t *testing.T) {
	var buf bytes.Buffer
	outcome, err := executeRun(iot.DefaultConfig(2, 10), &buf, make(chan os.Signal))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, outcome.Result.Logs, lines)
	assert.Zero(t, outcome.StopRequested)
}

func TestExecuteRun_StopIsAdvisory(t *testing.T) {
	// GIVEN a stop request already pending when the run starts
	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt
	cfg := iot.DefaultConfig(3, 40)

	// WHEN the run executes
	outcome, err := executeRun(cfg, &bytes.Buffer{}, interrupts)
	require.NoError(t, err)

	// THEN it still produces exactly the full-horizon result
	reference, err := iot.Run(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, reference.Logs, outcome.Result.Logs)
	assert.Equal(t, reference.Received, outcome.Result.Received)
	assert.LessOrEqual(t, outcome.StopRequested, 1)
}

// gatedWriter blocks every write until release is closed.
type gatedWriter chan struct{}

func (g gatedWriter) Write(p []byte) (int, error) {
	<-g
	return len(p), nil
}

func TestExecuteRun_SecondInterruptExits(t *testing.T) {
	// GIVEN a run held mid-flight by its output and two pending interrupts
	release := make(gatedWriter)
	var code int
	calls := 0
	orig := exit
	exit = func(c int) {
		code = c
		calls++
		close(release)
	}
	t.Cleanup(func() { exit = orig })

	interrupts := make(chan os.Signal, 2)
	interrupts <- os.Interrupt
	interrupts <- os.Interrupt

	// WHEN the run executes
	outcome, err := executeRun(iot.DefaultConfig(1, 10), release, interrupts)

	// THEN the second interrupt exits with the SIGINT status
	require.ErrorIs(t, err, errAborted)
	assert.Nil(t, outcome)
	assert.Equal(t, 1, calls)
	assert.Equal(t, exitInterrupted, code)
}

func TestExecuteRun_ConfigurationErrorSurfaces(t *testing.T) {
	_, err := executeRun(iot.DefaultConfig(0, 10), &bytes.Buffer{}, make(chan os.Signal))
	var cfgErr *sim.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestWriteResult_JSON(t *testing.T) {
	res, err := iot.Run(iot.DefaultConfig(1, 5), nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "result.json")

	require.NoError(t, writeResult(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "received")
	assert.Contains(t, decoded, "logs")
	assert.Contains(t, decoded, "stats")
	assert.NotContains(t, decoded, "trace")
}
