package iot

import (
	"fmt"
	"math"
	"sort"

	"github.com/iotnet-sim/iotnet-sim/sim"
)

// Params holds the model constants of a run. Every range is a closed uniform
// interval [Min, Max].
//
// The original sensor firmware shipped two divergent device definitions
// (different default data rates). Both are kept as named profiles instead of
// being merged; see Profiles.
type Params struct {
	ValueMin float64 `yaml:"value_min"` // sensor reading range (°C)
	ValueMax float64 `yaml:"value_max"`

	DataRateMin float64 `yaml:"data_rate_min"` // readings/sec, drawn once per device
	DataRateMax float64 `yaml:"data_rate_max"`

	DelayMin float64 `yaml:"delay_min"` // transmission delay (s)
	DelayMax float64 `yaml:"delay_max"`

	LossProbability float64 `yaml:"loss_probability"`
	PollInterval    float64 `yaml:"poll_interval"` // transmit retry period when the buffer is empty

	InterferenceMin float64 `yaml:"interference_min"` // gap between interference events (s)
	InterferenceMax float64 `yaml:"interference_max"`

	// Extension: each interference event adds InterferenceLossBoost to the loss
	// probability for InterferenceDuration seconds. Zero disables it, which
	// leaves interference purely observational.
	InterferenceLossBoost float64 `yaml:"interference_loss_boost,omitempty"`
	InterferenceDuration  float64 `yaml:"interference_duration,omitempty"`
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		ValueMin:        30.0,
		ValueMax:        40.0,
		DataRateMin:     0.5,
		DataRateMax:     2.0,
		DelayMin:        0.1,
		DelayMax:        0.5,
		LossProbability: 0.01,
		PollInterval:    0.1,
		InterferenceMin: 5.0,
		InterferenceMax: 10.0,
	}
}

// LegacyParams returns the second device definition found in the original
// firmware: a fixed 3.0 readings/sec rate instead of a per-device draw.
func LegacyParams() Params {
	p := DefaultParams()
	p.DataRateMin = 3.0
	p.DataRateMax = 3.0
	return p
}

// Profiles maps profile names to parameter constructors.
var Profiles = map[string]func() Params{
	"default": DefaultParams,
	"legacy":  LegacyParams,
}

// ProfileNames returns the sorted profile names.
func ProfileNames() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParamsForProfile looks up a named profile.
func ParamsForProfile(name string) (Params, error) {
	fn, ok := Profiles[name]
	if !ok {
		return Params{}, sim.NewConfigurationError("profile", "unknown profile %q (valid: %v)", name, ProfileNames())
	}
	return fn(), nil
}

// Validate checks every field and returns a *sim.ConfigurationError naming the
// first offending one.
func (p Params) Validate() error {
	ranges := []struct {
		field  string
		lo, hi float64
		floor  bound
	}{
		{"value", p.ValueMin, p.ValueMax, unbounded},
		{"data_rate", p.DataRateMin, p.DataRateMax, positive},
		{"delay", p.DelayMin, p.DelayMax, nonNegative},
		{"interference", p.InterferenceMin, p.InterferenceMax, positive},
	}
	for _, r := range ranges {
		if err := validateRange(r.field, r.lo, r.hi, r.floor); err != nil {
			return err
		}
	}
	if !finite(p.LossProbability) || p.LossProbability < 0 || p.LossProbability > 1 {
		return sim.NewConfigurationError("loss_probability", "must be in [0, 1], got %v", p.LossProbability)
	}
	if !finite(p.PollInterval) || p.PollInterval <= 0 {
		return sim.NewConfigurationError("poll_interval", "must be > 0, got %v", p.PollInterval)
	}
	if !finite(p.InterferenceLossBoost) || p.InterferenceLossBoost < 0 || p.InterferenceLossBoost > 1 {
		return sim.NewConfigurationError("interference_loss_boost", "must be in [0, 1], got %v", p.InterferenceLossBoost)
	}
	if !finite(p.InterferenceDuration) || p.InterferenceDuration < 0 {
		return sim.NewConfigurationError("interference_duration", "must be >= 0, got %v", p.InterferenceDuration)
	}
	return nil
}

// InterferenceCoupled reports whether interference affects loss.
func (p Params) InterferenceCoupled() bool {
	return p.InterferenceLossBoost > 0 && p.InterferenceDuration > 0
}

// bound is the lower limit a range's minimum must respect.
type bound int

const (
	unbounded bound = iota
	nonNegative
	positive
)

func validateRange(field string, lo, hi float64, floor bound) error {
	if !finite(lo) || !finite(hi) {
		return sim.NewConfigurationError(field, "range must be finite, got [%v, %v]", lo, hi)
	}
	if lo > hi {
		return sim.NewConfigurationError(field, "min %v exceeds max %v", lo, hi)
	}
	switch {
	case floor == positive && lo <= 0:
		return sim.NewConfigurationError(field, "must be > 0, got min %v", lo)
	case floor == nonNegative && lo < 0:
		return sim.NewConfigurationError(field, "must be >= 0, got min %v", lo)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p Params) String() string {
	return fmt.Sprintf("value=[%.1f,%.1f] rate=[%.2f,%.2f] delay=[%.2f,%.2f] loss=%.3f poll=%.2f interference=[%.1f,%.1f]",
		p.ValueMin, p.ValueMax, p.DataRateMin, p.DataRateMax, p.DelayMin, p.DelayMax,
		p.LossProbability, p.PollInterval, p.InterferenceMin, p.InterferenceMax)
}
