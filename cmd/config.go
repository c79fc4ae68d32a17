package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iotnet-sim/iotnet-sim/sim/iot"
)

// RunFile is the structure of a --config YAML file. Every field is optional;
// params start from the named profile and only listed keys override it.
// Parsed with KnownFields(true) so typos are errors, not silent defaults.
type RunFile struct {
	Profile string     `yaml:"profile"`
	Devices int        `yaml:"devices"`
	Horizon float64    `yaml:"horizon"`
	Seed    *int64     `yaml:"seed"`
	Trace   string     `yaml:"trace"`
	Params  iot.Params `yaml:"params"`
}

// loadRunFile reads and decodes path. profileOverride, when non-empty, takes
// precedence over the file's profile key.
func loadRunFile(path, profileOverride string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return parseRunFile(data, profileOverride)
}

func parseRunFile(data []byte, profileOverride string) (*RunFile, error) {
	// First pass only discovers the profile the params are layered on.
	var probe RunFile
	if err := strictDecode(data, &probe); err != nil {
		return nil, err
	}
	profile := probe.Profile
	if profileOverride != "" {
		profile = profileOverride
	}
	if profile == "" {
		profile = "default"
	}
	base, err := iot.ParamsForProfile(profile)
	if err != nil {
		return nil, err
	}

	rf := RunFile{Profile: profile, Params: base}
	if err := strictDecode(data, &rf); err != nil {
		return nil, err
	}
	rf.Profile = profile
	return &rf, nil
}

func strictDecode(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("parse config YAML: %w", err)
	}
	return nil
}
