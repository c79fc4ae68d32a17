package sim

import "fmt"

// ConfigurationError reports an invalid parameter supplied before a run starts
// (device count, horizon, data rate, scheduling delay, ...).
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FaultError is an unexpected internal fault raised while a run is in progress,
// e.g. a malformed packet or a process yielding a negative delay.
// A fault aborts the run; no partial results are returned.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("simulation fault in %s: %v", e.Op, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }
