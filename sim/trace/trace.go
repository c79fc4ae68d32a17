package trace

// TraceLevel controls the verbosity of lifecycle tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every generation, send, loss, arrival and interference.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether records should be collected at this level.
func (l TraceLevel) Enabled() bool {
	return l == TraceLevelEvents
}

// SimulationTrace collects lifecycle records during one run.
type SimulationTrace struct {
	Level  TraceLevel
	Events []EventRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:  level,
		Events: make([]EventRecord, 0),
	}
}

// Record appends a lifecycle record.
func (st *SimulationTrace) Record(record EventRecord) {
	st.Events = append(st.Events, record)
}

// ForDevice returns the records of one device, in recording order.
func (st *SimulationTrace) ForDevice(name string) []EventRecord {
	var out []EventRecord
	for _, e := range st.Events {
		if e.Device == name {
			out = append(out, e)
		}
	}
	return out
}
