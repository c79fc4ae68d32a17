package sim

import "fmt"

// LogSink receives simulation log lines as they are produced.
// A sink is injected per run; there is no process-wide redirection.
type LogSink func(line string)

// EventLog accumulates formatted simulation log lines for one run and forwards
// each of them to an optional sink in the order events occur.
type EventLog struct {
	lines []string
	sink  LogSink
}

// NewEventLog creates an EventLog forwarding to sink (may be nil).
func NewEventLog(sink LogSink) *EventLog {
	return &EventLog{lines: make([]string, 0), sink: sink}
}

// Logf records "[<now %.2f>] <message>".
func (l *EventLog) Logf(now float64, format string, args ...any) {
	line := FormatLine(now, fmt.Sprintf(format, args...))
	l.lines = append(l.lines, line)
	if l.sink != nil {
		l.sink(line)
	}
}

// Lines returns a copy of every recorded line.
func (l *EventLog) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of recorded lines.
func (l *EventLog) Len() int { return len(l.lines) }

// FormatLine renders a log line for virtual time now.
func FormatLine(now float64, msg string) string {
	return fmt.Sprintf("[%.2f] %s", now, msg)
}
