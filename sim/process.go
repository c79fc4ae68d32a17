package sim

// Step is what a Process hands back to the Scheduler when it suspends.
type Step struct {
	delay float64
	done  bool
}

// Wait suspends the process for delay units of virtual time.
func Wait(delay float64) Step {
	return Step{delay: delay}
}

// Finish terminates the process; it is never resumed again.
func Finish() Step {
	return Step{done: true}
}

// Delay returns the requested suspension; meaningless when Done is true.
func (s Step) Delay() float64 { return s.delay }

// Done reports whether the process terminated.
func (s Step) Done() bool { return s.done }

// Process is a cooperative unit of simulated behavior.
// Resume runs the process from its last suspension point until it either
// suspends again (Wait) or terminates (Finish). Suspension is the only yield
// point: a process must not block.
//
// Long-running processes (device generation/transmission, interference) never
// Finish; they loop until the Scheduler's horizon cuts them off.
type Process interface {
	Resume(now float64) (Step, error)
}

// ProcessFunc adapts an ordinary function to the Process interface.
type ProcessFunc func(now float64) (Step, error)

// Resume calls f(now).
func (f ProcessFunc) Resume(now float64) (Step, error) {
	return f(now)
}
