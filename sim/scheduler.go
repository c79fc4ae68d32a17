package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// resumption is a pending wake-up of a process, tagged with a sequence ID for
// deterministic FIFO tie-breaking when resume times are equal.
type resumption struct {
	at      float64
	seqID   int64
	process Process
}

// resumptionQueue is a min-heap ordered by (at, seqID).
// Implements heap.Interface.
type resumptionQueue []resumption

func (q resumptionQueue) Len() int { return len(q) }

func (q resumptionQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seqID < q[j].seqID
}

func (q resumptionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *resumptionQueue) Push(x any) {
	*q = append(*q, x.(resumption))
}

func (q *resumptionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Scheduler owns virtual time and the queue of pending process resumptions.
// Thread-safety: NOT thread-safe. A Scheduler belongs to exactly one run.
type Scheduler struct {
	now     float64
	pending resumptionQueue
	seq     int64
}

// NewScheduler creates a Scheduler at virtual time 0 with nothing pending.
func NewScheduler() *Scheduler {
	s := &Scheduler{pending: make(resumptionQueue, 0)}
	heap.Init(&s.pending)
	return s
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 { return s.now }

// Pending returns the number of scheduled but not yet fired resumptions.
func (s *Scheduler) Pending() int { return s.pending.Len() }

// Schedule registers p to resume at Now()+delay. Resumptions scheduled for the
// same instant fire in the order Schedule was called.
func (s *Scheduler) Schedule(p Process, delay float64) error {
	if p == nil {
		return NewConfigurationError("process", "must not be nil")
	}
	if math.IsNaN(delay) || delay < 0 {
		return NewConfigurationError("delay", "must be >= 0, got %v", delay)
	}
	heap.Push(&s.pending, resumption{at: s.now + delay, seqID: s.nextSeqID(), process: p})
	return nil
}

func (s *Scheduler) nextSeqID() int64 {
	id := s.seq
	s.seq++
	return id
}

// Run fires pending resumptions in (time, scheduling order) until none remain
// strictly before until. The horizon itself is exclusive: a resumption due at
// exactly until is not fired. On return Now() == until and every remaining
// resumption has been discarded.
//
// A process error or a negative yielded delay aborts the run with a *FaultError.
func (s *Scheduler) Run(until float64) error {
	if math.IsNaN(until) || until <= 0 {
		return NewConfigurationError("horizon", "must be > 0, got %v", until)
	}
	if until < s.now {
		return NewConfigurationError("horizon", "%v is before current time %v", until, s.now)
	}
	for s.pending.Len() > 0 {
		if s.pending[0].at >= until {
			break
		}
		next := heap.Pop(&s.pending).(resumption)
		s.now = next.at
		logrus.Tracef("[t=%.6f] resuming %T (seq %d)", s.now, next.process, next.seqID)

		step, err := next.process.Resume(s.now)
		if err != nil {
			s.discard()
			return &FaultError{Op: fmt.Sprintf("%T", next.process), Err: err}
		}
		if step.Done() {
			continue
		}
		if err := s.Schedule(next.process, step.Delay()); err != nil {
			s.discard()
			return &FaultError{Op: fmt.Sprintf("%T", next.process), Err: err}
		}
	}
	s.now = until
	if n := s.pending.Len(); n > 0 {
		logrus.Debugf("[t=%.2f] horizon reached, discarding %d pending resumptions", s.now, n)
	}
	s.discard()
	return nil
}

func (s *Scheduler) discard() {
	s.pending = nil
}
