package ingest

import (
	"sync"
	"sync/atomic"
)

type State int32

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Outcome is the terminal result of a run. Err is set only when State is
// Failed.
type Outcome struct {
	State State
	Err   error
}

func completed() Outcome {
	return Outcome{State: Completed}
}

func failed(err error) Outcome {
	return Outcome{State: Failed, Err: err}
}

// Lifecycle holds the state of one run: Idle → Running → Completed|Failed.
// Any other transition is refused, and Done is closed exactly once.
type Lifecycle struct {
	state   atomic.Int32
	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{done: make(chan struct{})}
}

// Start moves an idle run to Running.
func (l *Lifecycle) Start() bool {
	return l.state.CompareAndSwap(int32(Idle), int32(Running))
}

// Finish records the terminal outcome of a running run.
func (l *Lifecycle) Finish(o Outcome) bool {
	if !o.State.Terminal() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.CompareAndSwap(int32(Running), int32(o.State)) {
		return false
	}
	l.outcome = o
	close(l.done)
	return true
}

func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Done is closed once the run reached a terminal state.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Outcome returns the terminal outcome, or the current non-terminal state
// with a nil error.
func (l *Lifecycle) Outcome() Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st := l.State(); !st.Terminal() {
		return Outcome{State: st}
	}
	return l.outcome
}
