package importer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/cellarfeed/pkg/ingest"
)

// Run is the handle of one import. Its state only moves forward and Done is
// closed once, when the outcome is known.
type Run struct {
	id        uuid.UUID
	lifecycle *ingest.Lifecycle

	mu         sync.RWMutex
	startedAt  time.Time
	finishedAt time.Time
}

func newRun() *Run {
	return &Run{
		id:        uuid.New(),
		lifecycle: ingest.NewLifecycle(),
	}
}

func (r *Run) start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lifecycle.Start() {
		return false
	}
	r.startedAt = time.Now().UTC()
	return true
}

func (r *Run) finish(o ingest.Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lifecycle.Finish(o) {
		return false
	}
	r.finishedAt = time.Now().UTC()
	return true
}

func (r *Run) ID() uuid.UUID {
	return r.id
}

func (r *Run) State() ingest.State {
	return r.lifecycle.State()
}

// Err is the cause of a failed run and nil otherwise.
func (r *Run) Err() error {
	return r.lifecycle.Outcome().Err
}

func (r *Run) StartedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startedAt
}

// FinishedAt is zero until the run is terminal.
func (r *Run) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

func (r *Run) Done() <-chan struct{} {
	return r.lifecycle.Done()
}

// Snapshot is the JSON view of a run.
type Snapshot struct {
	ID         uuid.UUID  `json:"id"`
	State      string     `json:"state"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.lifecycle.Outcome()
	s := Snapshot{ID: r.id, State: out.State.String()}
	if !r.startedAt.IsZero() {
		t := r.startedAt
		s.StartedAt = &t
	}
	if !r.finishedAt.IsZero() {
		t := r.finishedAt
		s.FinishedAt = &t
	}
	if out.Err != nil {
		s.Error = out.Err.Error()
	}
	return s
}
