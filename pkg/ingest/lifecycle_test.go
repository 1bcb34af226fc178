package ingest

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycle_Transitions(t *testing.T) {
	t.Parallel()

	l := NewLifecycle()
	assert.Equal(t, Idle, l.State())
	assert.False(t, l.Finish(completed()), "idle run cannot finish")

	assert.True(t, l.Start())
	assert.False(t, l.Start(), "already running")
	assert.False(t, l.Finish(Outcome{State: Running}), "not a terminal state")

	boom := errors.New("boom")
	assert.True(t, l.Finish(failed(boom)))
	assert.False(t, l.Finish(completed()), "terminal state is final")
	assert.False(t, l.Start())

	select {
	case <-l.Done():
	default:
		t.Fatal("done not closed")
	}

	out := l.Outcome()
	assert.Equal(t, Failed, out.State)
	assert.Same(t, boom, out.Err)
}

func TestLifecycle_SingleTerminalSignal(t *testing.T) {
	t.Parallel()

	l := NewLifecycle()
	l.Start()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := completed()
			if i%2 == 0 {
				o = failed(errors.New("x"))
			}
			if l.Finish(o) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, l.State().Terminal())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "failed", Failed.String())
}
