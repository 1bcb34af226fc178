package core

import (
	"context"
	"sync"

	"github.com/ib-77/cellarfeed/pkg/rop"
)

// Stage describes a single-threaded step between two result channels.
// OnValue may hold values back by returning false. OnClose runs once, after
// the input was exhausted normally, and may emit a last value.
type Stage[In, Out any] struct {
	OnValue func(ctx context.Context, in In) (Out, bool)
	OnClose func(ctx context.Context) (Out, bool)
}

// Locomotive drives stage until inputCh is closed, a failure arrives or ctx
// is done. A failure is forwarded as is and stops the loop; nothing held by
// the stage is flushed after a failure or a cancellation.
func Locomotive[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In], outCh chan<- rop.Result[Out],
	stage Stage[In, Out], wg *sync.WaitGroup) {
	defer wg.Done()

	send := func(r rop.Result[Out]) bool {
		select {
		case outCh <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-inputCh:
			if !ok {
				if ctx.Err() != nil || stage.OnClose == nil {
					return
				}
				if out, emit := stage.OnClose(ctx); emit {
					send(rop.Success(out))
				}
				return
			}

			if in.IsFailure() {
				send(rop.FailFrom[In, Out](in))
				return
			}

			if out, emit := stage.OnValue(ctx, in.Result()); emit {
				if !send(rop.Success(out)) {
					return
				}
			}
		}
	}
}

// Turnout runs stage on its own goroutine and returns its output channel,
// which is closed when the stage stops.
func Turnout[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In], stage Stage[In, Out]) <-chan rop.Result[Out] {
	out := make(chan rop.Result[Out])
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go Locomotive(ctx, inputCh, out, stage, wg)

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
