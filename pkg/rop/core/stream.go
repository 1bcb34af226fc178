package core

import (
	"context"
	"iter"

	"github.com/ib-77/cellarfeed/pkg/rop"
)

// FromSeq pulls values from seq one at a time and sends each one downstream.
// The channel is unbuffered, so seq is only advanced once the previous value
// was taken. The first error yielded by seq is sent as a failure and closes
// the stream.
func FromSeq[T any](ctx context.Context, seq iter.Seq2[T, error]) <-chan rop.Result[T] {
	out := make(chan rop.Result[T])

	go func() {
		defer close(out)

		if ctx.Err() != nil {
			return
		}

		for v, err := range seq {
			res := rop.Success(v)
			if err != nil {
				res = rop.Fail[T](err)
			}

			select {
			case out <- res:
			case <-ctx.Done():
				return
			}

			if err != nil {
				return
			}
		}
	}()

	return out
}
