package ingest

import (
	"context"

	"github.com/ib-77/cellarfeed/pkg/rop"
	"github.com/ib-77/cellarfeed/pkg/rop/core"
)

// BatchSize is the number of records persisted together, and so the maximum
// number of persistence calls in flight.
const BatchSize = 100

// Batch is an ordered group of consecutive source items.
type Batch[T any] struct {
	// Seq is the 1-based number of the batch within its run.
	Seq int
	// First is the 1-based source position of Items[0].
	First int
	Items []T
}

// Batcher accumulates items into batches of a fixed size. It never emits an
// empty batch and every emitted batch owns its backing array.
type Batcher[T any] struct {
	size     int
	buf      []T
	accepted int
	emitted  int
}

// NewBatcher panics if size is not positive.
func NewBatcher[T any](size int) *Batcher[T] {
	if size <= 0 {
		panic("ingest.NewBatcher: size must be positive")
	}
	return &Batcher[T]{
		size: size,
		buf:  make([]T, 0, size),
	}
}

// Accept adds item and returns a full batch once size items are buffered.
func (b *Batcher[T]) Accept(item T) (Batch[T], bool) {
	b.buf = append(b.buf, item)
	b.accepted++
	if len(b.buf) < b.size {
		return Batch[T]{}, false
	}
	return b.emit(), true
}

// Finish returns the remaining items as a shorter batch, if there are any.
func (b *Batcher[T]) Finish() (Batch[T], bool) {
	if len(b.buf) == 0 {
		return Batch[T]{}, false
	}
	return b.emit(), true
}

// Buffered returns the number of items waiting for a batch.
func (b *Batcher[T]) Buffered() int {
	return len(b.buf)
}

func (b *Batcher[T]) emit() Batch[T] {
	b.emitted++
	out := Batch[T]{
		Seq:   b.emitted,
		First: b.accepted - len(b.buf) + 1,
		Items: b.buf,
	}
	b.buf = make([]T, 0, b.size)
	return out
}

// Batching runs a Batcher over in. An upstream failure is forwarded at once
// and whatever was buffered is dropped.
func Batching[T any](ctx context.Context, in <-chan rop.Result[T], size int) <-chan rop.Result[Batch[T]] {
	b := NewBatcher[T](size)
	return core.Turnout(ctx, in, core.Stage[T, Batch[T]]{
		OnValue: func(_ context.Context, item T) (Batch[T], bool) {
			return b.Accept(item)
		},
		OnClose: func(context.Context) (Batch[T], bool) {
			return b.Finish()
		},
	})
}
