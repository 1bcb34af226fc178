package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// PersistFunc stores one item. It is called concurrently.
type PersistFunc[T any] func(ctx context.Context, item T) error

// BatchReport describes one settled batch.
type BatchReport struct {
	Seq       int
	Size      int
	Persisted int
	Elapsed   time.Duration
	Err       error
}

// Observer is notified after every batch the sink settles. Implementations
// must be safe for use by consecutive runs.
type Observer interface {
	BatchSettled(BatchReport)
}

type ObserverFunc func(BatchReport)

func (f ObserverFunc) BatchSettled(r BatchReport) { f(r) }

type nopObserver struct{}

func (nopObserver) BatchSettled(BatchReport) {}

// Sink persists batches one at a time, running every item of a batch
// concurrently with at most limit calls in flight.
type Sink[T any] struct {
	persist  PersistFunc[T]
	limit    int
	observer Observer
}

func NewSink[T any](persist PersistFunc[T], limit int, observer Observer) *Sink[T] {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Sink[T]{
		persist:  persist,
		limit:    limit,
		observer: observer,
	}
}

// Consume returns once every call of the batch has settled. The error is the
// first failure to settle, as a *PersistError; the other calls of the batch
// are not cancelled and their errors are dropped.
func (s *Sink[T]) Consume(ctx context.Context, batch Batch[T]) error {
	start := time.Now()
	var persisted atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.limit)

	for i, item := range batch.Items {
		pos := batch.First + i
		g.Go(func() error {
			if err := s.persist(ctx, item); err != nil {
				return &PersistError{Item: item, Position: pos, Err: err}
			}
			persisted.Add(1)
			return nil
		})
	}

	err := g.Wait()
	s.observer.BatchSettled(BatchReport{
		Seq:       batch.Seq,
		Size:      len(batch.Items),
		Persisted: int(persisted.Load()),
		Elapsed:   time.Since(start),
		Err:       err,
	})
	return err
}
