package ingest

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/ib-77/cellarfeed/pkg/rop/core"
)

type options struct {
	batchSize int
	observer  Observer
	logger    *zap.Logger
}

type Option func(*options)

// WithObserver reports every settled batch to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

// Pipeline wires a source through batching into a concurrent sink. A Pipeline
// holds no per-run state and may run any number of times, including
// concurrently.
type Pipeline[T any] struct {
	persist PersistFunc[T]
	opts    options
}

func New[T any](persist PersistFunc[T], opts ...Option) *Pipeline[T] {
	o := options{
		batchSize: BatchSize,
		observer:  nopObserver{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[T]{persist: persist, opts: o}
}

// Run pulls source to exhaustion and persists every item, returning
// Completed, or Failed with the first error from the source, the batching
// stage, the sink or ctx. Batch N+1 is not started before batch N settled and
// nothing is started after a failure.
func (p *Pipeline[T]) Run(ctx context.Context, source iter.Seq2[T, error]) Outcome {
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := p.opts.logger
	sink := NewSink(p.persist, p.opts.batchSize, p.opts.observer)
	batches := Batching(stageCtx, core.FromSeq(stageCtx, source), p.opts.batchSize)

	for res := range batches {
		if res.IsFailure() {
			log.Debug("source failed", zap.Error(res.Err()))
			return failed(res.Err())
		}

		// the batching stage may win a send against cancellation
		if err := stageCtx.Err(); err != nil {
			return failed(err)
		}

		batch := res.Result()
		if err := sink.Consume(stageCtx, batch); err != nil {
			log.Debug("batch failed", zap.Int("batch", batch.Seq), zap.Error(err))
			return failed(err)
		}
		log.Debug("batch persisted",
			zap.Int("batch", batch.Seq),
			zap.Int("first", batch.First),
			zap.Int("size", len(batch.Items)))
	}

	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	return completed()
}
