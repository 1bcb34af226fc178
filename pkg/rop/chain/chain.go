package chain

import (
	"context"

	"github.com/ib-77/cellarfeed/pkg/rop"
	"github.com/ib-77/cellarfeed/pkg/rop/solo"
)

// Chain wraps a rop.Result with context to enable fluent chaining
type Chain[T any] struct {
	ctx    context.Context
	result rop.Result[T]
}

func Start[T any](ctx context.Context, result rop.Result[T]) *Chain[T] {
	return &Chain[T]{
		ctx:    ctx,
		result: result,
	}
}

func FromValue[T any](ctx context.Context, value T) *Chain[T] {
	return Start(ctx, solo.Succeed(value))
}

func (c *Chain[T]) Result() rop.Result[T] {
	return c.result
}

// ThenTry chains a function that returns (U, error)
func ThenTry[T, U any](c *Chain[T], tryOnSuccess func(context.Context, T) (U, error)) *Chain[U] {
	return Start(c.ctx, solo.Try(c.ctx, c.result, tryOnSuccess))
}

// Err collapses the chain into its error, nil on success.
func (c *Chain[T]) Err() error {
	return solo.Finally(c.ctx, c.result,
		func(context.Context, T) error { return nil },
		func(_ context.Context, err error) error { return err },
		func(_ context.Context, err error) error { return err })
}
