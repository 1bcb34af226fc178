package solo

import (
	"context"

	"github.com/ib-77/cellarfeed/pkg/rop"
)

func Succeed[T any](input T) rop.Result[T] {
	return rop.Success(input)
}

// Try runs onTryExecute on a successful input; a returned error becomes the
// failure. A cancelled context is checked first so no new work starts after
// cancellation.
func Try[In any, Out any](ctx context.Context, input rop.Result[In],
	onTryExecute func(ctx context.Context, r In) (Out, error)) rop.Result[Out] {

	if input.IsFailure() {
		return rop.FailFrom[In, Out](input)
	}
	if err := ctx.Err(); err != nil {
		return rop.Cancel[Out](err)
	}

	out, err := onTryExecute(ctx, input.Result())
	if err != nil {
		return rop.Fail[Out](err)
	}
	return rop.Success(out)
}

func Finally[In, Out any](ctx context.Context, input rop.Result[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) Out {

	switch {
	case input.IsSuccess():
		return onSuccess(ctx, input.Result())
	case input.IsCancel():
		return onCancel(ctx, input.Err())
	default:
		return onError(ctx, input.Err())
	}
}
