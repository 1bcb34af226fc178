package rop

// Result is the message passed between pipeline stages: either a value or the
// error that ended the stream upstream.
type Result[T any] struct {
	result    T
	err       error
	isSuccess bool
	isCancel  bool
}

func Success[T any](r T) Result[T] {
	return Result[T]{
		result:    r,
		isSuccess: true,
	}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{
		err:      err,
		isCancel: IsCancellationError(err),
	}
}

func Cancel[T any](err error) Result[T] {
	return Result[T]{
		err:      err,
		isCancel: true,
	}
}

// FailFrom carries a failed result across a stage that changes the value type.
func FailFrom[In, Out any](from Result[In]) Result[Out] {
	return Result[Out]{
		err:      from.err,
		isCancel: from.isCancel,
	}
}

func (r Result[T]) Result() T {
	return r.result
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) IsSuccess() bool {
	return r.isSuccess
}

func (r Result[T]) IsFailure() bool {
	return !r.isSuccess
}

func (r Result[T]) IsCancel() bool {
	return r.isCancel
}
