package rop

import (
	"context"

	"github.com/pkg/errors"
)

// IsCancellationError reports whether err was caused by a cancelled or
// expired context.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
