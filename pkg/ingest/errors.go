package ingest

import (
	"fmt"
)

// PersistError is a failed persistence call. Item is the value handed to the
// persistence function and Position its 1-based place in the source.
type PersistError struct {
	Item     any
	Position int
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting item %d: %v", e.Position, e.Err)
}

func (e *PersistError) Cause() error  { return e.Err }
func (e *PersistError) Unwrap() error { return e.Err }
