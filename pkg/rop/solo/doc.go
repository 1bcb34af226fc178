// Package solo contains synchronous primitives over a single rop.Result: Try
// turns an (Out, error) call into a Result and Finally collapses a Result
// into a plain value. Failures pass through untouched.
package solo
