// Package chain provides a fluent wrapper around rop.Result for sequential
// steps where each step depends on the previous one's value, such as
// inserting a row and then a second row referencing the first.
//
// Key operations:
// - Start/FromValue: begin a chain
// - ThenTry: move to the next step, skipped after a failure
// - Err: collapse the chain
package chain
