// Package rop holds Result, the success-or-failure value that flows between
// pipeline stages and through synchronous chains. A failed Result carries the
// error that stopped the work; stages forward it instead of dropping it.
package rop
