// Package ingest is the streaming import pipeline: a lazy source is batched
// into groups of BatchSize and every batch is persisted concurrently before
// the next one is requested.
//
//	source ──► FromSeq ──► Batching ──► driver ──► Sink ──► persist × BatchSize
//
// Stages are connected by unbuffered channels of rop.Result, so the source is
// never more than one batch ahead of persistence. The first error from any
// stage ends the run; the driver then cancels the stage context so upstream
// goroutines exit. Each run reports exactly one terminal Outcome.
package ingest
