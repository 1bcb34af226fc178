// Package core contains the channel plumbing the ingestion pipeline is built
// from: lifting a lazy sequence onto a channel of results, and the locomotive
// loop that drives one stage between two such channels. It has no knowledge
// of records, batches or persistence.
package core
