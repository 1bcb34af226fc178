// Package importer triggers feed imports. A run opens the feed, decodes it
// and drives it through an ingest.Pipeline; the caller gets a handle back
// immediately and can poll it for the outcome.
package importer
