// Package feed reads the catalog listings feed: an HTTP client that opens the
// CSV stream and a decoder that turns it into a lazy sequence of Records.
//
// Failures are typed. Transport and read failures are *SourceError, rows the
// CSV reader rejects are *ParseError. Both end the sequence.
package feed
