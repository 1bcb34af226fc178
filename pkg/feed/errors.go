package feed

import (
	"fmt"
)

// SourceError is a failure of the feed transport or of reading the stream.
type SourceError struct {
	URL string
	Err error
}

func (e *SourceError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("feed source: %v", e.Err)
	}
	return fmt.Sprintf("feed source %s: %v", e.URL, e.Err)
}

func (e *SourceError) Cause() error  { return e.Err }
func (e *SourceError) Unwrap() error { return e.Err }

// ParseError is a row of the feed that could not be decoded.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("feed line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Cause() error  { return e.Err }
func (e *ParseError) Unwrap() error { return e.Err }
