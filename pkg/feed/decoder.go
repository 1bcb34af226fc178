package feed

import (
	"encoding/csv"
	"io"
	"iter"
	"strings"

	"github.com/pkg/errors"
)

// Decoder turns the CSV byte stream into Records. Rows must carry exactly
// len(Columns) fields; quoting is strict.
type Decoder struct {
	r   *csv.Reader
	url string
}

func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	return &Decoder{r: cr}
}

// WithURL names the stream in SourceErrors raised while reading it.
func (d *Decoder) WithURL(url string) *Decoder {
	d.url = url
	return d
}

// Records returns a single-use sequence over the stream. A leading header row
// equal to Columns is skipped. The first error is yielded once and ends the
// sequence.
func (d *Decoder) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		first := true
		for {
			row, err := d.r.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Record{}, d.classify(err))
				return
			}

			if first {
				first = false
				if isHeader(row) {
					continue
				}
			}

			line, _ := d.r.FieldPos(0)
			fields := make(map[string]string, len(Columns))
			for i, name := range Columns {
				fields[name] = row[i]
			}

			if !yield(Record{line: line, fields: fields}, nil) {
				return
			}
		}
	}
}

func (d *Decoder) classify(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Err: perr.Err}
	}
	return &SourceError{URL: d.url, Err: err}
}

func isHeader(row []string) bool {
	if len(row) != len(Columns) {
		return false
	}
	for i, name := range Columns {
		cell := strings.TrimSpace(row[i])
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		if cell != name {
			return false
		}
	}
	return true
}
