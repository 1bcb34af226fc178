package feed

// Column names of the listings feed, in file order.
const (
	ColVintage      = "Vintage"
	ColProductName  = "Product Name"
	ColProducer     = "Producer"
	ColCountry      = "Country"
	ColRegion       = "Region"
	ColColour       = "Colour"
	ColQuantity     = "Quantity"
	ColFormat       = "Format"
	ColPrice        = "Price (GBP)"
	ColDuty         = "Duty"
	ColAvailability = "Availability"
	ColConditions   = "Conditions"
	ColImageURL     = "ImageUrl"
)

// Columns is the fixed column layout of the feed.
var Columns = []string{
	ColVintage,
	ColProductName,
	ColProducer,
	ColCountry,
	ColRegion,
	ColColour,
	ColQuantity,
	ColFormat,
	ColPrice,
	ColDuty,
	ColAvailability,
	ColConditions,
	ColImageURL,
}

// Record is one row of the feed. It is immutable once built.
type Record struct {
	line   int
	fields map[string]string
}

// NewRecord copies fields into a new Record read from the given 1-based line.
func NewRecord(line int, fields map[string]string) Record {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Record{line: line, fields: cp}
}

// Line returns the 1-based line of the feed the record was read from.
func (r Record) Line() int {
	return r.line
}

// Get returns the value of the named column, or "" if the record has none.
func (r Record) Get(column string) string {
	return r.fields[column]
}

// Fields returns a copy of all columns.
func (r Record) Fields() map[string]string {
	cp := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		cp[k] = v
	}
	return cp
}
