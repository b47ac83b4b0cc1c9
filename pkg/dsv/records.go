package dsv

import (
	"fmt"
	"io"
)

// Record is a data row zipped positionally onto a header list.
// It provides access to cells by index or by header name.
type Record struct {
	cells   []Cell
	headers []string
	pos     Position
}

// Get returns the cell at index. Returns false if index is out of bounds.
func (r Record) Get(index int) (Cell, bool) {
	if index < 0 || index >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[index], true
}

// GetByName returns the cell under the named header. Returns false if the
// header is unknown or the row is too short to have that cell.
func (r Record) GetByName(name string) (Cell, bool) {
	for i, h := range r.headers {
		if h == name {
			return r.Get(i)
		}
	}
	return Cell{}, false
}

// Map returns the record as header → cell. Cells beyond the last header are
// dropped and headers beyond the last cell are absent.
func (r Record) Map() map[string]Cell {
	n := min(len(r.cells), len(r.headers))
	m := make(map[string]Cell, n)
	for i := 0; i < n; i++ {
		m[r.headers[i]] = r.cells[i]
	}
	return m
}

// Cells returns the raw cells of the record.
func (r Record) Cells() []Cell {
	return r.cells
}

// Headers returns the header list the record was zipped against.
func (r Record) Headers() []string {
	return r.headers
}

// Position returns where the underlying row completed.
func (r Record) Position() Position {
	return r.pos
}

// RecordReader zips the rows of a Reader onto a header list.
//
// With fixed headers every row is data. Without them, the first row is
// consumed as the header list; a malformed header row is fatal since no
// header list can be made from it. Malformed data rows pass through
// unchanged.
//
//	rr := dsv.NewRecordReader(r, nil)
//	for rr.Scan() {
//	    if perr := rr.ParseError(); perr != nil {
//	        continue
//	    }
//	    email, _ := rr.Record().GetByName("email")
//	}
//	if err := rr.Err(); err != nil {
//	    // handle error
//	}
type RecordReader struct {
	r       *Reader
	headers []string
	ready   bool

	rec  Record
	perr *ParseError
	err  error
}

// NewRecordReader creates a RecordReader over r. Pass nil headers to take
// them from the first row.
func NewRecordReader(r *Reader, headers []string) *RecordReader {
	return &RecordReader{
		r:       r,
		headers: headers,
		ready:   headers != nil,
	}
}

// Headers returns the header list, reading the header row first if needed.
// It returns io.EOF if the input holds no rows at all.
func (rr *RecordReader) Headers() ([]string, error) {
	if err := rr.readHeaders(); err != nil {
		return nil, err
	}
	return rr.headers, nil
}

func (rr *RecordReader) readHeaders() error {
	if rr.err != nil {
		return rr.err
	}
	if rr.ready {
		return nil
	}
	res, err := rr.r.Next()
	switch {
	case err != nil:
		rr.err = err
	case res.Err != nil:
		rr.err = fmt.Errorf("dsv: reading header row: %w", res.Err)
	default:
		rr.headers = res.Row.Strings()
		rr.ready = true
	}
	return rr.err
}

// Next returns the next record, or in ErrorModeInclude the *ParseError of a
// malformed data row. It returns io.EOF at the end of input.
func (rr *RecordReader) Next() (Record, *ParseError, error) {
	if err := rr.readHeaders(); err != nil {
		return Record{}, nil, err
	}
	res, err := rr.r.Next()
	if err != nil {
		if err != io.EOF {
			rr.err = err
		}
		return Record{}, nil, err
	}
	if res.Err != nil {
		return Record{}, res.Err, nil
	}
	return Record{cells: res.Row.Cells, headers: rr.headers, pos: res.Row.Pos}, nil, nil
}

// Scan advances to the next record or malformed data row. It returns false
// at the end of input or when reading halted; Err then reports why.
func (rr *RecordReader) Scan() bool {
	rr.rec, rr.perr = Record{}, nil
	rec, perr, err := rr.Next()
	if err != nil {
		return false
	}
	rr.rec, rr.perr = rec, perr
	return true
}

// Record returns the record read by the last Scan.
func (rr *RecordReader) Record() Record {
	return rr.rec
}

// ParseError returns the malformed data row reported by the last Scan, if any.
func (rr *RecordReader) ParseError() *ParseError {
	return rr.perr
}

// Err returns the error that ended scanning. It returns nil at the end of
// input, including input with no header row.
func (rr *RecordReader) Err() error {
	if rr.err == io.EOF {
		return nil
	}
	return rr.err
}
