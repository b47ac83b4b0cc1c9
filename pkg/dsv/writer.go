package dsv

import (
	"bufio"
	"io"
	"strings"
)

// Writer encodes rows of cells as delimiter-separated text. It shares its
// separator and quote configuration with ReaderOptions so that what it
// writes reads back unchanged.
//
// Example:
//
//	w, err := dsv.NewWriter(os.Stdout, dsv.DefaultWriterOptions())
//	if err != nil {
//	    // invalid options
//	}
//	n, err := w.WriteAll([][]string{{"name", "age"}, {"Alice", "30"}})
type Writer struct {
	dst  *bufio.Writer
	opts WriterOptions
	eol  string
	err  error
}

// NewWriter creates a Writer that buffers output to dst.
func NewWriter(dst io.Writer, opts WriterOptions) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	eol := "\n"
	if opts.UseCRLF {
		eol = "\r\n"
	}
	return &Writer{
		dst:  bufio.NewWriter(dst),
		opts: opts,
		eol:  eol,
	}, nil
}

// Write encodes one row of cells followed by the row terminator.
// Output is buffered; call Flush to push it to the destination.
func (w *Writer) Write(cells []string) error {
	if w.err != nil {
		return w.err
	}
	for i, cell := range cells {
		if i > 0 {
			if _, err := w.dst.WriteRune(w.opts.Separator); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeCell(cell); err != nil {
			w.err = err
			return err
		}
	}
	if _, err := w.dst.WriteString(w.eol); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteRow encodes a parsed row. NULL cells are written as empty cells.
func (w *Writer) WriteRow(row Row) error {
	return w.Write(row.Strings())
}

// WriteAll encodes rows, flushes, and returns the number of rows written.
func (w *Writer) WriteAll(rows [][]string) (int, error) {
	n := 0
	for _, cells := range rows {
		if err := w.Write(cells); err != nil {
			return n, err
		}
		n++
	}
	return n, w.Flush()
}

// Flush writes any buffered data to the destination.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	return w.err
}

// needsQuoting applies the configured quote policy to a cell.
func (w *Writer) needsQuoting(cell string) bool {
	switch w.opts.Quoting {
	case QuoteAlways:
		return true
	case QuoteNever:
		return false
	case QuoteCustom:
		return w.opts.QuoteFunc(cell)
	default:
		return strings.ContainsRune(cell, w.opts.Separator) ||
			strings.ContainsRune(cell, w.opts.Quote) ||
			strings.ContainsAny(cell, "\r\n")
	}
}

// writeCell writes a cell, quoting it per policy. Quotes within quoted
// cells are escaped by doubling them.
func (w *Writer) writeCell(cell string) error {
	if !w.needsQuoting(cell) {
		_, err := w.dst.WriteString(cell)
		return err
	}
	if _, err := w.dst.WriteRune(w.opts.Quote); err != nil {
		return err
	}
	for _, ch := range cell {
		if ch == w.opts.Quote {
			if _, err := w.dst.WriteRune(ch); err != nil {
				return err
			}
		}
		if _, err := w.dst.WriteRune(ch); err != nil {
			return err
		}
	}
	_, err := w.dst.WriteRune(w.opts.Quote)
	return err
}
