package dsv

import (
	"bufio"
	"io"
	"iter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/shapestone/shape-dsv/internal/parser"
)

// Observer receives every row and every malformed row a Reader sees,
// including rows dropped by ErrorModeIgnore.
type Observer interface {
	ObserveRow(row Row)
	ObserveError(err *ParseError, mode ErrorMode)
}

// Reader provides a streaming, forward-only interface over DSV rows. Each
// malformed row is isolated to itself: depending on ErrorMode it is
// reported as a *ParseError value, dropped, or ends the traversal.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	r, err := dsv.NewReader(file, dsv.DefaultReaderOptions())
//	if err != nil {
//	    // invalid options
//	}
//	for r.Scan() {
//	    if perr := r.ParseError(); perr != nil {
//	        log.Printf("skipping bad row: %v", perr)
//	        continue
//	    }
//	    fmt.Println(r.Row().Strings())
//	}
//	if err := r.Err(); err != nil {
//	    // handle error
//	}
//
// A Reader is not safe for concurrent use. It does not close the
// underlying source.
type Reader struct {
	p        *parser.Parser
	mode     ErrorMode
	logger   log.Logger
	observer Observer

	row  Row
	perr *ParseError
	err  error
}

// NewReader creates a Reader that decodes DSV from src. Sources that do not
// implement io.RuneReader are wrapped in a bufio.Reader, so a failing
// source surfaces its own error rather than a premature end of input.
func NewReader(src io.Reader, opts ReaderOptions) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rr, ok := src.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(src)
	}
	r := newReader(opts)
	r.p = parser.NewParser(rr, r.parserOptions(opts))
	return r, nil
}

// NewStringReader creates a Reader over an in-memory string.
func NewStringReader(input string, opts ReaderOptions) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := newReader(opts)
	r.p = parser.NewParserFromString(input, r.parserOptions(opts))
	return r, nil
}

func newReader(opts ReaderOptions) *Reader {
	return &Reader{
		mode:   opts.ErrorMode,
		logger: log.NewNopLogger(),
	}
}

func (r *Reader) parserOptions(opts ReaderOptions) parser.Options {
	po := opts.parserOptions()
	po.OnRow = r.onRow
	po.OnError = r.onError
	return po
}

// SetLogger sets the logger used to report malformed rows. The default
// logger discards everything.
// Returns the Reader for method chaining.
func (r *Reader) SetLogger(logger log.Logger) *Reader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	r.logger = logger
	return r
}

// SetObserver sets an Observer notified of every row and malformed row.
// Returns the Reader for method chaining.
func (r *Reader) SetObserver(o Observer) *Reader {
	r.observer = o
	return r
}

func (r *Reader) onRow(row Row) {
	if r.observer != nil {
		r.observer.ObserveRow(row)
	}
}

func (r *Reader) onError(perr *ParseError) {
	if r.observer != nil {
		r.observer.ObserveError(perr, r.mode)
	}

	kv := []interface{}{
		"kind", perr.Kind,
		"line", perr.Line,
		"column", perr.Column,
		"err", perr.Message,
	}
	if skipped, ok := perr.SkippedText(); ok {
		kv = append(kv, "skipped", skipped)
	}
	switch r.mode {
	case ErrorModeIgnore:
		level.Debug(r.logger).Log(append([]interface{}{"msg", "dropping malformed row"}, kv...)...)
	case ErrorModeThrow:
		level.Warn(r.logger).Log(append([]interface{}{"msg", "stopping at malformed row"}, kv...)...)
	default:
		level.Debug(r.logger).Log(append([]interface{}{"msg", "malformed row"}, kv...)...)
	}
}

// Next returns the next element of the row sequence: a Row, or a
// *ParseError in Result.Err when ErrorMode is ErrorModeInclude.
//
// It returns io.EOF at the end of input. A source failure, or a malformed
// row under ErrorModeThrow, ends the traversal: that error is returned now
// and from every later call.
func (r *Reader) Next() (Result, error) {
	return r.p.Next()
}

// Scan advances to the next row or malformed row. It returns false at the
// end of input or when the traversal halted; Err then reports why.
//
// Example:
//
//	for r.Scan() {
//	    if perr := r.ParseError(); perr != nil {
//	        // malformed row
//	        continue
//	    }
//	    row := r.Row()
//	}
//	if err := r.Err(); err != nil {
//	    // handle error
//	}
func (r *Reader) Scan() bool {
	r.row, r.perr = Row{}, nil
	if r.err != nil {
		return false
	}
	res, err := r.Next()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}
	r.row, r.perr = res.Row, res.Err
	return true
}

// Row returns the row read by the last successful Scan. It is empty when
// the last Scan produced a ParseError instead.
func (r *Reader) Row() Row {
	return r.row
}

// ParseError returns the malformed row reported by the last Scan, if any.
func (r *Reader) ParseError() *ParseError {
	return r.perr
}

// Err returns the error that ended scanning. It returns nil at the end of
// input.
func (r *Reader) Err() error {
	return r.err
}

// Position returns the current line and column of the reader.
func (r *Reader) Position() Position {
	return r.p.Position()
}

// Rows returns the row sequence as an iterator for use with range. It can
// be ranged over once; a second traversal yields ErrConsumed. Iteration
// stops after the first non-nil error.
func (r *Reader) Rows() iter.Seq2[Result, error] {
	return r.p.All()
}

// ReadAll reads the remaining row sequence. In ErrorModeInclude the
// returned results interleave rows and malformed rows in input order.
func (r *Reader) ReadAll() ([]Result, error) {
	var out []Result
	for {
		res, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
}
