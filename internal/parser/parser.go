// Package parser implements the streaming cell and row scanner for
// delimiter-separated text. It is a single-pass state machine over a
// tokenizer.Cursor that isolates faults to the row they occur in.
package parser

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// ErrorMode specifies how the parser handles malformed rows.
type ErrorMode int

const (
	// ErrorModeInclude emits malformed rows as *ParseError values (default).
	ErrorModeInclude ErrorMode = iota
	// ErrorModeIgnore silently drops malformed rows.
	ErrorModeIgnore
	// ErrorModeThrow stops parsing at the first malformed row.
	ErrorModeThrow
)

// String returns the string representation of ErrorMode.
func (m ErrorMode) String() string {
	switch m {
	case ErrorModeInclude:
		return "include"
	case ErrorModeIgnore:
		return "ignore"
	case ErrorModeThrow:
		return "throw"
	default:
		return fmt.Sprintf("ErrorMode(%d)", int(m))
	}
}

// ParseErrorMode returns the ErrorMode named s.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "include":
		return ErrorModeInclude, nil
	case "ignore":
		return ErrorModeIgnore, nil
	case "throw":
		return ErrorModeThrow, nil
	default:
		return 0, fmt.Errorf("unknown error mode %q", s)
	}
}

// Options configures the parser. Options are read-only once a Parser is
// built; callers are expected to have validated them.
type Options struct {
	// Separator is the cell delimiter.
	Separator rune
	// Quote opens and closes quoted cells.
	Quote rune
	// Escape enables escape sequences in unquoted cells. 0 disables them.
	Escape rune
	// Unescape decodes escape sequences to the characters they stand for
	// instead of keeping them as text.
	Unescape bool
	// MaxCellSize is the maximum number of characters in a cell.
	MaxCellSize int
	// MaxRowWidth is the maximum number of cells in a row.
	MaxRowWidth int
	// ErrorMode selects how malformed rows are reported.
	ErrorMode ErrorMode
	// OnRow, if set, is invoked for every row before it is returned.
	OnRow func(row Row)
	// OnError, if set, is invoked for every malformed row before
	// ErrorMode is applied, so dropped rows can still be counted.
	OnError func(err *ParseError)
}

// DefaultOptions returns default parser options.
func DefaultOptions() Options {
	return Options{
		Separator:   ',',
		Quote:       '"',
		Escape:      0,
		Unescape:    false,
		MaxCellSize: 16384,
		MaxRowWidth: 2048,
		ErrorMode:   ErrorModeInclude,
	}
}

// Position is a 1-indexed line and column in the input.
type Position struct {
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Cell is one value in a row. Null is only ever set for the escape+N
// token when escapes are decoded.
type Cell struct {
	Value string
	Null  bool
}

// String returns the cell value; NULL renders as the empty string.
func (c Cell) String() string {
	return c.Value
}

// Row is one parsed row, tagged with the position at which it completed.
type Row struct {
	Cells []Cell
	Pos   Position
}

// Strings returns the cell values, with NULL cells as empty strings.
func (r Row) Strings() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

// Values returns the cell values as driver-friendly values: string, or nil
// for NULL cells.
func (r Row) Values() []any {
	out := make([]any, len(r.Cells))
	for i, c := range r.Cells {
		if c.Null {
			continue
		}
		out[i] = c.Value
	}
	return out
}

// Result is one element of the row sequence: either a Row or, in
// ErrorModeInclude, the *ParseError describing a malformed row.
type Result struct {
	Row Row
	Err *ParseError
}

// ErrConsumed is reported when a row sequence is traversed a second time.
var ErrConsumed = errors.New("parser: row sequence already consumed")

// Parser produces a forward-only sequence of rows from a cursor.
// A Parser is not safe for concurrent use.
type Parser struct {
	cur  *tokenizer.Cursor
	opts Options

	done     bool
	err      error
	iterated bool
}

// NewParser creates a parser reading runes from src.
func NewParser(src io.RuneReader, opts Options) *Parser {
	return &Parser{
		cur:  tokenizer.NewCursor(src),
		opts: opts,
	}
}

// NewParserFromString creates a parser over an in-memory string.
func NewParserFromString(input string, opts Options) *Parser {
	return NewParser(tokenizer.NewStringReader(input), opts)
}

// Position returns the current position of the underlying cursor. A
// pushback right after a line terminator leaves the cursor before column 1;
// the column is reported as 1 then.
func (p *Parser) Position() Position {
	return Position{Line: p.cur.Line(), Column: max(p.cur.Column(), 1)}
}

// Next returns the next element of the row sequence.
//
// It returns io.EOF once input is exhausted. A failure of the underlying
// source, or a malformed row in ErrorModeThrow, halts the parser: the error
// is returned now and from every later call.
func (p *Parser) Next() (Result, error) {
	if p.err != nil {
		return Result{}, p.err
	}
	for !p.done {
		row, s, err := p.readRow()
		if s == sentinelEOF {
			p.done = true
		}
		if ioErr := p.cur.Err(); ioErr != nil {
			p.err = ioErr
			return Result{}, ioErr
		}
		if err != nil {
			if p.opts.OnError != nil {
				p.opts.OnError(err)
			}
			switch p.opts.ErrorMode {
			case ErrorModeIgnore:
				continue
			case ErrorModeInclude:
				return Result{Err: err}, nil
			case ErrorModeThrow:
				p.err = err
				return Result{}, err
			default:
				panic(fmt.Sprintf("parser: unknown error mode %v", p.opts.ErrorMode))
			}
		}
		if row.Cells == nil {
			break
		}
		if p.opts.OnRow != nil {
			p.opts.OnRow(row)
		}
		return Result{Row: row}, nil
	}
	return Result{}, io.EOF
}

// All returns the row sequence as an iterator. The sequence can be ranged
// over once; a second traversal yields ErrConsumed. Iteration stops after
// the first non-nil error.
func (p *Parser) All() iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if p.iterated {
			yield(Result{}, ErrConsumed)
			return
		}
		p.iterated = true
		for {
			res, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}
