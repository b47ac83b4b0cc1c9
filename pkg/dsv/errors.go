// Package dsv provides error types and recovery modes for DSV parsing.
package dsv

import (
	"github.com/shapestone/shape-dsv/internal/parser"
)

// ErrorMode specifies how the reader handles malformed rows.
type ErrorMode = parser.ErrorMode

const (
	// ErrorModeInclude returns malformed rows as *ParseError values and
	// keeps reading (default).
	ErrorModeInclude = parser.ErrorModeInclude
	// ErrorModeIgnore silently drops malformed rows.
	ErrorModeIgnore = parser.ErrorModeIgnore
	// ErrorModeThrow stops reading at the first malformed row.
	ErrorModeThrow = parser.ErrorModeThrow
)

// ParseErrorMode returns the ErrorMode named s ("include", "ignore" or
// "throw").
func ParseErrorMode(s string) (ErrorMode, error) {
	m, err := parser.ParseErrorMode(s)
	if err != nil {
		return 0, &OptionsError{Field: "ErrorMode", Message: err.Error()}
	}
	return m, nil
}

// ErrorKind classifies a malformed row.
type ErrorKind = parser.ErrorKind

const (
	// MalformedQuote is an unexpected character after a closing quote, or
	// end of input inside a quoted cell.
	MalformedQuote = parser.MalformedQuote
	// CellSizeExceeded is a cell longer than ReaderOptions.MaxCellSize.
	CellSizeExceeded = parser.CellSizeExceeded
	// RowSizeExceeded is a row wider than ReaderOptions.MaxRowWidth.
	RowSizeExceeded = parser.RowSizeExceeded
)

// ParseError describes a malformed row with its position, the salvaged
// partial cell and partial row, and a bounded preview of skipped input.
type ParseError = parser.ParseError

// Common parsing errors, matched with errors.Is.
var (
	// ErrMalformedQuote matches MalformedQuote parse errors.
	ErrMalformedQuote = parser.ErrMalformedQuote

	// ErrCellSizeExceeded matches CellSizeExceeded parse errors.
	ErrCellSizeExceeded = parser.ErrCellSizeExceeded

	// ErrRowSizeExceeded matches RowSizeExceeded parse errors.
	ErrRowSizeExceeded = parser.ErrRowSizeExceeded

	// ErrConsumed is reported when a row sequence is ranged over twice.
	ErrConsumed = parser.ErrConsumed
)

// Cell is one value in a row; Null marks the escaped NULL token.
type Cell = parser.Cell

// Row is an ordered sequence of cells tagged with the position at which it
// completed.
type Row = parser.Row

// Position is a 1-indexed line and column.
type Position = parser.Position

// Result is one element of the row sequence: a Row, or a *ParseError in
// ErrorModeInclude.
type Result = parser.Result
