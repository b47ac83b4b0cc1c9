package parser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a row-scoped parse fault.
type ErrorKind int

const (
	// MalformedQuote is an unexpected character after a closing quote, or
	// the end of input inside a quoted cell.
	MalformedQuote ErrorKind = iota
	// CellSizeExceeded is a cell that grew past Options.MaxCellSize.
	CellSizeExceeded
	// RowSizeExceeded is a row with more than Options.MaxRowWidth cells.
	RowSizeExceeded
)

// Sentinel errors matched by errors.Is against a *ParseError.
var (
	ErrMalformedQuote   = errors.New("malformed quote")
	ErrCellSizeExceeded = errors.New("cell size exceeded")
	ErrRowSizeExceeded  = errors.New("row size exceeded")
)

// String returns the kebab-case name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case MalformedQuote:
		return "malformed-quote"
	case CellSizeExceeded:
		return "cell-size-exceeded"
	case RowSizeExceeded:
		return "row-size-exceeded"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case MalformedQuote:
		return ErrMalformedQuote
	case CellSizeExceeded:
		return ErrCellSizeExceeded
	case RowSizeExceeded:
		return ErrRowSizeExceeded
	default:
		return nil
	}
}

// ParseError describes a malformed row. It carries the position of the
// fault and whatever was salvaged before it: the partial cell, the cells of
// the row that parsed cleanly and a bounded preview of the discarded text.
type ParseError struct {
	// Kind classifies the fault.
	Kind ErrorKind
	// Message is a human readable description.
	Message string
	// Line is the line of the fault (1-indexed).
	Line int
	// Column is the column of the fault (1-indexed).
	Column int

	partialCell    string
	hasPartialCell bool
	partialRow     []Cell
	hasPartialRow  bool
	skipped        string
	hasSkipped     bool
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d, column %d: %s: %s", e.Line, e.Column, e.Kind, e.Message)
}

// Unwrap returns the sentinel error matching Kind.
func (e *ParseError) Unwrap() error {
	return e.Kind.sentinel()
}

// PartialCell returns the content of the cell accumulated before the fault.
func (e *ParseError) PartialCell() (string, bool) {
	return e.partialCell, e.hasPartialCell
}

// PartialRow returns the cells of the row that were parsed before the fault.
func (e *ParseError) PartialRow() ([]Cell, bool) {
	return e.partialRow, e.hasPartialRow
}

// SkippedText returns the preview of the input discarded while recovering.
// It is absent when nothing was left to discard.
func (e *ParseError) SkippedText() (string, bool) {
	return e.skipped, e.hasSkipped
}

// attachRow records the cells parsed before the fault. The row assembler is
// the only caller; attaching twice is a programming error.
func (e *ParseError) attachRow(cells []Cell) {
	if e.hasPartialRow {
		panic("parser: partial row already attached")
	}
	e.partialRow = cells
	e.hasPartialRow = true
}
