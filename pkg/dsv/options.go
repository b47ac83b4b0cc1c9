// Package dsv provides configurable options for DSV reading and writing.
package dsv

import (
	"fmt"
	"unicode/utf8"

	"github.com/shapestone/shape-dsv/internal/parser"
)

// ReaderOptions configures DSV parsing behavior.
type ReaderOptions struct {
	// Separator is the cell delimiter.
	// Default: ','
	Separator rune

	// Quote opens and closes quoted cells. Inside quotes, separators and
	// line terminators are content and a doubled quote is a literal quote.
	// Default: '"'
	Quote rune

	// Escape, if not 0, enables escape sequences in unquoted cells.
	// Default: 0 (disabled)
	Escape rune

	// Unescape decodes escape sequences (\n, \t, \r, \b, \0, and \N for
	// NULL) instead of keeping them as text. Only meaningful with Escape.
	// Default: false
	Unescape bool

	// MaxCellSize is the maximum number of characters in a single cell.
	// Default: 16384
	MaxCellSize int

	// MaxRowWidth is the maximum number of cells in a single row.
	// Default: 2048
	MaxRowWidth int

	// ErrorMode selects how malformed rows are reported.
	// Default: ErrorModeInclude
	ErrorMode ErrorMode
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	def := parser.DefaultOptions()
	return ReaderOptions{
		Separator:   def.Separator,
		Quote:       def.Quote,
		Escape:      def.Escape,
		Unescape:    def.Unescape,
		MaxCellSize: def.MaxCellSize,
		MaxRowWidth: def.MaxRowWidth,
		ErrorMode:   def.ErrorMode,
	}
}

// Validate checks the reader options. Separator, quote and escape must be
// distinct valid characters other than CR and LF.
func (o ReaderOptions) Validate() error {
	if !validDelim(o.Separator) {
		return &OptionsError{Field: "Separator", Message: "invalid delimiter"}
	}
	if !validDelim(o.Quote) {
		return &OptionsError{Field: "Quote", Message: "invalid quote character"}
	}
	if o.Quote == o.Separator {
		return &OptionsError{Field: "Quote", Message: "quote character same as separator"}
	}
	if o.Escape != 0 {
		if !validDelim(o.Escape) {
			return &OptionsError{Field: "Escape", Message: "invalid escape character"}
		}
		if o.Escape == o.Separator || o.Escape == o.Quote {
			return &OptionsError{Field: "Escape", Message: "escape character same as separator or quote"}
		}
	}
	if o.MaxCellSize <= 0 {
		return &OptionsError{Field: "MaxCellSize", Message: "must be positive"}
	}
	if o.MaxRowWidth <= 0 {
		return &OptionsError{Field: "MaxRowWidth", Message: "must be positive"}
	}
	switch o.ErrorMode {
	case ErrorModeInclude, ErrorModeIgnore, ErrorModeThrow:
	default:
		return &OptionsError{Field: "ErrorMode", Message: fmt.Sprintf("unknown mode %d", int(o.ErrorMode))}
	}
	return nil
}

func (o ReaderOptions) parserOptions() parser.Options {
	return parser.Options{
		Separator:   o.Separator,
		Quote:       o.Quote,
		Escape:      o.Escape,
		Unescape:    o.Unescape,
		MaxCellSize: o.MaxCellSize,
		MaxRowWidth: o.MaxRowWidth,
		ErrorMode:   o.ErrorMode,
	}
}

// QuotePolicy decides which cells the Writer quotes.
type QuotePolicy int

const (
	// QuoteRequired quotes a cell only when it contains the separator, the
	// quote character, CR or LF (default).
	QuoteRequired QuotePolicy = iota
	// QuoteAlways quotes every cell.
	QuoteAlways
	// QuoteNever writes every cell verbatim.
	QuoteNever
	// QuoteCustom quotes the cells for which WriterOptions.QuoteFunc
	// returns true.
	QuoteCustom
)

// String returns the string representation of QuotePolicy.
func (q QuotePolicy) String() string {
	switch q {
	case QuoteRequired:
		return "required"
	case QuoteAlways:
		return "always"
	case QuoteNever:
		return "never"
	case QuoteCustom:
		return "custom"
	default:
		return fmt.Sprintf("QuotePolicy(%d)", int(q))
	}
}

// ParseQuotePolicy returns the QuotePolicy named s. The custom policy has
// no name since it needs a function.
func ParseQuotePolicy(s string) (QuotePolicy, error) {
	switch s {
	case "required", "":
		return QuoteRequired, nil
	case "always":
		return QuoteAlways, nil
	case "never":
		return QuoteNever, nil
	default:
		return 0, &OptionsError{Field: "Quoting", Message: fmt.Sprintf("unknown quote policy %q", s)}
	}
}

// WriterOptions configures DSV writing behavior.
type WriterOptions struct {
	// Separator is the cell delimiter.
	// Default: ','
	Separator rune

	// Quote is the quote character.
	// Default: '"'
	Quote rune

	// Quoting selects which cells are quoted.
	// Default: QuoteRequired
	Quoting QuotePolicy

	// QuoteFunc decides quoting per cell when Quoting is QuoteCustom.
	QuoteFunc func(cell string) bool

	// UseCRLF controls whether to use \r\n (true) or \n (false) as the line terminator.
	// Default: false (use \n)
	UseCRLF bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Separator: ',',
		Quote:     '"',
		Quoting:   QuoteRequired,
		UseCRLF:   false,
	}
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	if !validDelim(o.Separator) {
		return &OptionsError{Field: "Separator", Message: "invalid delimiter"}
	}
	if !validDelim(o.Quote) {
		return &OptionsError{Field: "Quote", Message: "invalid quote character"}
	}
	if o.Quote == o.Separator {
		return &OptionsError{Field: "Quote", Message: "quote character same as separator"}
	}
	switch o.Quoting {
	case QuoteRequired, QuoteAlways, QuoteNever:
	case QuoteCustom:
		if o.QuoteFunc == nil {
			return &OptionsError{Field: "QuoteFunc", Message: "required by the custom quote policy"}
		}
	default:
		return &OptionsError{Field: "Quoting", Message: fmt.Sprintf("unknown policy %d", int(o.Quoting))}
	}
	return nil
}

// ReaderOptions returns reader options that decode what a Writer with these
// options produces.
func (o WriterOptions) ReaderOptions() ReaderOptions {
	ro := DefaultReaderOptions()
	ro.Separator = o.Separator
	ro.Quote = o.Quote
	return ro
}

// validDelim reports whether r is usable as a separator, quote or escape.
func validDelim(r rune) bool {
	return r != 0 && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "dsv: invalid " + e.Field + ": " + e.Message
}
