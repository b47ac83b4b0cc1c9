// Package dsv provides defensive, streaming parsing of delimiter-separated
// values (CSV, TSV and similar dialects).
//
// The reader is built for untrusted input. A malformed row never
// desynchronizes the rest of the stream: the reader reports the row as a
// *ParseError carrying its position, whatever it salvaged, and a bounded
// preview of the input it skipped, then resumes at the next line. Cells
// and rows are bounded by MaxCellSize and MaxRowWidth, so hostile input
// cannot exhaust memory.
//
// # Error Modes
//
// ReaderOptions.ErrorMode selects how malformed rows surface:
//
//   - ErrorModeInclude - malformed rows appear in the sequence as *ParseError values (default)
//   - ErrorModeIgnore - malformed rows are dropped
//   - ErrorModeThrow - the first malformed row ends the traversal
//
// A failing source is always fatal, in every mode.
//
// # Reading APIs
//
//   - Reader - row-at-a-time streaming with Scan, Next, Rows and ReadAll
//   - RecordReader - rows zipped with a header row
//   - Parse / ParseReader - whole documents as a shape-core AST
//
// Example usage with Reader:
//
//	r, err := dsv.NewReader(file, dsv.DefaultReaderOptions())
//	if err != nil {
//	    // invalid options
//	}
//	for res, err := range r.Rows() {
//	    if err != nil {
//	        // source failure or ErrorModeThrow
//	        break
//	    }
//	    if res.Err != nil {
//	        fmt.Println("bad row:", res.Err)
//	        continue
//	    }
//	    fmt.Println(res.Row.Strings())
//	}
//
// # Thread Safety
//
// Readers and Writers are not safe for concurrent use. The package-level
// functions create their own reader per call and are safe to call
// concurrently.
package dsv

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Parse parses DSV with default options into an AST from a string.
//
// Returns an ast.ArrayDataNode representing the parsed document:
//   - *ast.ArrayDataNode for the document (array of rows)
//   - Each row is an *ast.ArrayDataNode of cells
//   - Each cell is an *ast.LiteralNode with a string value, or nil for NULL
//
// The AST has no place for malformed rows, so the first one is returned
// as the error unless ErrorMode is ErrorModeIgnore.
//
// Example:
//
//	node, err := dsv.Parse("name,age\nAlice,30\nBob,25")
//	rows := node.(*ast.ArrayDataNode).Elements()
func Parse(input string) (ast.SchemaNode, error) {
	return ParseWithOptions(input, DefaultReaderOptions())
}

// ParseWithOptions parses DSV into an AST from a string using opts.
func ParseWithOptions(input string, opts ReaderOptions) (ast.SchemaNode, error) {
	opts = astOptions(opts)
	r, err := NewStringReader(input, opts)
	if err != nil {
		return nil, err
	}
	return buildAST(r)
}

// ParseReader parses DSV with default options into an AST from an
// io.Reader.
//
// Example:
//
//	file, err := os.Open("data.tsv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	opts := dsv.DefaultReaderOptions()
//	opts.Separator = '\t'
//	node, err := dsv.ParseReaderWithOptions(file, opts)
func ParseReader(reader io.Reader) (ast.SchemaNode, error) {
	return ParseReaderWithOptions(reader, DefaultReaderOptions())
}

// ParseReaderWithOptions parses DSV into an AST from an io.Reader using
// opts.
func ParseReaderWithOptions(reader io.Reader, opts ReaderOptions) (ast.SchemaNode, error) {
	opts = astOptions(opts)
	r, err := NewReader(reader, opts)
	if err != nil {
		return nil, err
	}
	return buildAST(r)
}

// Format returns the format identifier for this parser.
func Format() string {
	return "DSV"
}

// astOptions maps ErrorModeInclude to ErrorModeThrow.
func astOptions(opts ReaderOptions) ReaderOptions {
	if opts.ErrorMode == ErrorModeInclude {
		opts.ErrorMode = ErrorModeThrow
	}
	return opts
}

func buildAST(r *Reader) (ast.SchemaNode, error) {
	var rows []Row
	for r.Scan() {
		rows = append(rows, r.Row())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return RowsToNode(rows), nil
}
