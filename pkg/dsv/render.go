package dsv

import (
	"bytes"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Render converts an AST node to DSV bytes using default writer options.
//
// The node should be the result of Parse or ParseReader: an array of rows
// of literals. A single row (an array of literals) renders as one line.
// Nil literals, which Parse produces for NULL cells, render as empty cells.
//
// Example:
//
//	node, _ := dsv.Parse("name,age\nAlice,30\n")
//	out, _ := dsv.Render(node)
//	// out: name,age\nAlice,30\n
func Render(node ast.SchemaNode) ([]byte, error) {
	return RenderWithOptions(node, DefaultWriterOptions())
}

// RenderWithOptions converts an AST node to DSV bytes using opts.
func RenderWithOptions(node ast.SchemaNode, opts WriterOptions) ([]byte, error) {
	if node == nil {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, opts)
	if err != nil {
		return nil, err
	}

	rows, err := NodeToRecords(node)
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
