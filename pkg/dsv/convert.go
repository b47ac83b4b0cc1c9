package dsv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// RowsToNode converts rows to an AST document: an *ast.ArrayDataNode of
// rows, each an *ast.ArrayDataNode of *ast.LiteralNode cells. NULL cells
// become nil literals and each row node carries the row's position.
func RowsToNode(rows []Row) *ast.ArrayDataNode {
	nodes := make([]ast.SchemaNode, len(rows))
	for i, row := range rows {
		nodes[i] = rowNode(row)
	}
	return ast.NewArrayDataNode(nodes, ast.ZeroPosition())
}

func rowNode(row Row) *ast.ArrayDataNode {
	pos := ast.NewPosition(0, row.Pos.Line, row.Pos.Column)
	cells := make([]ast.SchemaNode, len(row.Cells))
	for i, c := range row.Cells {
		var v interface{} = c.Value
		if c.Null {
			v = nil
		}
		cells[i] = ast.NewLiteralNode(v, pos)
	}
	return ast.NewArrayDataNode(cells, pos)
}

// RecordsToNode converts string records to an AST document.
//
// Example:
//
//	node := dsv.RecordsToNode([][]string{
//	    {"name", "age"},
//	    {"Alice", "30"},
//	})
func RecordsToNode(records [][]string) *ast.ArrayDataNode {
	rows := make([]Row, len(records))
	for i, rec := range records {
		cells := make([]Cell, len(rec))
		for j, v := range rec {
			cells[j] = Cell{Value: v}
		}
		rows[i] = Row{Cells: cells}
	}
	return RowsToNode(rows)
}

// NodeToRecords flattens a document or a single row node into string
// records. Nil literals become empty strings and other non-string
// literals are formatted with %v.
//
// Example:
//
//	node, _ := dsv.Parse("name,age\nAlice,30\n")
//	records, _ := dsv.NodeToRecords(node)
//	// records is [][]string{{"name","age"}, {"Alice","30"}}
func NodeToRecords(node ast.SchemaNode) ([][]string, error) {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("unsupported node type for DSV records: %T", node)
	}
	elements := arr.Elements()
	if len(elements) == 0 {
		return nil, nil
	}

	// A row is an array of literals; a document is an array of rows.
	if _, isRow := elements[0].(*ast.LiteralNode); isRow {
		cells, err := rowCells(arr)
		if err != nil {
			return nil, err
		}
		return [][]string{cells}, nil
	}

	records := make([][]string, 0, len(elements))
	for _, elem := range elements {
		row, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return nil, fmt.Errorf("unexpected element type in document: %T", elem)
		}
		cells, err := rowCells(row)
		if err != nil {
			return nil, err
		}
		records = append(records, cells)
	}
	return records, nil
}

func rowCells(row *ast.ArrayDataNode) ([]string, error) {
	elements := row.Elements()
	cells := make([]string, len(elements))
	for i, elem := range elements {
		lit, ok := elem.(*ast.LiteralNode)
		if !ok {
			return nil, fmt.Errorf("unexpected element type in row: %T", elem)
		}
		switch v := lit.Value().(type) {
		case string:
			cells[i] = v
		case nil:
			cells[i] = ""
		default:
			cells[i] = fmt.Sprintf("%v", v)
		}
	}
	return cells, nil
}
