package parser

import "fmt"

// readRow scans cells until a line terminator or end of input. A nil
// Cells slice with sentinelEOF means there are no more rows.
//
// Any fault is returned with the cells parsed so far attached as the
// partial row.
func (p *Parser) readRow() (Row, sentinel, *ParseError) {
	cells := make([]Cell, 0, 8)
	for {
		cell, s, err := p.readCell()
		if err != nil {
			err.attachRow(cells)
			return Row{}, s, err
		}
		if s == sentinelEOF && len(cells) == 0 && cell == (Cell{}) {
			return Row{}, s, nil
		}

		cells = append(cells, cell)
		if s != sentinelSep {
			return Row{Cells: cells, Pos: p.Position()}, s, nil
		}

		if len(cells) >= p.opts.MaxRowWidth {
			s, err := p.fail(RowSizeExceeded,
				fmt.Sprintf("Data row exceeded maximum cell count of %d while reading", p.opts.MaxRowWidth),
				nil, true)
			err.attachRow(cells)
			return Row{}, s, err
		}
	}
}
