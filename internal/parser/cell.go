package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// sentinel records why cell scanning stopped.
type sentinel int

const (
	sentinelSep sentinel = iota + 1
	sentinelEOL
	sentinelEOF
)

func (s sentinel) String() string {
	switch s {
	case sentinelSep:
		return "SEP"
	case sentinelEOL:
		return "EOL"
	case sentinelEOF:
		return "EOF"
	default:
		return fmt.Sprintf("sentinel(%d)", int(s))
	}
}

// cellBuf accumulates cell content and counts it in characters, which is
// what MaxCellSize limits.
type cellBuf struct {
	sb strings.Builder
	n  int
}

func (b *cellBuf) appendRune(r rune) {
	b.sb.WriteRune(r)
	b.n++
}

func (b *cellBuf) appendString(s string) {
	b.sb.WriteString(s)
	b.n += utf8.RuneCountInString(s)
}

func (b *cellBuf) String() string {
	return b.sb.String()
}

// classify reports whether r ends a cell. A CR swallows an immediately
// following LF so CRLF counts as one terminator.
func (p *Parser) classify(r rune) (sentinel, bool) {
	switch r {
	case tokenizer.EOF:
		return sentinelEOF, true
	case p.opts.Separator:
		return sentinelSep, true
	case '\n':
		return sentinelEOL, true
	case '\r':
		p.consumeLF()
		return sentinelEOL, true
	}
	return 0, false
}

// consumeLF reads the LF half of a CRLF, if there is one.
func (p *Parser) consumeLF() {
	r := p.cur.Read()
	if r != '\n' && r != tokenizer.EOF {
		p.cur.Unread(r)
	}
}

// fail builds a ParseError at the current position. When skip is set the
// rest of the line is discarded and previewed, and the terminator that
// ended the skip is returned; otherwise the fault is at end of input.
func (p *Parser) fail(kind ErrorKind, msg string, cell *cellBuf, skip bool) (sentinel, *ParseError) {
	err := &ParseError{
		Kind:    kind,
		Message: msg,
		Line:    p.cur.Line(),
		Column:  p.cur.Column(),
	}
	if cell != nil {
		err.partialCell = cell.String()
		err.hasPartialCell = true
	}
	s := sentinelEOF
	if skip {
		err.skipped, s = p.skipLine()
		err.hasSkipped = true
	}
	return s, err
}

// checkCellSize fails the cell when appending r would take it past
// MaxCellSize. r is pushed back first so the skip preview starts with it.
func (p *Parser) checkCellSize(cell *cellBuf, r rune) (sentinel, *ParseError) {
	if cell.n < p.opts.MaxCellSize {
		return 0, nil
	}
	if r != tokenizer.EOF {
		p.cur.Unread(r)
	}
	return p.cellTooBig(cell)
}

func (p *Parser) cellTooBig(cell *cellBuf) (sentinel, *ParseError) {
	return p.fail(CellSizeExceeded,
		fmt.Sprintf("Data cell exceeded maximum size of %d while reading", p.opts.MaxCellSize),
		cell, true)
}

// readCell scans one cell, quoted or not, and reports what terminated it.
func (p *Parser) readCell() (Cell, sentinel, *ParseError) {
	r := p.cur.Read()
	switch r {
	case tokenizer.EOF:
		return Cell{}, sentinelEOF, nil
	case p.opts.Quote:
		return p.readQuoted()
	}
	p.cur.Unread(r)
	return p.readText()
}

// readText scans an unquoted cell up to the next separator, line
// terminator or end of input.
func (p *Parser) readText() (Cell, sentinel, *ParseError) {
	var cell cellBuf
	for {
		r := p.cur.Read()
		if s, ok := p.classify(r); ok {
			return Cell{Value: cell.String()}, s, nil
		}
		if s, err := p.checkCellSize(&cell, r); err != nil {
			return Cell{}, s, err
		}

		if p.opts.Escape == 0 || r != p.opts.Escape {
			cell.appendRune(r)
			continue
		}

		text, null := p.readEscape()
		if !null {
			// An undecoded escape is two characters and may not fit.
			if cell.n+utf8.RuneCountInString(text) > p.opts.MaxCellSize {
				s, err := p.cellTooBig(&cell)
				return Cell{}, s, err
			}
			cell.appendString(text)
			continue
		}

		// escape+N is NULL only when it is the whole cell.
		next := p.cur.Read()
		if cell.n == 0 {
			if s, ok := p.classify(next); ok {
				return Cell{Null: true}, s, nil
			}
		}
		cell.appendRune('N')
		p.cur.Unread(next)
	}
}

// readEscape resolves the character following an escape character. null
// reports the escape+N token when escapes are being decoded.
func (p *Parser) readEscape() (text string, null bool) {
	r := p.cur.Read()
	if p.opts.Unescape {
		switch r {
		case 'b':
			return "\b", false
		case 'n':
			return "\n", false
		case 't':
			return "\t", false
		case 'r':
			return "\r", false
		case '0':
			return "\x00", false
		case 'N':
			return "", true
		case tokenizer.EOF:
			return "", false
		default:
			return string(r), false
		}
	}

	esc := string(p.opts.Escape)
	switch r {
	case '\t':
		return esc + "t", false
	case '\r':
		p.consumeLF()
		return esc + "n", false
	case '\n':
		return esc + "n", false
	case tokenizer.EOF:
		return "", false
	default:
		return esc + string(r), false
	}
}

// readQuoted scans the rest of a quoted cell after its opening quote.
// Separators and line terminators inside the quotes are content; a doubled
// quote is one literal quote.
func (p *Parser) readQuoted() (Cell, sentinel, *ParseError) {
	var cell cellBuf
	for {
		r := p.cur.Read()
		switch r {
		case tokenizer.EOF:
			s, err := p.fail(MalformedQuote, "Reached end of file while parsing quoted field", &cell, false)
			return Cell{}, s, err

		case p.opts.Quote:
			next := p.cur.Read()
			if next == p.opts.Quote {
				if s, err := p.checkCellSize(&cell, next); err != nil {
					return Cell{}, s, err
				}
				cell.appendRune(p.opts.Quote)
				continue
			}
			if s, ok := p.classify(next); ok {
				return Cell{Value: cell.String()}, s, nil
			}
			p.cur.Unread(next)
			s, err := p.fail(MalformedQuote,
				fmt.Sprintf("Unexpected character following quote: %c", next),
				&cell, true)
			return Cell{}, s, err

		default:
			if s, err := p.checkCellSize(&cell, r); err != nil {
				return Cell{}, s, err
			}
			cell.appendRune(r)
		}
	}
}
