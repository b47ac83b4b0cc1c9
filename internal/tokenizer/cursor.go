package tokenizer

import (
	"io"
)

// EOF is returned by Cursor.Read once the source is exhausted.
const EOF rune = -1

// Cursor reads runes one at a time with a single rune of pushback and
// tracks the 1-indexed line and column of the input.
//
// Unlike bufio-based line readers, CR and CRLF are never rewritten, so the
// raw content of quoted cells survives untouched.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	src io.RuneReader
	err error

	pushed  rune
	hasPush bool

	inEOL  bool
	line   int
	column int
}

// NewCursor returns a Cursor reading from src. The Cursor does not own src
// and never closes it.
func NewCursor(src io.RuneReader) *Cursor {
	return &Cursor{src: src}
}

// Line returns the current line, 1-indexed.
func (c *Cursor) Line() int {
	return c.line + 1
}

// Column returns the current column, 1-indexed.
func (c *Cursor) Column() int {
	return c.column + 1
}

// Err returns the first non-EOF error reported by the source.
func (c *Cursor) Err() error {
	return c.err
}

// Read returns the next rune, or EOF when the source is exhausted or has
// failed. A failed source latches; check Err to tell the two apart.
//
// Line advance is observed one read after a terminator: a CR or LF enters
// the end-of-line state and the first non-terminator read after it moves to
// the next line.
func (c *Cursor) Read() rune {
	var r rune
	if c.hasPush {
		r = c.pushed
		c.hasPush = false
	} else {
		r = c.next()
	}

	switch {
	case r == '\r' || r == '\n':
		c.inEOL = true
	case c.inEOL:
		c.inEOL = false
		c.line++
		c.column = 0
	default:
		c.column++
	}
	return r
}

// Unread pushes r back so the next Read returns it. Only one rune may be
// pushed back between reads; a second Unread panics. Unread moves the
// column back by one and leaves the line and end-of-line state alone.
func (c *Cursor) Unread(r rune) {
	if c.hasPush {
		panic("tokenizer: pushback overflow")
	}
	c.pushed = r
	c.hasPush = true
	c.column--
}

func (c *Cursor) next() rune {
	if c.err != nil {
		return EOF
	}
	r, _, err := c.src.ReadRune()
	if err != nil {
		if err != io.EOF {
			c.err = err
		}
		return EOF
	}
	return r
}
