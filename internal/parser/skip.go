package parser

import "github.com/shapestone/shape-dsv/internal/tokenizer"

// skipLine discards input up to and including the next line terminator and
// returns a preview of what was thrown away: "" for nothing, the single
// character, or the first and last characters around "...". The preview
// stays O(1) however long the discarded run is.
func (p *Parser) skipLine() (string, sentinel) {
	first, last := tokenizer.EOF, tokenizer.EOF
	var s sentinel
	for {
		r := p.cur.Read()
		if r == tokenizer.EOF {
			s = sentinelEOF
			break
		}
		if r == '\n' {
			s = sentinelEOL
			break
		}
		if r == '\r' {
			p.consumeLF()
			s = sentinelEOL
			break
		}
		if first == tokenizer.EOF {
			first = r
		} else {
			last = r
		}
	}
	return preview(first, last), s
}

func preview(first, last rune) string {
	switch {
	case first == tokenizer.EOF:
		return ""
	case last == tokenizer.EOF:
		return string(first)
	default:
		return string(first) + "..." + string(last)
	}
}
