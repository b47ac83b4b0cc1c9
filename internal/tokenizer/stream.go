package tokenizer

import (
	"io"
	"unicode/utf8"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// StreamReader adapts a Shape tokenizer stream to io.RuneReader so the
// Cursor can consume in-memory input through the same stream type the rest
// of the Shape parsers use.
type StreamReader struct {
	stream tokenizer.Stream
}

// NewStreamReader wraps stream.
func NewStreamReader(stream tokenizer.Stream) *StreamReader {
	return &StreamReader{stream: stream}
}

// NewStringReader returns a StreamReader over input.
func NewStringReader(input string) *StreamReader {
	return NewStreamReader(tokenizer.NewStream(input))
}

// ReadRune implements io.RuneReader.
func (s *StreamReader) ReadRune() (rune, int, error) {
	r, ok := s.stream.NextChar()
	if !ok {
		return 0, 0, io.EOF
	}
	size := utf8.RuneLen(r)
	if size < 0 {
		size = 1
	}
	return r, size, nil
}
