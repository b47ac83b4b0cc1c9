package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains p and returns every emitted element.
func collect(t *testing.T, p *Parser) []Result {
	t.Helper()
	var out []Result
	for {
		res, err := p.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, res)
	}
}

// rowsOf returns the string cells of each emitted row, failing on errors.
func rowsOf(t *testing.T, results []Result) [][]string {
	t.Helper()
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		require.Nil(t, res.Err, "unexpected parse error")
		rows = append(rows, res.Row.Strings())
	}
	return rows
}

func parseString(t *testing.T, input string, opts Options) [][]string {
	t.Helper()
	return rowsOf(t, collect(t, NewParserFromString(input, opts)))
}

func TestParse_EmptyInput(t *testing.T) {
	p := NewParserFromString("", DefaultOptions())
	_, err := p.Next()
	assert.Equal(t, io.EOF, err)
	_, err = p.Next()
	assert.Equal(t, io.EOF, err, "EOF must repeat")
}

func TestParse_Rows(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{name: "lone lf", input: "\n", want: [][]string{{""}}},
		{name: "lone crlf", input: "\r\n", want: [][]string{{""}}},
		{name: "lone cr", input: "\r", want: [][]string{{""}}},
		{name: "single field", input: "hello", want: [][]string{{"hello"}}},
		{name: "three fields", input: "a,b,c", want: [][]string{{"a", "b", "c"}}},
		{name: "three fields with newline", input: "a,b,c\n", want: [][]string{{"a", "b", "c"}}},
		{name: "empty middle field", input: "a,,c", want: [][]string{{"a", "", "c"}}},
		{name: "all empty fields", input: ",,", want: [][]string{{"", "", ""}}},
		{name: "trailing separator", input: "a,\n", want: [][]string{{"a", ""}}},
		{name: "lf rows", input: "foo\nbar", want: [][]string{{"foo"}, {"bar"}}},
		{name: "cr rows", input: "foo\rbar", want: [][]string{{"foo"}, {"bar"}}},
		{name: "crlf rows", input: "foo\r\nbar", want: [][]string{{"foo"}, {"bar"}}},
		{name: "blank line", input: "a\n\nb\n", want: [][]string{{"a"}, {""}, {"b"}}},
		{name: "cr cr", input: "a\r\rb", want: [][]string{{"a"}, {""}, {"b"}}},
		{name: "doubled quote", input: `A,"B""C",D`, want: [][]string{{"A", `B"C`, "D"}}},
		{name: "quoted separator", input: `"a,b",c`, want: [][]string{{"a,b", "c"}}},
		{name: "quoted newline", input: "\"a\nb\",c\nd", want: [][]string{{"a\nb", "c"}, {"d"}}},
		{name: "quoted crlf kept raw", input: "\"a\r\nb\"\r\nc", want: [][]string{{"a\r\nb"}, {"c"}}},
		{name: "quoted cr kept raw", input: "\"a\rb\"", want: [][]string{{"a\rb"}}},
		{name: "empty quoted cell", input: "\"\"\n", want: [][]string{{""}}},
		{name: "empty quoted then more", input: "\"\",x", want: [][]string{{"", "x"}}},
		{name: "only escaped quotes", input: `""""`, want: [][]string{{`"`}}},
		{name: "quote inside unquoted cell", input: `a"b,c`, want: [][]string{{`a"b`, "c"}}},
		{name: "unicode", input: "é,ü\n日本,語", want: [][]string{{"é", "ü"}, {"日本", "語"}}},
		{name: "backslash kept without escape", input: `a\nb`, want: [][]string{{`a\nb`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseString(t, tt.input, DefaultOptions()))
		})
	}
}

func TestParse_EmptyQuotedCellAtEndOfInput(t *testing.T) {
	// A lone empty cell at end of input is indistinguishable from the end
	// of input itself, quoted or not.
	assert.Empty(t, parseString(t, `""`, DefaultOptions()))
	assert.Equal(t, [][]string{{"a"}}, parseString(t, "a\n\"\"", DefaultOptions()))
}

func TestParse_CustomSeparatorAndQuote(t *testing.T) {
	opts := DefaultOptions()
	opts.Separator = '\t'
	opts.Quote = '\''

	got := parseString(t, "a\t'b\tc'\t'it''s'\n\"x\"\ty", opts)
	assert.Equal(t, [][]string{{"a", "b\tc", "it's"}, {`"x"`, "y"}}, got)
}

func TestParse_Escapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		unescape bool
		want     []string
	}{
		{name: "decode controls", input: `a\tb,\n,\r,\b,\0`, unescape: true, want: []string{"a\tb", "\n", "\r", "\b", "\x00"}},
		{name: "decode other drops marker", input: `\q,\\,\,`, unescape: true, want: []string{"q", `\`, ","}},
		{name: "decode N inside cell", input: `x\N,\Ny`, unescape: true, want: []string{"xN", "Ny"}},
		{name: "decode escape at eof", input: `ab\`, unescape: true, want: []string{"ab"}},
		{name: "keep escaped text", input: `a\tb,\N,\,x`, unescape: false, want: []string{`a\tb`, `\N`, `\,x`}},
		{name: "keep literal tab as text", input: "a\\\tb", unescape: false, want: []string{`a\tb`}},
		{name: "keep escaped lf as text", input: "a\\\nb", unescape: false, want: []string{`a\nb`}},
		{name: "keep escaped crlf as text", input: "a\\\r\nb", unescape: false, want: []string{`a\nb`}},
		{name: "keep escaped cr as text", input: "a\\\rb", unescape: false, want: []string{`a\nb`}},
		{name: "keep escape at eof dropped", input: `ab\`, unescape: false, want: []string{"ab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Escape = '\\'
			opts.Unescape = tt.unescape

			got := parseString(t, tt.input, opts)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestParse_EscapesIgnoredInsideQuotes(t *testing.T) {
	opts := DefaultOptions()
	opts.Escape = '\\'
	opts.Unescape = true

	assert.Equal(t, [][]string{{`a\tb`}}, parseString(t, `"a\tb"`, opts))
}

func TestParse_Null(t *testing.T) {
	opts := DefaultOptions()
	opts.Escape = '\\'
	opts.Unescape = true

	results := collect(t, NewParserFromString("\\N,a,\\N\n\\N\r\nb,\\N", opts))
	require.Len(t, results, 3)

	assert.Equal(t, []Cell{{Null: true}, {Value: "a"}, {Null: true}}, results[0].Row.Cells)
	assert.Equal(t, []Cell{{Null: true}}, results[1].Row.Cells)
	assert.Equal(t, []Cell{{Value: "b"}, {Null: true}}, results[2].Row.Cells)
	assert.Equal(t, []any{"b", nil}, results[2].Row.Values())
}

func TestParse_NullAloneAtEndOfInput(t *testing.T) {
	opts := DefaultOptions()
	opts.Escape = '\\'
	opts.Unescape = true

	results := collect(t, NewParserFromString(`\N`, opts))
	require.Len(t, results, 1)
	assert.Equal(t, []Cell{{Null: true}}, results[0].Row.Cells)
}

func TestParse_RowPositionAfterBlankLines(t *testing.T) {
	tests := []struct {
		input string
		want  []Position
	}{
		{input: "\n", want: []Position{{Line: 1, Column: 1}}},
		{input: "\n\n", want: []Position{{Line: 1, Column: 1}, {Line: 1, Column: 1}}},
		{input: "foo\rbar", want: []Position{{Line: 2, Column: 1}, {Line: 2, Column: 4}}},
	}
	for _, tt := range tests {
		results := collect(t, NewParserFromString(tt.input, DefaultOptions()))
		require.Len(t, results, len(tt.want), "%q", tt.input)
		for i, res := range results {
			assert.Equal(t, tt.want[i], res.Row.Pos, "%q row %d", tt.input, i)
			assert.GreaterOrEqual(t, res.Row.Pos.Column, 1)
		}
	}
}

func TestParse_RowPosition(t *testing.T) {
	results := collect(t, NewParserFromString("ab,c\nd", DefaultOptions()))
	require.Len(t, results, 2)
	assert.Equal(t, Position{Line: 1, Column: 5}, results[0].Row.Pos)
	assert.Equal(t, Position{Line: 2, Column: 2}, results[1].Row.Pos)
}

func TestParse_MalformedQuote(t *testing.T) {
	t.Run("unexpected character after quote", func(t *testing.T) {
		results := collect(t, NewParserFromString("\"ab\"x,y\nnext", DefaultOptions()))
		require.Len(t, results, 2)

		perr := results[0].Err
		require.NotNil(t, perr)
		assert.Equal(t, MalformedQuote, perr.Kind)
		assert.Equal(t, "Unexpected character following quote: x", perr.Message)
		assert.Equal(t, 1, perr.Line)
		assert.Equal(t, 5, perr.Column)
		assertPartialCell(t, perr, "ab")
		assertPartialRow(t, perr, []Cell{})
		assertSkipped(t, perr, "x...y")

		assert.Equal(t, []string{"next"}, results[1].Row.Strings())
	})

	t.Run("unclosed quote at end of input", func(t *testing.T) {
		results := collect(t, NewParserFromString("a,\"bc", DefaultOptions()))
		require.Len(t, results, 1)

		perr := results[0].Err
		require.NotNil(t, perr)
		assert.Equal(t, MalformedQuote, perr.Kind)
		assert.Equal(t, "Reached end of file while parsing quoted field", perr.Message)
		assert.Equal(t, 7, perr.Column)
		assertPartialCell(t, perr, "bc")
		assertPartialRow(t, perr, []Cell{{Value: "a"}})
		_, ok := perr.SkippedText()
		assert.False(t, ok, "nothing is left to skip at end of input")
	})

	t.Run("unclosed quote swallows the rest", func(t *testing.T) {
		results := collect(t, NewParserFromString("a\n\"b\nc,d\ne", DefaultOptions()))
		require.Len(t, results, 2)
		assert.Equal(t, []string{"a"}, results[0].Row.Strings())
		require.NotNil(t, results[1].Err)
		assertPartialCell(t, results[1].Err, "b\nc,d\ne")
	})
}

func TestParse_CellSizeExceeded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCellSize = 3

	t.Run("unquoted", func(t *testing.T) {
		results := collect(t, NewParserFromString("abcdef,g\nh", opts))
		require.Len(t, results, 2)

		perr := results[0].Err
		require.NotNil(t, perr)
		assert.Equal(t, CellSizeExceeded, perr.Kind)
		assert.Equal(t, "Data cell exceeded maximum size of 3 while reading", perr.Message)
		assert.Equal(t, 4, perr.Column)
		assertPartialCell(t, perr, "abc")
		assertPartialRow(t, perr, []Cell{})
		assertSkipped(t, perr, "d...g")

		assert.Equal(t, []string{"h"}, results[1].Row.Strings())
	})

	t.Run("cell at the ceiling is fine", func(t *testing.T) {
		assert.Equal(t, [][]string{{"abc", "d"}}, parseString(t, "abc,d", opts))
		assert.Equal(t, [][]string{{"abc"}}, parseString(t, `"abc"`, opts))
	})

	t.Run("quoted", func(t *testing.T) {
		o := opts
		o.MaxCellSize = 2
		results := collect(t, NewParserFromString("x,\"abc\",d\ne", o))
		require.Len(t, results, 2)

		perr := results[0].Err
		require.NotNil(t, perr)
		assert.Equal(t, CellSizeExceeded, perr.Kind)
		assertPartialCell(t, perr, "ab")
		assertPartialRow(t, perr, []Cell{{Value: "x"}})
		assertSkipped(t, perr, "c...d")

		assert.Equal(t, []string{"e"}, results[1].Row.Strings())
	})

	t.Run("escape sequence that does not fit", func(t *testing.T) {
		o := opts
		o.Escape = '\\'

		results := collect(t, NewParserFromString("ab\\x,z\nok", o))
		require.Len(t, results, 2)
		perr := results[0].Err
		require.NotNil(t, perr)
		assert.Equal(t, CellSizeExceeded, perr.Kind)
		assert.Equal(t, 5, perr.Column, "skipping starts after the escape sequence")
		assertPartialCell(t, perr, "ab")
		assertSkipped(t, perr, ",...z")
		assert.Equal(t, []string{"ok"}, results[1].Row.Strings())

		results = collect(t, NewParserFromString("ab\\xy\nok", o))
		require.Len(t, results, 2)
		require.NotNil(t, results[0].Err)
		assertPartialCell(t, results[0].Err, "ab")
		assertSkipped(t, results[0].Err, "y")
		assert.Equal(t, []string{"ok"}, results[1].Row.Strings())
	})

	t.Run("escape sequence at the ceiling is fine", func(t *testing.T) {
		o := opts
		o.Escape = '\\'
		assert.Equal(t, [][]string{{`a\x`, "z"}}, parseString(t, "a\\x,z", o))
	})

	t.Run("partial cell is truncated at the ceiling", func(t *testing.T) {
		o := DefaultOptions()
		o.MaxCellSize = 10
		results := collect(t, NewParserFromString(strings.Repeat("z", 1000)+"\nok", o))
		require.Len(t, results, 2)
		assertPartialCell(t, results[0].Err, strings.Repeat("z", 10))
		assertSkipped(t, results[0].Err, "z...z")
		assert.Equal(t, []string{"ok"}, results[1].Row.Strings())
	})
}

func TestParse_RowSizeExceeded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRowWidth = 2

	results := collect(t, NewParserFromString("a,b,c,d\ne,f", opts))
	require.Len(t, results, 2)

	perr := results[0].Err
	require.NotNil(t, perr)
	assert.Equal(t, RowSizeExceeded, perr.Kind)
	assert.Equal(t, "Data row exceeded maximum cell count of 2 while reading", perr.Message)
	assert.Equal(t, 5, perr.Column)
	_, ok := perr.PartialCell()
	assert.False(t, ok)
	assertPartialRow(t, perr, []Cell{{Value: "a"}, {Value: "b"}})
	assertSkipped(t, perr, "c...d")

	assert.Equal(t, []string{"e", "f"}, results[1].Row.Strings())

	t.Run("row at the ceiling is fine", func(t *testing.T) {
		assert.Equal(t, [][]string{{"a", "b"}}, parseString(t, "a,b\n", opts))
	})

	t.Run("short previews", func(t *testing.T) {
		o := DefaultOptions()
		o.MaxRowWidth = 1

		results := collect(t, NewParserFromString("a,b\nc,\nd", o))
		require.Len(t, results, 3)
		assertSkipped(t, results[0].Err, "b")
		assertSkipped(t, results[1].Err, "")
		assert.Equal(t, []string{"d"}, results[2].Row.Strings())
	})
}

func TestParse_ErrorModes(t *testing.T) {
	input := "a\n\"b\"x\nd\n\"e"

	t.Run("include", func(t *testing.T) {
		opts := DefaultOptions()
		results := collect(t, NewParserFromString(input, opts))
		require.Len(t, results, 4)
		assert.Equal(t, []string{"a"}, results[0].Row.Strings())
		assert.NotNil(t, results[1].Err)
		assert.Equal(t, []string{"d"}, results[2].Row.Strings())
		assert.NotNil(t, results[3].Err)
	})

	t.Run("ignore", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ErrorMode = ErrorModeIgnore
		assert.Equal(t, [][]string{{"a"}, {"d"}}, parseString(t, input, opts))
	})

	t.Run("throw", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ErrorMode = ErrorModeThrow
		p := NewParserFromString(input, opts)

		res, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, res.Row.Strings())

		_, err = p.Next()
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, MalformedQuote, perr.Kind)
		assert.ErrorIs(t, err, ErrMalformedQuote)

		_, again := p.Next()
		assert.Same(t, perr, again, "a thrown error halts the parser")
	})
}

func TestParse_IgnoreEqualsFilteredInclude(t *testing.T) {
	inputs := []string{
		"a,b\n\"x\"y\nc,d\n",
		"1,2,3,4,5\nok\n\"open",
		"\"\"\"\nz\n\"a\"b\"c\"\r\n,\n",
		"\"bad\"q\n\"bad\"q\n\"bad\"q",
	}
	for _, input := range inputs {
		opts := DefaultOptions()
		opts.MaxRowWidth = 3

		var filtered [][]string
		for _, res := range collect(t, NewParserFromString(input, opts)) {
			if res.Err == nil {
				filtered = append(filtered, res.Row.Strings())
			}
		}

		opts.ErrorMode = ErrorModeIgnore
		ignored := parseString(t, input, opts)
		assert.Equal(t, filtered, ignored, "input %q", input)
	}
}

type failingReader struct {
	data string
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.data == "" {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestParse_SourceErrorIsFatal(t *testing.T) {
	boom := errors.New("connection reset")

	for _, mode := range []ErrorMode{ErrorModeInclude, ErrorModeIgnore, ErrorModeThrow} {
		t.Run(mode.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.ErrorMode = mode
			p := NewParser(bufio.NewReader(&failingReader{data: "a,b\n\"c", err: boom}), opts)

			res, err := p.Next()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, res.Row.Strings())

			_, err = p.Next()
			assert.ErrorIs(t, err, boom)
			_, err = p.Next()
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestParser_All(t *testing.T) {
	p := NewParserFromString("a\nb\n", DefaultOptions())

	var got []string
	for res, err := range p.All() {
		require.NoError(t, err)
		got = append(got, res.Row.Strings()...)
	}
	assert.Equal(t, []string{"a", "b"}, got)

	for _, err := range p.All() {
		assert.ErrorIs(t, err, ErrConsumed)
	}
}

func TestParser_AllStopsOnThrow(t *testing.T) {
	opts := DefaultOptions()
	opts.ErrorMode = ErrorModeThrow
	p := NewParserFromString("a\n\"b\"c\nd\n", opts)

	var rows int
	var errs []error
	for res, err := range p.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows += len(res.Row.Cells)
	}
	assert.Equal(t, 1, rows)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformedQuote)
}

func TestParseError_AttachRowTwicePanics(t *testing.T) {
	perr := &ParseError{Kind: RowSizeExceeded}
	perr.attachRow([]Cell{{Value: "a"}})
	assert.Panics(t, func() { perr.attachRow(nil) })
}

func TestParseError_Error(t *testing.T) {
	perr := &ParseError{Kind: MalformedQuote, Message: "Unexpected character following quote: x", Line: 3, Column: 9}
	assert.Equal(t, "parse error on line 3, column 9: malformed-quote: Unexpected character following quote: x", perr.Error())
	assert.ErrorIs(t, perr, ErrMalformedQuote)
	assert.NotErrorIs(t, perr, ErrRowSizeExceeded)
}

func TestErrorMode_String(t *testing.T) {
	tests := []struct {
		mode ErrorMode
		want string
	}{
		{ErrorModeInclude, "include"},
		{ErrorModeIgnore, "ignore"},
		{ErrorModeThrow, "throw"},
		{ErrorMode(99), "ErrorMode(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.String())
			if tt.mode <= ErrorModeThrow {
				got, err := ParseErrorMode(strings.ToUpper(tt.want))
				require.NoError(t, err)
				assert.Equal(t, tt.mode, got)
			}
		})
	}

	_, err := ParseErrorMode("explode")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	for n := 3; n < 2000; n += 97 {
		run := "<" + strings.Repeat("-", n-2) + ">"
		p := NewParserFromString(run+"\nz", DefaultOptions())
		s, _ := p.skipLine()
		assert.Equal(t, "<...>", s)
	}
	assert.Equal(t, "", preview(-1, -1))
	assert.Equal(t, "a", preview('a', -1))
	assert.Equal(t, "a...b", preview('a', 'b'))
}

func assertPartialCell(t *testing.T, perr *ParseError, want string) {
	t.Helper()
	require.NotNil(t, perr)
	got, ok := perr.PartialCell()
	require.True(t, ok, "partial cell missing")
	assert.Equal(t, want, got)
}

func assertPartialRow(t *testing.T, perr *ParseError, want []Cell) {
	t.Helper()
	require.NotNil(t, perr)
	got, ok := perr.PartialRow()
	require.True(t, ok, "partial row missing")
	assert.Equal(t, want, got)
}

func assertSkipped(t *testing.T, perr *ParseError, want string) {
	t.Helper()
	require.NotNil(t, perr)
	got, ok := perr.SkippedText()
	require.True(t, ok, "skipped text missing")
	assert.Equal(t, want, got)
}

func TestParser_Hooks(t *testing.T) {
	var rows int
	var kinds []ErrorKind

	opts := DefaultOptions()
	opts.ErrorMode = ErrorModeIgnore
	opts.MaxRowWidth = 2
	opts.OnRow = func(Row) { rows++ }
	opts.OnError = func(err *ParseError) { kinds = append(kinds, err.Kind) }

	got := parseString(t, "a\n1,2,3\n\"q\"x\nb\n", opts)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, got)
	assert.Equal(t, 2, rows)
	assert.Equal(t, []ErrorKind{RowSizeExceeded, MalformedQuote}, kinds)
}
