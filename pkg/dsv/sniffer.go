package dsv

import (
	"regexp"
	"strings"
	"unicode"
)

// sniffRows bounds how many rows of a sample are examined.
const sniffRows = 20

// candidateSeparators are tried in order; ties go to the earlier one.
var candidateSeparators = []rune{',', '\t', ';', '|'}

var (
	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),      // snake_case or identifier
		regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),     // camelCase
		regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	}
)

// Sniffer guesses the dialect of a DSV sample: its separator and whether
// the first row is a header. The sample is read with the same engine as
// Reader, so quoted separators and line breaks are not miscounted. A
// sample cut mid-row is fine; the malformed tail is ignored.
type Sniffer struct {
	sample    string
	base      ReaderOptions
	separator rune
	hasHeader bool
	analyzed  bool
}

// NewSniffer creates a Sniffer over sample using the default quote
// character. For best results, provide at least 2-3 lines of data.
func NewSniffer(sample string) *Sniffer {
	return NewSnifferWithOptions(sample, DefaultReaderOptions())
}

// NewSnifferWithOptions creates a Sniffer whose trial reads use opts with
// only the separator varied.
func NewSnifferWithOptions(sample string, opts ReaderOptions) *Sniffer {
	return &Sniffer{sample: sample, base: opts}
}

func (s *Sniffer) analyze() {
	if s.analyzed {
		return
	}
	s.separator = s.detectSeparator()
	s.hasHeader = s.detectHeader()
	s.analyzed = true
}

// DetectSeparator returns the detected separator. Candidates are comma,
// tab, semicolon and pipe; comma is returned when nothing fits.
func (s *Sniffer) DetectSeparator() rune {
	s.analyze()
	return s.separator
}

// HasHeader returns true if the first row appears to be a header.
func (s *Sniffer) HasHeader() bool {
	s.analyze()
	return s.hasHeader
}

// ReaderOptions returns the base options with the detected separator.
func (s *Sniffer) ReaderOptions() ReaderOptions {
	opts := s.base
	opts.Separator = s.DetectSeparator()
	return opts
}

// widths reads the sample with separator sep and returns the cell count
// of each well-formed row. Blank lines are skipped.
func (s *Sniffer) widths(sep rune) []int {
	rows := s.rows(sep)
	counts := make([]int, 0, len(rows))
	for _, row := range rows {
		if len(row.Cells) == 1 && row.Cells[0] == (Cell{}) {
			continue
		}
		counts = append(counts, len(row.Cells))
	}
	return counts
}

func (s *Sniffer) rows(sep rune) []Row {
	opts := s.base
	opts.Separator = sep
	opts.ErrorMode = ErrorModeIgnore
	r, err := NewStringReader(s.sample, opts)
	if err != nil {
		return nil
	}
	var rows []Row
	for len(rows) < sniffRows && r.Scan() {
		rows = append(rows, r.Row())
	}
	return rows
}

// detectSeparator scores each candidate by cells per row, with a bonus
// when every row agrees.
func (s *Sniffer) detectSeparator() rune {
	best := ','
	bestScore := 0
	for _, sep := range candidateSeparators {
		if sep == s.base.Quote || sep == s.base.Escape {
			continue
		}
		counts := s.widths(sep)
		if len(counts) == 0 || counts[0] < 2 {
			continue
		}
		score := counts[0] - 1
		consistent := true
		for _, c := range counts[1:] {
			if c != counts[0] {
				consistent = false
				break
			}
		}
		if consistent {
			score *= 10
		}
		if score > bestScore {
			best, bestScore = sep, score
		}
	}
	return best
}

// detectHeader compares the first row against what headers and data
// usually look like.
func (s *Sniffer) detectHeader() bool {
	rows := s.rows(s.separator)
	if len(rows) < 2 {
		return false
	}

	headerScore := 0
	dataScore := 0
	for _, cell := range rows[0].Cells {
		v := strings.TrimSpace(cell.Value)
		if isLikelyHeader(v) {
			headerScore++
		}
		if isLikelyData(v) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

// isLikelyHeader checks if a cell looks like a column name.
func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isLikelyData checks if a cell looks like a value rather than a name.
func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isNumeric checks if a string is a plain decimal number.
func isNumeric(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	if s == "" {
		return false
	}
	hasDot := false
	for _, ch := range s {
		if ch == '.' {
			if hasDot {
				return false
			}
			hasDot = true
		} else if !unicode.IsDigit(ch) {
			return false
		}
	}
	return s != "."
}
