package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminatedQuote reports a CSV field whose opening quote is never
// closed. This is fatal for the file it occurs in.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

// SplitLine splits a CSV line on sep, honouring the quote character. Fields
// are returned raw, with their quoting intact, so unmodified fields can be
// written back unchanged.
func SplitLine(line string, sep, quote byte) ([]string, error) {
	fields := make([]string, 0, 8)
	start := 0
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inQuote {
			if c == quote {
				if i+1 < len(line) && line[i+1] == quote {
					i++ // escaped quote
					continue
				}
				inQuote = false
			}
			continue
		}
		switch c {
		case quote:
			inQuote = true
		case sep:
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	return append(fields, line[start:]), nil
}

// Unquote decodes a raw CSV field: surrounding quotes are removed and doubled
// quote characters collapse to one. Fields without the quote character are
// returned as-is.
func Unquote(field string, quote byte) string {
	if strings.IndexByte(field, quote) < 0 {
		return field
	}
	var b strings.Builder
	b.Grow(len(field))
	inQuote := false
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c != quote {
			if inQuote {
				b.WriteByte(c)
			}
			continue
		}
		if inQuote && i+1 < len(field) && field[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		inQuote = !inQuote
	}
	return b.String()
}

// Quote encodes a value as a raw CSV field. The value is quoted exactly when
// it contains the separator, the quote character, or a line break; embedded
// quote characters are doubled.
func Quote(value string, sep, quote byte) string {
	if !strings.ContainsAny(value, string([]byte{sep, quote, '\n', '\r'})) {
		return value
	}
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(value); i++ {
		if value[i] == quote {
			b.WriteByte(quote)
		}
		b.WriteByte(value[i])
	}
	b.WriteByte(quote)
	return b.String()
}

// JoinLine serializes raw fields back into a CSV line.
func JoinLine(fields []string, sep byte) string {
	return strings.Join(fields, string([]byte{sep}))
}

// Rename renames the column at Index to Name. Renames are positional and are
// applied once, to the header only; reapplying the same mapping is a no-op.
type Rename struct {
	Index int
	Name  string
}

// Header holds the decoded column names of a CSV file.
type Header struct {
	Columns []string
	sep     byte
	quote   byte
}

// ParseHeader decodes the first line of a CSV file and applies the given
// column renames. Renames pointing past the last column are ignored, matching
// the original tool.
func ParseHeader(line string, sep, quote byte, renames []Rename) (*Header, error) {
	raw, err := SplitLine(line, sep, quote)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols := make([]string, len(raw))
	for i, f := range raw {
		cols[i] = Unquote(f, quote)
	}
	for _, r := range renames {
		if r.Index >= 0 && r.Index < len(cols) {
			cols[r.Index] = r.Name
		}
	}
	return &Header{Columns: cols, sep: sep, quote: quote}, nil
}

// Pos returns the index of the named column, or -1.
func (h *Header) Pos(name string) int {
	for i, c := range h.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Line serializes the header back to a CSV line.
func (h *Header) Line() string {
	out := make([]string, len(h.Columns))
	for i, c := range h.Columns {
		out[i] = Quote(c, h.sep, h.quote)
	}
	return JoinLine(out, h.sep)
}

// PadRow extends raw fields with empty columns up to the header width. Rows
// longer than the header keep their extra fields.
func (h *Header) PadRow(fields []string) []string {
	for len(fields) < len(h.Columns) {
		fields = append(fields, "")
	}
	return fields
}
