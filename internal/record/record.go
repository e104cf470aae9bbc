// Package record parses and serializes the line-oriented record formats the
// smartifier works on: CSV rows with a configurable separator and quote
// character, and JSONL objects. CSV fields are kept in their raw (possibly
// quoted) form so that untouched columns round-trip byte-identically; only
// the cells a transform rewrites are unquoted and requoted.
package record

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Format identifies the record format of an input or output file.
type Format int

const (
	FormatCSV Format = iota
	FormatJSONL
)

// ParseFormat maps the CLI --type value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "jsonl":
		return FormatJSONL, nil
	default:
		return 0, fmt.Errorf("unsupported data type %q: use 'csv' or 'jsonl'", s)
	}
}

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "csv"
}

// LineError reports a per-line failure together with its origin.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// maxLineSize bounds a single input line. Graph dumps occasionally carry
// large embedded documents; 64 MiB is far beyond anything legitimate.
const maxLineSize = 64 << 20

// LineReader reads a file line by line, tracking line numbers for error
// reporting. Trailing carriage returns are stripped.
type LineReader struct {
	path string
	f    *os.File
	sc   *bufio.Scanner
	line int
}

// OpenLines opens path for line-oriented reading.
func OpenLines(path string) (*LineReader, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), maxLineSize)
	return &LineReader{path: path, f: f, sc: sc}, nil
}

// Next returns the next line. ok is false at EOF or on error; check Err.
func (r *LineReader) Next() (line string, ok bool) {
	if !r.sc.Scan() {
		return "", false
	}
	r.line++
	return strings.TrimSuffix(r.sc.Text(), "\r"), true
}

// Line returns the 1-based number of the line most recently returned by Next.
func (r *LineReader) Line() int { return r.line }

// Path returns the file path the reader was opened with.
func (r *LineReader) Path() string { return r.path }

// Err returns the first non-EOF error encountered while scanning.
func (r *LineReader) Err() error {
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	return nil
}

// LineErr wraps err with the reader's file and current line number.
func (r *LineReader) LineErr(err error) error {
	return &LineError{File: r.path, Line: r.line, Err: err}
}

func (r *LineReader) Close() error { return r.f.Close() }

// LineWriter writes lines through a buffered writer.
type LineWriter struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

// CreateLines creates (or truncates) path for line-oriented writing.
func CreateLines(path string) (*LineWriter, error) {
	f, err := os.Create(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &LineWriter{path: path, f: f, w: bufio.NewWriterSize(f, 256<<10)}, nil
}

// WriteLine writes s followed by a newline.
func (w *LineWriter) WriteLine(s string) error {
	if _, err := w.w.WriteString(s); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Path returns the file path the writer was created with.
func (w *LineWriter) Path() string { return w.path }

// Close flushes buffered data and closes the file.
func (w *LineWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}
