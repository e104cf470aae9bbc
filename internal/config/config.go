// Package config holds the run configuration for the smartifier CLI and
// validates it before any I/O begins.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"smartifier/internal/record"
)

// DefaultMemoryBytes is the vertex-table byte budget used when --memory is
// not given.
const DefaultMemoryBytes = 1 << 30

// CSVOptions carries the CSV sub-format options.
type CSVOptions struct {
	Separator byte // field separator (default ',')
	Quote     byte // quote character (default '"')
}

// DefaultCSV returns the standard comma/double-quote CSV options.
func DefaultCSV() CSVOptions {
	return CSVOptions{Separator: ',', Quote: '"'}
}

// Validate checks the CSV sub-options.
func (c CSVOptions) Validate() error {
	if c.Separator == 0 {
		return fmt.Errorf("separator must be a single character")
	}
	if c.Quote == 0 {
		return fmt.Errorf("quote character must be a single character")
	}
	if c.Separator == c.Quote {
		return fmt.Errorf("separator and quote character must differ")
	}
	return nil
}

// ParseChar converts a single-character CLI flag value to a byte.
func ParseChar(flag, s string) (byte, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("--%s must be a single character, got %q", flag, s)
	}
	return s[0], nil
}

// VertexOptions configures the vertex-mode streaming transform.
type VertexOptions struct {
	Input  string // input file path
	Output string // output file path

	Format record.Format
	CSV    CSVOptions

	SmartAttribute string // name of the smart graph attribute (default "smart_id")
	SmartValue     string // column/attribute the smart value is derived from (optional)
	SmartIndex     int    // take only this many leading characters of the smart value (0 = all)
	SmartDefault   string // fallback smart value for absent attributes (JSONL only)

	WriteKey bool   // create/rewrite the _key column even when absent
	KeyValue string // column/attribute supplying the _key suffix (optional)
}

// Validate checks the vertex-mode configuration.
func (o *VertexOptions) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("input file is required")
	}
	if o.Output == "" {
		return fmt.Errorf("output file is required")
	}
	if o.Input == o.Output {
		return fmt.Errorf("input and output must be different files")
	}
	if o.SmartAttribute == "" {
		return fmt.Errorf("smart graph attribute must not be empty")
	}
	if o.SmartIndex < 0 {
		return fmt.Errorf("smart index must not be negative")
	}
	if o.SmartDefault != "" && o.Format != record.FormatJSONL {
		return fmt.Errorf("smart default is only supported for jsonl input")
	}
	if o.Format == record.FormatCSV {
		if err := o.CSV.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EdgeFile describes one edge input file.
type EdgeFile struct {
	Path           string
	FromCollection string // default collection for bare _from references
	ToCollection   string // default collection for bare _to references
	Renames        []record.Rename
}

// VertexFile names one smart-rewritten vertex file and its collection.
type VertexFile struct {
	Collection string
	Path       string
}

// EdgeOptions configures the edge-mode run.
type EdgeOptions struct {
	Format record.Format
	CSV    CSVOptions

	Edges    []EdgeFile
	Vertices []VertexFile // empty when SmartIndex is used

	// SmartIndex > 0 selects the direct-index shortcut: the smart attribute
	// is the first SmartIndex characters of the key, and no vertex table is
	// built.
	SmartIndex int

	MemoryBytes int64 // byte budget for the resident vertex partition
	Threads     int   // number of concurrent edge-file workers

	WriteKey bool // rewrite edge _key to "<fromAttr>:<key>:<toAttr>"

	// OutputSuffix keeps the rewritten file at "<input><suffix>" instead of
	// renaming it over the input.
	OutputSuffix string
}

// Validate checks the edge-mode configuration. All failures here are
// reported before any file is opened.
func (o *EdgeOptions) Validate() error {
	if len(o.Edges) == 0 {
		return fmt.Errorf("at least one edge file is required")
	}
	if o.SmartIndex < 0 {
		return fmt.Errorf("smart index must not be negative")
	}
	if o.SmartIndex > 0 && len(o.Vertices) > 0 {
		return fmt.Errorf("--smart-index and --vertices are mutually exclusive: the key prefix replaces the vertex lookup table")
	}
	if o.SmartIndex == 0 && len(o.Vertices) == 0 {
		return fmt.Errorf("edge transformation needs either vertex files or --smart-index")
	}
	if o.MemoryBytes <= 0 {
		return fmt.Errorf("memory budget must be positive")
	}
	if o.Threads < 1 {
		return fmt.Errorf("thread count must be at least 1")
	}
	if o.Format == record.FormatCSV {
		if err := o.CSV.Validate(); err != nil {
			return err
		}
	}
	for _, e := range o.Edges {
		if e.Path == "" || e.FromCollection == "" || e.ToCollection == "" {
			return fmt.Errorf("edge spec for %q must name a file and both default collections", e.Path)
		}
	}
	for _, v := range o.Vertices {
		if v.Collection == "" || v.Path == "" {
			return fmt.Errorf("vertex spec for %q must name a collection and a file", v.Path)
		}
	}
	return nil
}

// ParseEdgeSpec parses an --edges value of the form
// "<file>:<fromColl>:<toColl>[:<colIndex>:<newName>...]".
func ParseEdgeSpec(s string) (EdgeFile, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return EdgeFile{}, fmt.Errorf("invalid edge spec %q: want <file>:<fromCollection>:<toCollection>[:<colIndex>:<newName>...]", s)
	}
	e := EdgeFile{Path: parts[0], FromCollection: parts[1], ToCollection: parts[2]}
	rest := parts[3:]
	if len(rest)%2 != 0 {
		return EdgeFile{}, fmt.Errorf("invalid edge spec %q: column renames come in <index>:<name> pairs", s)
	}
	for i := 0; i < len(rest); i += 2 {
		idx, err := strconv.Atoi(rest[i])
		if err != nil || idx < 0 {
			return EdgeFile{}, fmt.Errorf("invalid edge spec %q: %q is not a column index", s, rest[i])
		}
		e.Renames = append(e.Renames, record.Rename{Index: idx, Name: rest[i+1]})
	}
	return e, nil
}

// ParseVertexSpec parses a --vertices value of the form "<collection>:<file>".
func ParseVertexSpec(s string) (VertexFile, error) {
	coll, path, ok := strings.Cut(s, ":")
	if !ok || coll == "" || path == "" {
		return VertexFile{}, fmt.Errorf("invalid vertex spec %q: want <collection>:<file>", s)
	}
	return VertexFile{Collection: coll, Path: path}, nil
}

// ParseMemory parses a byte count with an optional KB/MB/GB or KiB/MiB/GiB
// suffix. Decimal suffixes are powers of ten, binary suffixes powers of two.
func ParseMemory(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(upper, "KIB"):
		mult, upper = 1<<10, upper[:len(upper)-3]
	case strings.HasSuffix(upper, "MIB"):
		mult, upper = 1<<20, upper[:len(upper)-3]
	case strings.HasSuffix(upper, "GIB"):
		mult, upper = 1<<30, upper[:len(upper)-3]
	case strings.HasSuffix(upper, "KB"):
		mult, upper = 1e3, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "MB"):
		mult, upper = 1e6, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "GB"):
		mult, upper = 1e9, upper[:len(upper)-2]
	case strings.HasSuffix(upper, "B"):
		upper = upper[:len(upper)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("memory size must be positive, got %q", s)
	}
	return n * mult, nil
}
