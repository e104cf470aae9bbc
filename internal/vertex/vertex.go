// Package vertex implements the vertex-mode streaming transform: derive the
// smart-attribute value for each record and prefix the key with it. The
// transform is stateless across records and runs in constant memory.
package vertex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"smartifier/internal/config"
	"smartifier/internal/record"
	"smartifier/internal/smartkey"
)

const keyField = "_key"

const progressEvery = 1_000_000

// Transformer rewrites one vertex file.
type Transformer struct {
	opts   config.VertexOptions
	logger *slog.Logger
}

// New creates a transformer. A nil logger discards all output.
func New(opts config.VertexOptions, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transformer{opts: opts, logger: logger}
}

// Run streams the input file to the output file.
func (t *Transformer) Run(ctx context.Context) error {
	if err := t.opts.Validate(); err != nil {
		return err
	}

	in, err := record.OpenLines(t.opts.Input)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := record.CreateLines(t.opts.Output)
	if err != nil {
		return err
	}

	if t.opts.Format == record.FormatCSV {
		err = t.runCSV(ctx, in, out)
	} else {
		err = t.runJSONL(ctx, in, out)
	}
	if err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// csvLayout holds the column positions resolved from the header.
type csvLayout struct {
	width       int
	smartPos    int
	smartValPos int
	keyPos      int
	keyValPos   int
}

func (t *Transformer) runCSV(ctx context.Context, in *record.LineReader, out *record.LineWriter) error {
	sep, quote := t.opts.CSV.Separator, t.opts.CSV.Quote

	headerLine, ok := in.Next()
	if !ok {
		if err := in.Err(); err != nil {
			return err
		}
		return fmt.Errorf("vertex file %s is empty", t.opts.Input)
	}
	header, err := record.ParseHeader(headerLine, sep, quote, nil)
	if err != nil {
		return in.LineErr(err)
	}

	layout := csvLayout{smartValPos: -1, keyValPos: -1}
	layout.smartPos = header.Pos(t.opts.SmartAttribute)
	if layout.smartPos < 0 {
		layout.smartPos = len(header.Columns)
		header.Columns = append(header.Columns, t.opts.SmartAttribute)
	}
	if t.opts.SmartValue != "" {
		layout.smartValPos = header.Pos(t.opts.SmartValue)
		if layout.smartValPos < 0 {
			t.logger.Warn("smart value column not found, ignoring", "column", t.opts.SmartValue)
		}
	}
	layout.keyPos = header.Pos(keyField)
	if layout.keyPos < 0 && t.opts.WriteKey {
		layout.keyPos = len(header.Columns)
		header.Columns = append(header.Columns, keyField)
	}
	if t.opts.KeyValue != "" {
		layout.keyValPos = header.Pos(t.opts.KeyValue)
		if layout.keyValPos < 0 && t.opts.WriteKey {
			t.logger.Warn("key value column not found, ignoring", "column", t.opts.KeyValue)
		}
	}
	layout.width = len(header.Columns)

	if err := out.WriteLine(header.Line()); err != nil {
		return err
	}

	var count int64
	for {
		line, ok := in.Next()
		if !ok {
			break
		}
		count++
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rewritten, err := t.transformCSVRow(line, layout)
		if err != nil {
			return in.LineErr(err)
		}
		if err := out.WriteLine(rewritten); err != nil {
			return err
		}
		if count%progressEvery == 0 {
			t.logger.Info("transforming vertices", "file", t.opts.Input, "records", count)
		}
	}
	return in.Err()
}

func (t *Transformer) transformCSVRow(line string, layout csvLayout) (string, error) {
	sep, quote := t.opts.CSV.Separator, t.opts.CSV.Quote
	fields, err := record.SplitLine(line, sep, quote)
	if err != nil {
		return "", err
	}
	for len(fields) < layout.width {
		fields = append(fields, "")
	}

	// Derive the smart attribute, optionally from a separate source column.
	var attr string
	if layout.smartValPos >= 0 {
		attr = record.Unquote(fields[layout.smartValPos], quote)
		if t.opts.SmartIndex > 0 && len(attr) > t.opts.SmartIndex {
			attr = attr[:t.opts.SmartIndex]
		}
		fields[layout.smartPos] = record.Quote(attr, sep, quote)
	} else {
		attr = record.Unquote(fields[layout.smartPos], quote)
	}

	if layout.keyPos < 0 {
		return record.JoinLine(fields, sep), nil
	}

	key := record.Unquote(fields[layout.keyPos], quote)
	if layout.keyValPos >= 0 {
		key = record.Unquote(fields[layout.keyValPos], quote)
	}

	prefix, suffix, found := strings.Cut(key, ":")
	switch {
	case !found:
		fields[layout.keyPos] = record.Quote(smartkey.Compose(attr, key), sep, quote)
	case prefix != attr:
		// Key was rewritten earlier with a different attribute value.
		t.logger.Warn("key has wrong smart-attribute prefix, fixing",
			"key", key, "attribute", attr)
		fields[layout.keyPos] = record.Quote(smartkey.Compose(attr, suffix), sep, quote)
	}

	return record.JoinLine(fields, sep), nil
}

func (t *Transformer) runJSONL(ctx context.Context, in *record.LineReader, out *record.LineWriter) error {
	var count int64
	for {
		line, ok := in.Next()
		if !ok {
			break
		}
		count++
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rewritten, err := t.transformJSONLLine(line, in.Line())
		if err != nil {
			return in.LineErr(err)
		}
		if err := out.WriteLine(rewritten); err != nil {
			return err
		}
		if count%progressEvery == 0 {
			t.logger.Info("transforming vertices", "file", t.opts.Input, "records", count)
		}
	}
	return in.Err()
}

func (t *Transformer) transformJSONLLine(line string, lineNo int) (string, error) {
	if !record.ValidObject(line) {
		return "", fmt.Errorf("not a JSON object")
	}

	sourceField := t.opts.SmartAttribute
	if t.opts.SmartValue != "" {
		sourceField = t.opts.SmartValue
	}
	attr, err := t.smartValueOf(line, sourceField, lineNo)
	if err != nil {
		return "", err
	}
	if t.opts.SmartIndex > 0 && len(attr) > t.opts.SmartIndex {
		attr = attr[:t.opts.SmartIndex]
	}

	key, kind, err := record.JSONGet(line, t.keySourceField())
	if err != nil {
		return "", err
	}

	newKey := ""
	if kind == record.JSONString {
		prefix, _, found := strings.Cut(key, ":")
		switch {
		case found:
			if prefix != attr {
				t.logger.Warn("key is already smart but with the wrong prefix",
					"line", lineNo, "key", key, "attribute", attr)
			}
			newKey = key
		case attr != "":
			newKey = smartkey.Compose(attr, key)
		default:
			newKey = key
		}
	}

	if t.opts.WriteKey || newKey != "" {
		if line, err = record.JSONSetString(line, "_key", newKey); err != nil {
			return "", err
		}
	}
	if line, err = record.JSONSetString(line, t.opts.SmartAttribute, attr); err != nil {
		return "", err
	}
	return line, nil
}

// keySourceField returns the field the key suffix is read from.
func (t *Transformer) keySourceField() string {
	if t.opts.KeyValue != "" {
		return t.opts.KeyValue
	}
	return keyField
}

// smartValueOf extracts the smart value from a JSONL record, coercing
// numbers and booleans with a warning and falling back to the configured
// default for absent or null values.
func (t *Transformer) smartValueOf(line, field string, lineNo int) (string, error) {
	value, kind, err := record.JSONGet(line, field)
	if err != nil {
		return "", err
	}
	switch kind {
	case record.JSONString:
		return value, nil
	case record.JSONNumber, record.JSONBool:
		t.logger.Warn("vertex with non-string smart attribute, converting to string",
			"line", lineNo, "field", field)
		return value, nil
	case record.JSONMissing, record.JSONNull:
		return t.opts.SmartDefault, nil
	default:
		t.logger.Warn("complex value for smart attribute, not converting",
			"line", lineNo, "field", field)
		return t.opts.SmartDefault, nil
	}
}
