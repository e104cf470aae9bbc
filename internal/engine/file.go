package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"smartifier/internal/config"
	"smartifier/internal/record"
	"smartifier/internal/smartkey"
)

const (
	fromField = "_from"
	toField   = "_to"
	keyField  = "_key"
)

// progressEvery controls how often per-file progress is logged.
const progressEvery = 1_000_000

// edgeFile owns the full pass sequence for one edge input file: reading the
// original file on pass 0 and its own spill store afterwards, writing
// terminal records to the final output and non-terminal ones forward. Each
// edge file is owned by exactly one worker for the whole run.
type edgeFile struct {
	spec   config.EdgeFile
	opts   *config.EdgeOptions
	logger *slog.Logger
	runID  string

	out     *record.LineWriter
	outPath string

	// CSV layout, fixed at pass 0 from the (renamed) header.
	header  *record.Header
	fromPos int
	toPos   int
	keyPos  int

	spill   *record.LineWriter // spill store for the next pass, opened on demand
	emitted int64
}

func newEdgeFile(spec config.EdgeFile, opts *config.EdgeOptions, logger *slog.Logger, runID string) *edgeFile {
	return &edgeFile{spec: spec, opts: opts, logger: logger, runID: runID, fromPos: -1, toPos: -1, keyPos: -1}
}

func (f *edgeFile) spillPath(pass int) string {
	return fmt.Sprintf("%s.%s.spill%d", f.spec.Path, f.runID, pass)
}

// runPass drains this file's input for one pass: the original file on pass 0,
// the spill store written by the previous pass otherwise.
func (f *edgeFile) runPass(ctx context.Context, res *resolver) error {
	inPath := f.spec.Path
	if res.pass > 0 {
		inPath = f.spillPath(res.pass)
		if _, err := os.Stat(inPath); os.IsNotExist(err) {
			return nil // fully resolved in an earlier pass
		}
	}
	in, err := record.OpenLines(inPath)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	if res.pass == 0 {
		if err := f.start(in); err != nil {
			return err
		}
	}

	var seen int64
	for {
		line, ok := in.Next()
		if !ok {
			break
		}
		seen++
		if seen%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		st := spillState{}
		payload := line
		if res.pass > 0 {
			if st, payload, err = decodeSpill(line); err != nil {
				return in.LineErr(err)
			}
		}

		out, st, err := f.transform(payload, st, res)
		if err != nil {
			return in.LineErr(err)
		}

		switch {
		case st.terminal():
			if err := f.out.WriteLine(out); err != nil {
				return err
			}
			f.emitted++
		case res.finalPass():
			return fmt.Errorf("%s: %w", f.spec.Path, ErrUnresolvedAfterFinalPass)
		default:
			if err := f.writeSpill(st, out, res.pass); err != nil {
				return err
			}
		}

		if seen%progressEvery == 0 {
			f.logger.Info("transforming edges", "file", f.spec.Path, "pass", res.pass, "records", seen)
		}
	}
	if err := in.Err(); err != nil {
		return err
	}

	if f.spill != nil {
		if err := f.spill.Close(); err != nil {
			return err
		}
		f.spill = nil
	}
	if res.pass > 0 {
		if err := os.Remove(inPath); err != nil {
			return fmt.Errorf("remove spill %s: %w", inPath, err)
		}
	}
	return nil
}

// start fixes the file's layout and opens the final output. CSV headers are
// renamed once here and written straight through.
func (f *edgeFile) start(in *record.LineReader) error {
	f.outPath = f.spec.Path + ".out"
	if f.opts.OutputSuffix != "" {
		f.outPath = f.spec.Path + f.opts.OutputSuffix
	}

	if f.opts.Format == record.FormatCSV {
		headerLine, ok := in.Next()
		if !ok {
			if err := in.Err(); err != nil {
				return err
			}
			return fmt.Errorf("edge file %s is empty", f.spec.Path)
		}
		header, err := record.ParseHeader(headerLine, f.opts.CSV.Separator, f.opts.CSV.Quote, f.spec.Renames)
		if err != nil {
			return in.LineErr(err)
		}
		f.header = header
		f.fromPos = header.Pos(fromField)
		f.toPos = header.Pos(toField)
		f.keyPos = header.Pos(keyField)
		if f.fromPos < 0 || f.toPos < 0 {
			return fmt.Errorf("edge file %s has no %s or %s column", f.spec.Path, fromField, toField)
		}
	}

	out, err := record.CreateLines(f.outPath)
	if err != nil {
		return err
	}
	f.out = out
	if f.header != nil {
		return f.out.WriteLine(f.header.Line())
	}
	return nil
}

func (f *edgeFile) transform(line string, st spillState, res *resolver) (string, spillState, error) {
	if f.opts.Format == record.FormatCSV {
		return f.transformCSV(line, st, res)
	}
	return f.transformJSONL(line, st, res)
}

func (f *edgeFile) transformCSV(line string, st spillState, res *resolver) (string, spillState, error) {
	sep, quote := f.opts.CSV.Separator, f.opts.CSV.Quote
	fields, err := record.SplitLine(line, sep, quote)
	if err != nil {
		return "", st, err
	}
	fields = f.header.PadRow(fields)

	if !st.fromResolved {
		newRef, done, err := res.resolve(record.Unquote(fields[f.fromPos], quote), f.spec.FromCollection)
		if err != nil {
			return "", st, err
		}
		if done {
			fields[f.fromPos] = record.Quote(newRef, sep, quote)
			st.fromResolved = true
		}
	}
	if !st.toResolved {
		newRef, done, err := res.resolve(record.Unquote(fields[f.toPos], quote), f.spec.ToCollection)
		if err != nil {
			return "", st, err
		}
		if done {
			fields[f.toPos] = record.Quote(newRef, sep, quote)
			st.toResolved = true
		}
	}

	if st.terminal() && f.opts.WriteKey && f.keyPos >= 0 {
		key := record.Unquote(fields[f.keyPos], quote)
		if !strings.Contains(key, ":") {
			fromAttr := attrOfRef(record.Unquote(fields[f.fromPos], quote))
			toAttr := attrOfRef(record.Unquote(fields[f.toPos], quote))
			if fromAttr != "" && toAttr != "" {
				fields[f.keyPos] = record.Quote(smartkey.EdgeKey(fromAttr, key, toAttr), sep, quote)
			}
		}
	}

	return record.JoinLine(fields, sep), st, nil
}

func (f *edgeFile) transformJSONL(line string, st spillState, res *resolver) (string, spillState, error) {
	if res.pass == 0 && !record.ValidObject(line) {
		return "", st, fmt.Errorf("not a JSON object")
	}

	resolveField := func(field, defaultCollection string, resolved *bool) error {
		if *resolved {
			return nil
		}
		ref, kind, err := record.JSONGet(line, field)
		if err != nil {
			return err
		}
		if kind != record.JSONString {
			return fmt.Errorf("%s is missing or not a string", field)
		}
		newRef, done, err := res.resolve(ref, defaultCollection)
		if err != nil {
			return err
		}
		if done {
			if line, err = record.JSONSetString(line, field, newRef); err != nil {
				return err
			}
			*resolved = true
		}
		return nil
	}

	if err := resolveField(fromField, f.spec.FromCollection, &st.fromResolved); err != nil {
		return "", st, err
	}
	if err := resolveField(toField, f.spec.ToCollection, &st.toResolved); err != nil {
		return "", st, err
	}

	if st.terminal() && f.opts.WriteKey {
		key, kind, err := record.JSONGet(line, keyField)
		if err != nil {
			return "", st, err
		}
		if kind == record.JSONString && !strings.Contains(key, ":") {
			from, _, _ := record.JSONGet(line, fromField)
			to, _, _ := record.JSONGet(line, toField)
			fromAttr, toAttr := attrOfRef(from), attrOfRef(to)
			if fromAttr != "" && toAttr != "" {
				if line, err = record.JSONSetString(line, keyField, smartkey.EdgeKey(fromAttr, key, toAttr)); err != nil {
					return "", st, err
				}
			}
		}
	}

	return line, st, nil
}

func (f *edgeFile) writeSpill(st spillState, payload string, pass int) error {
	if f.spill == nil {
		w, err := record.CreateLines(f.spillPath(pass + 1))
		if err != nil {
			return err
		}
		f.spill = w
	}
	return f.spill.WriteLine(encodeSpill(st, payload))
}

// finish closes the final output and, unless a suffix keeps the rewritten
// copy alongside, renames it over the input.
func (f *edgeFile) finish() error {
	if f.out == nil {
		return nil
	}
	if err := f.out.Close(); err != nil {
		return err
	}
	f.out = nil
	if f.opts.OutputSuffix != "" {
		return nil
	}
	if err := os.Rename(f.outPath, f.spec.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.spec.Path, err)
	}
	return nil
}

// abort closes any open writers, leaving partial files behind for the caller
// to discard.
func (f *edgeFile) abort() {
	if f.spill != nil {
		_ = f.spill.Close()
		f.spill = nil
	}
	if f.out != nil {
		_ = f.out.Close()
		f.out = nil
	}
}
