package vertextable

import (
	"context"
	"fmt"

	"smartifier/internal/config"
	"smartifier/internal/record"
	"smartifier/internal/smartkey"
)

// keyField is the record field carrying the vertex key.
const keyField = "_key"

// Stats summarises a sizing scan of the vertex files.
type Stats struct {
	Entries        int64
	EstimatedBytes int64
}

// Builder streams smart-rewritten vertex files. The same builder is used for
// the sizing scan and for materialising one partition per pass; it keeps no
// state between scans, so the whole table is never resident at once.
type Builder struct {
	files  []config.VertexFile
	format record.Format
	csv    config.CSVOptions
}

// NewBuilder creates a builder over the given vertex files.
func NewBuilder(files []config.VertexFile, format record.Format, csv config.CSVOptions) *Builder {
	return &Builder{files: files, format: format, csv: csv}
}

// Size scans all vertex files and returns the entry count and the estimated
// byte size of the full table.
func (b *Builder) Size(ctx context.Context) (Stats, error) {
	var stats Stats
	err := b.scan(ctx, func(collection, originalKey, attribute string) {
		stats.Entries++
		stats.EstimatedBytes += int64(len(collection)+len(originalKey)+len(attribute)) + entryOverhead
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Materialize re-scans the vertex files and builds the table slice for one
// partition, keeping only keys with PartitionOf(key) == partition.
func (b *Builder) Materialize(ctx context.Context, partition, partitions int) (*Table, error) {
	table := NewTable()
	err := b.scan(ctx, func(collection, originalKey, attribute string) {
		if PartitionOf(originalKey, partitions) == partition {
			table.Insert(collection, originalKey, attribute)
		}
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// scan streams every vertex record through visit. Keys that do not decompose
// abort the scan with ErrMalformedVertexKey.
func (b *Builder) scan(ctx context.Context, visit func(collection, originalKey, attribute string)) error {
	for _, vf := range b.files {
		if err := b.scanFile(ctx, vf, visit); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) scanFile(ctx context.Context, vf config.VertexFile, visit func(collection, originalKey, attribute string)) error {
	r, err := record.OpenLines(vf.Path)
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck

	keyPos := -1
	if b.format == record.FormatCSV {
		headerLine, ok := r.Next()
		if !ok {
			if err := r.Err(); err != nil {
				return err
			}
			return fmt.Errorf("vertex file %s is empty", vf.Path)
		}
		header, err := record.ParseHeader(headerLine, b.csv.Separator, b.csv.Quote, nil)
		if err != nil {
			return r.LineErr(err)
		}
		keyPos = header.Pos(keyField)
		if keyPos < 0 {
			return fmt.Errorf("vertex file %s has no %s column", vf.Path, keyField)
		}
	}

	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		if r.Line()%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		key, err := b.extractKey(line, keyPos)
		if err != nil {
			return r.LineErr(err)
		}
		attr, original, err := smartkey.Decompose(key)
		if err != nil {
			return r.LineErr(fmt.Errorf("%w: %v", ErrMalformedVertexKey, err))
		}
		visit(vf.Collection, original, attr)
	}
	return r.Err()
}

func (b *Builder) extractKey(line string, keyPos int) (string, error) {
	if b.format == record.FormatCSV {
		fields, err := record.SplitLine(line, b.csv.Separator, b.csv.Quote)
		if err != nil {
			return "", err
		}
		if keyPos >= len(fields) {
			return "", fmt.Errorf("row has no %s column", keyField)
		}
		return record.Unquote(fields[keyPos], b.csv.Quote), nil
	}

	if !record.ValidObject(line) {
		return "", fmt.Errorf("not a JSON object")
	}
	key, kind, err := record.JSONGet(line, keyField)
	if err != nil {
		return "", err
	}
	if kind != record.JSONString {
		return "", fmt.Errorf("%s is missing or not a string", keyField)
	}
	return key, nil
}
