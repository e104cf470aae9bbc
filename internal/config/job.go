package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"smartifier/internal/record"
)

// Job mirrors the edge-mode flag surface as a YAML document, so large runs
// with many edge files do not need unwieldy command lines. Flags given on the
// command line override job-file values.
type Job struct {
	Type       string `yaml:"type"`      // csv or jsonl
	Separator  string `yaml:"separator"` // single character
	QuoteChar  string `yaml:"quoteChar"` // single character
	Memory     string `yaml:"memory"`    // e.g. "512MiB"
	Threads    int    `yaml:"threads"`
	WriteKey   bool   `yaml:"writeKey"`
	SmartIndex int    `yaml:"smartIndex"`
	Suffix     string `yaml:"suffix"`

	Edges []JobEdge `yaml:"edges"`

	Vertices []struct {
		Collection string `yaml:"collection"`
		File       string `yaml:"file"`
	} `yaml:"vertices"`
}

// JobEdge is one edge-file entry of a job file.
type JobEdge struct {
	File           string `yaml:"file"`
	FromCollection string `yaml:"fromCollection"`
	ToCollection   string `yaml:"toCollection"`
	Renames        []struct {
		Index int    `yaml:"index"`
		Name  string `yaml:"name"`
	} `yaml:"renames"`
}

// LoadJob reads and decodes a YAML job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}
	return &job, nil
}

// Apply copies job-file values into opts, filling only what the command line
// left at its zero/default value as reported by isSet.
func (j *Job) Apply(opts *EdgeOptions, isSet func(flag string) bool) error {
	if j.Type != "" && !isSet("type") {
		f, err := record.ParseFormat(j.Type)
		if err != nil {
			return err
		}
		opts.Format = f
	}
	if j.Separator != "" && !isSet("separator") {
		c, err := ParseChar("separator", j.Separator)
		if err != nil {
			return err
		}
		opts.CSV.Separator = c
	}
	if j.QuoteChar != "" && !isSet("quote-char") {
		c, err := ParseChar("quote-char", j.QuoteChar)
		if err != nil {
			return err
		}
		opts.CSV.Quote = c
	}
	if j.Memory != "" && !isSet("memory") {
		n, err := ParseMemory(j.Memory)
		if err != nil {
			return err
		}
		opts.MemoryBytes = n
	}
	if j.Threads > 0 && !isSet("threads") {
		opts.Threads = j.Threads
	}
	if j.WriteKey && !isSet("write-key") {
		opts.WriteKey = true
	}
	if j.SmartIndex > 0 && !isSet("smart-index") {
		opts.SmartIndex = j.SmartIndex
	}
	if j.Suffix != "" && !isSet("suffix") {
		opts.OutputSuffix = j.Suffix
	}
	for _, e := range j.Edges {
		ef := EdgeFile{Path: e.File, FromCollection: e.FromCollection, ToCollection: e.ToCollection}
		for _, r := range e.Renames {
			ef.Renames = append(ef.Renames, record.Rename{Index: r.Index, Name: r.Name})
		}
		opts.Edges = append(opts.Edges, ef)
	}
	for _, v := range j.Vertices {
		opts.Vertices = append(opts.Vertices, VertexFile{Collection: v.Collection, Path: v.File})
	}
	return nil
}
