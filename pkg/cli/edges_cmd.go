package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"smartifier/internal/config"
	"smartifier/internal/engine"
	"smartifier/internal/record"
)

func newEdgesCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		typ         string
		separator   string
		quoteChar   string
		edgeSpecs   []string
		vertexSpecs []string
		smartIndex  int
		memory      string
		threads     int
		writeKey    bool
		suffix      string
		jobFile     string
	)

	cmd := &cobra.Command{
		Use:   "edges",
		Short: "Rewrite edge files against smart-rewritten vertex files",
		Long: "Resolves the _from and _to references of edge files to their smart keys. " +
			"The vertex files are scanned into an in-memory lookup table; when the table " +
			"exceeds the memory budget the run is split into multiple passes over " +
			"disjoint key partitions, spilling unresolved edges to disk between passes.",
		Example: `  # Single vertex collection, in-place rewrite
  smartifier edges --edges follows.csv:profiles:profiles --vertices profiles:profiles.smart.csv

  # Two collections, bounded to 512 MiB of table memory, four workers
  smartifier edges --type jsonl --memory 512MiB --threads 4 \
    --edges wrote.jsonl:authors:books \
    --vertices authors:authors.smart.jsonl --vertices books:books.smart.jsonl

  # Key prefix is the smart value; no vertex files needed
  smartifier edges --edges follows.csv:profiles:profiles --smart-index 2

  # Everything from a job file
  smartifier edges --job nightly.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := record.ParseFormat(typ)
			if err != nil {
				return err
			}
			sep, err := config.ParseChar("separator", separator)
			if err != nil {
				return err
			}
			quote, err := config.ParseChar("quote-char", quoteChar)
			if err != nil {
				return err
			}
			mem, err := config.ParseMemory(memory)
			if err != nil {
				return err
			}
			opts := config.EdgeOptions{
				Format:       format,
				CSV:          config.CSVOptions{Separator: sep, Quote: quote},
				SmartIndex:   smartIndex,
				MemoryBytes:  mem,
				Threads:      threads,
				WriteKey:     writeKey,
				OutputSuffix: suffix,
			}
			for _, s := range edgeSpecs {
				e, err := config.ParseEdgeSpec(s)
				if err != nil {
					return err
				}
				opts.Edges = append(opts.Edges, e)
			}
			for _, s := range vertexSpecs {
				v, err := config.ParseVertexSpec(s)
				if err != nil {
					return err
				}
				opts.Vertices = append(opts.Vertices, v)
			}
			if jobFile != "" {
				job, err := config.LoadJob(jobFile)
				if err != nil {
					return err
				}
				if err := job.Apply(&opts, cmd.Flags().Changed); err != nil {
					return err
				}
			}
			return engine.New(opts, logger()).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "csv", "Input format (csv, jsonl)")
	cmd.Flags().StringVar(&separator, "separator", ",", "CSV field separator")
	cmd.Flags().StringVar(&quoteChar, "quote-char", `"`, "CSV quote character")
	cmd.Flags().StringArrayVarP(&edgeSpecs, "edges", "e", nil, "Edge file spec <file>:<fromCollection>:<toCollection>[:<colIndex>:<newName>...] (repeatable)")
	cmd.Flags().StringArrayVarP(&vertexSpecs, "vertices", "v", nil, "Vertex file spec <collection>:<file> (repeatable)")
	cmd.Flags().IntVar(&smartIndex, "smart-index", 0, "Derive the smart value from this many leading key characters instead of vertex files")
	cmd.Flags().StringVarP(&memory, "memory", "m", "1GiB", "Memory budget for the vertex table (e.g. 512MiB)")
	cmd.Flags().IntVar(&threads, "threads", 1, "Number of concurrent edge-file workers")
	cmd.Flags().BoolVar(&writeKey, "write-key", false, "Rewrite edge _key to <fromAttr>:<key>:<toAttr>")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Write output to <input><suffix> instead of replacing the input")
	cmd.Flags().StringVarP(&jobFile, "job", "f", "", "YAML job file; command-line flags override its values")

	return cmd
}
