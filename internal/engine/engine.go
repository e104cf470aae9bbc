// Package engine implements the edge-rewriting core: a bounded-memory,
// multi-pass resolution of edge endpoint references against the smart-vertex
// key table, with distinct edge files processed by concurrent workers.
//
// A run is a small state machine: a sizing scan of the vertex files decides
// the partition count, then one pass per partition materialises that
// partition's slice of the table and drains every edge file against it.
// Records whose endpoints all resolve (or need no resolution) leave through
// the final output; the rest spill forward with explicit per-endpoint flags.
// After the last pass nothing may remain spilled. When the smart attribute is
// a literal key prefix (--smart-index), the table and the extra passes are
// skipped entirely.
package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartifier/internal/config"
	"smartifier/internal/vertextable"
)

// Engine drives one edge-mode run.
type Engine struct {
	opts   config.EdgeOptions
	logger *slog.Logger
}

// New creates an engine. A nil logger discards all output.
func New(opts config.EdgeOptions, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, logger: logger}
}

// Run executes the full pass sequence. Any error aborts the run; partial
// outputs and spill files are left for the caller to discard.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.opts.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()[:8]
	logger := e.logger.With("run", runID)

	partitions := 1
	var builder *vertextable.Builder
	if e.opts.SmartIndex > 0 {
		logger.Info("using direct key index, skipping vertex table", "smartIndex", e.opts.SmartIndex)
	} else {
		builder = vertextable.NewBuilder(e.opts.Vertices, e.opts.Format, e.opts.CSV)
		stats, err := builder.Size(ctx)
		if err != nil {
			return err
		}
		partitions = vertextable.Plan(stats.EstimatedBytes, e.opts.MemoryBytes)
		logger.Info("planned vertex table",
			"entries", stats.Entries,
			"estimatedBytes", stats.EstimatedBytes,
			"memoryBudget", e.opts.MemoryBytes,
			"partitions", partitions,
			"threads", e.opts.Threads)
	}

	files := make([]*edgeFile, len(e.opts.Edges))
	for i, spec := range e.opts.Edges {
		files[i] = newEdgeFile(spec, &e.opts, logger, runID)
	}
	workers := min(e.opts.Threads, len(files))

	for pass := 0; pass < partitions; pass++ {
		var table *vertextable.Table
		if builder != nil {
			t, err := builder.Materialize(ctx, pass, partitions)
			if err != nil {
				abortAll(files)
				return err
			}
			table = t
			logger.Info("partition resident", "pass", pass, "entries", table.Len())
		}
		res := &resolver{
			smartIndex: e.opts.SmartIndex,
			table:      table,
			pass:       pass,
			partitions: partitions,
		}

		// One errgroup per pass: Wait is the barrier that quiesces every
		// worker before the resident partition is replaced. File ownership
		// is static round-robin, so a file sees the same worker each pass.
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			w := w
			g.Go(func() error {
				for i := w; i < len(files); i += workers {
					if err := files[i].runPass(gctx, res); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			abortAll(files)
			return err
		}
	}

	var emitted int64
	for _, f := range files {
		if err := f.finish(); err != nil {
			abortAll(files)
			return err
		}
		emitted += f.emitted
	}
	logger.Info("edge transformation complete", "files", len(files), "records", emitted)
	return nil
}

func abortAll(files []*edgeFile) {
	for _, f := range files {
		f.abort()
	}
}
