package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/id"
	"github.com/xraph/txledger/operation"
)

// DefaultBuffer is the default number of decoded operations queued ahead
// of the engine.
const DefaultBuffer = 256

// Report summarizes one pipeline run.
type Report struct {
	RunID    id.RunID                   `json:"run_id"`
	Applied  map[operation.Kind]int     `json:"applied"`
	Rejected map[txledger.ErrorKind]int `json:"rejected"`
	Skipped  int                        `json:"skipped"`
	Elapsed  time.Duration              `json:"elapsed"`
}

// TotalApplied returns the number of operations the engine accepted.
func (r Report) TotalApplied() int {
	n := 0
	for _, c := range r.Applied {
		n += c
	}
	return n
}

// TotalRejected returns the number of operations the engine rejected.
func (r Report) TotalRejected() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// LogAttrs renders the report as slog attributes.
func (r Report) LogAttrs() []any {
	attrs := []any{
		"run_id", r.RunID.String(),
		"applied", r.TotalApplied(),
		"rejected", r.TotalRejected(),
		"skipped", r.Skipped,
		"elapsed", r.Elapsed,
	}
	for _, k := range txledger.ErrorKinds {
		if n := r.Rejected[k]; n > 0 {
			attrs = append(attrs, "rejected_"+k.String(), n)
		}
	}
	return attrs
}

// Pipeline decodes CSV on one goroutine and applies the operations in
// input order on another.
type Pipeline struct {
	ledger *txledger.Ledger
	logger *slog.Logger
	buffer int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithBuffer sets how many decoded operations may wait for the engine.
func WithBuffer(n int) PipelineOption {
	return func(p *Pipeline) {
		if n >= 0 {
			p.buffer = n
		}
	}
}

// NewPipeline creates a pipeline feeding l.
func NewPipeline(l *txledger.Ledger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ledger: l,
		logger: slog.Default(),
		buffer: DefaultBuffer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads every row from r and applies it. Skipped rows and rejected
// operations are counted, not returned. Run stops on a read failure, a
// store failure or cancellation of ctx; the report covers the work done
// up to that point.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Report, error) {
	start := time.Now()
	report := Report{
		RunID:    id.NewRunID(),
		Applied:  make(map[operation.Kind]int),
		Rejected: make(map[txledger.ErrorKind]int),
	}
	logger := p.logger.With("run_id", report.RunID.String())
	logger.Debug("ingest started", "buffer", p.buffer)

	g, gctx := errgroup.WithContext(ctx)
	ops := make(chan operation.Operation, p.buffer)

	var skipped int
	g.Go(func() error {
		defer close(ops)

		dec := NewDecoder(r)
		for {
			op, err := dec.Decode()
			if errors.Is(err, io.EOF) {
				return nil
			}
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				skipped++
				logger.Warn("skipping row", "line", rowErr.Line, "error", rowErr.Err)
				continue
			}
			if err != nil {
				return err
			}

			select {
			case ops <- op:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for op := range ops {
			err := p.ledger.Apply(gctx, op)
			if err == nil {
				report.Applied[op.Kind()]++
				continue
			}
			if kind, ok := txledger.KindOf(err); ok {
				report.Rejected[kind]++
				continue
			}
			return fmt.Errorf("ingest: apply %s: %w", op, err)
		}
		return nil
	})

	err := g.Wait()
	report.Skipped = skipped
	report.Elapsed = time.Since(start)

	if err != nil {
		logger.Error("ingest failed", append(report.LogAttrs(), "error", err)...)
		return report, err
	}

	logger.Info("ingest finished", report.LogAttrs()...)
	return report, nil
}
