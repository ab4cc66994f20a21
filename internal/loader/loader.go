// Package loader submits normalized documents to the index sink.
//
// It owns the destructive ensure-index step (delete-then-create) and the
// batched bulk loop. Per-document rejections are collected, not raised:
// partial success is the expected outcome of a bulk submission, and the
// caller decides what to do with the failure set.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"simindex/internal/records"
	"simindex/internal/sink"
)

// DefaultBatchSize is used when the run config leaves the batch size unset.
// Larger batches reduce round-trips but grow per-call memory and the blast
// radius of a failed call.
const DefaultBatchSize = 500

// Outcome aggregates a whole run: Indexed + len(Failures) equals the number
// of documents submitted.
type Outcome struct {
	Indexed  int
	Batches  int64
	Failures []sink.Failure
}

// Loader drives index creation and bulk submission against one sink.
type Loader struct {
	sink      sink.Sink
	batchSize int
	log       *slog.Logger
}

// New builds a Loader. A nil logger disables progress output.
func New(s sink.Sink, batchSize int, log *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{sink: s, batchSize: batchSize, log: log}
}

// EnsureIndex makes the named index exist with exactly the given mapping.
// An existing index of that name is deleted first; this is the documented
// destructive, non-incremental behavior, and it is what makes re-running
// the pipeline idempotent.
func (l *Loader) EnsureIndex(ctx context.Context, name string, mappingBody []byte) error {
	exists, err := l.sink.IndexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		if err := l.sink.DeleteIndex(ctx, name); err != nil {
			return err
		}
		l.log.Info("index deleted for recreation", "index", name)
	}
	if err := l.sink.CreateIndex(ctx, name, mappingBody); err != nil {
		return err
	}
	l.log.Info("index created", "index", name)
	return nil
}

// Run drains documents from in, submits them in batches, and partitions the
// results. It returns the aggregate outcome and the first transport-level
// error; sink-side per-document rejections are never an error.
//
// Cancellation: returns (outcome so far, ctx.Err()) when ctx is done.
func (l *Loader) Run(ctx context.Context, index string, in <-chan records.Doc) (Outcome, error) {
	var (
		out         Outcome
		batch       = make([]records.Doc, 0, l.batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := l.sink.Bulk(ctx, index, batch)
		if err != nil {
			return fmt.Errorf("bulk submit: %w", err)
		}
		out.Indexed += res.Indexed
		out.Failures = append(out.Failures, res.Failures...)

		out.Batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		dps := float64(0)
		if sinceLast > 0 {
			dps = float64(out.Indexed-lastTotal) / sinceLast.Seconds()
		}
		l.log.Info("batch flushed",
			"batch", out.Batches,
			"dps", int64(dps),
			"indexed", res.Indexed,
			"failed", len(res.Failures),
			"total_indexed", out.Indexed,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = out.Indexed

		// Reuse the allocated slice; keep capacity to avoid churn.
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()

		case doc, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return out, err
				}
				l.log.Info("input closed",
					"batches", out.Batches,
					"total_indexed", out.Indexed,
					"total_failed", len(out.Failures),
				)
				return out, nil
			}
			batch = append(batch, doc)
			if len(batch) >= l.batchSize {
				if err := flush(); err != nil {
					return out, err
				}
			}
		}
	}
}

// LoadAll is the slice convenience over Run for callers that already hold
// the full document set in memory.
func (l *Loader) LoadAll(ctx context.Context, index string, docs []records.Doc) (Outcome, error) {
	in := make(chan records.Doc, len(docs))
	for _, d := range docs {
		in <- d
	}
	close(in)
	return l.Run(ctx, index, in)
}
