package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"simindex/internal/config"
	"simindex/internal/detect"
	"simindex/internal/loader"
	"simindex/internal/mapping"
	"simindex/internal/metrics"
	"simindex/internal/normalizer"
	"simindex/internal/parser"
	csvparser "simindex/internal/parser/csv"
	"simindex/internal/records"
	"simindex/internal/sink"
)

// detectSampleSize is how much of the file feeds charset detection.
const detectSampleSize = 64 * 1024

// summary aggregates the run counters reported to the operator.
type summary struct {
	Read            int
	Skipped         int
	Normalized      int
	Indexed         int
	Failed          int
	FailureArtifact string
}

// Function variables used to introduce test seams. In production these point
// to real implementations; tests can override them.
var newSinkFn = sink.New

// run executes one full indexing run: detect encoding, parse, normalize,
// build the mapping, recreate the index, bulk load, persist failures.
//
// The sink has exactly one writer: the loader drains a bounded channel fed
// by the normalizer goroutine, so back-pressure keeps peak memory around
// O(batchSize + buffer).
func run(ctx context.Context, log *slog.Logger, p config.Pipeline) (summary, error) {
	var sum summary

	// Parse stage (fatal on unreadable input or bad header).
	start := time.Now()
	raws, skipped, err := parseSource(p, log)
	metrics.RecordStep(p.Job, "parse", err, time.Since(start))
	if err != nil {
		return sum, err
	}
	sum.Read = len(raws)
	sum.Skipped = skipped
	metrics.RecordDocs(p.Job, "read", int64(len(raws)))
	metrics.RecordDocs(p.Job, "skipped", int64(skipped))
	if len(raws) == 0 {
		log.Warn("no records to index", "path", p.Source.Path)
		return sum, nil
	}

	rules := p.Normalize
	if p.Mapping.Mode == config.MappingSIM && emptyRules(rules) {
		rules = mapping.SIMRules()
	}
	norm := normalizer.New(rules, log)

	// The mapping is built from the first normalized document; both builders
	// are idempotent, so the choice of sample does not matter beyond its keys.
	sample := norm.Normalize(raws[0])
	m, err := buildMapping(p.Mapping.Mode, sample)
	if err != nil {
		return sum, err
	}
	for _, field := range m.Unmapped(sample) {
		log.Warn("field missing from mapping, engine default inference applies", "field", field)
	}
	body, err := m.Body()
	if err != nil {
		return sum, err
	}

	// Sink connection: a dead sink at startup halts the run here, before any
	// destructive index operation.
	kind := p.Sink.Kind
	if kind == "" {
		kind = "elasticsearch"
	}
	s, err := newSinkFn(ctx, sink.Config{
		Kind:      kind,
		Addresses: p.Sink.Addresses,
		Timeout:   p.Sink.Timeout(),
	})
	if err != nil {
		return sum, err
	}
	defer s.Close()

	start = time.Now()
	err = s.Ping(ctx)
	metrics.RecordStep(p.Job, "ping", err, time.Since(start))
	if err != nil {
		return sum, fmt.Errorf("sink unreachable: %w", err)
	}
	log.Info("connected to sink", "kind", kind)

	ld := loader.New(s, p.Runtime.BatchSize, log)

	start = time.Now()
	err = ld.EnsureIndex(ctx, p.Index.Name, body)
	metrics.RecordStep(p.Job, "ensure_index", err, time.Since(start))
	if err != nil {
		return sum, err
	}

	// Normalize → load. The producer goroutine feeds documents; the loader
	// goroutine is the sink's only writer.
	buffer := p.Runtime.ChannelBuffer
	if buffer <= 0 {
		buffer = 256
	}
	docs := make(chan records.Doc, buffer)

	var out loader.Outcome
	start = time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(docs)
		for _, raw := range raws {
			select {
			case docs <- norm.Normalize(raw):
				sum.Normalized++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		out, err = ld.Run(gctx, p.Index.Name, docs)
		return err
	})
	err = g.Wait()
	metrics.RecordStep(p.Job, "load", err, time.Since(start))
	if err != nil {
		return sum, err
	}

	sum.Indexed = out.Indexed
	sum.Failed = len(out.Failures)
	metrics.RecordDocs(p.Job, "normalized", int64(sum.Normalized))
	metrics.RecordDocs(p.Job, "indexed", int64(sum.Indexed))
	metrics.RecordDocs(p.Job, "failed", int64(sum.Failed))
	metrics.RecordBatches(p.Job, out.Batches)

	if len(out.Failures) > 0 {
		dir := filepath.Dir(p.Source.Path)
		path, err := loader.WriteFailures(dir, p.Index.Name, out.Failures)
		if err != nil {
			// The documents are already indexed or rejected; losing the
			// artifact is reported but does not fail the run.
			log.Error("could not persist failure artifact", "err", err)
		} else {
			sum.FailureArtifact = path
		}
	}

	return sum, nil
}

// parseSource opens the input, resolves its encoding, and parses all rows.
func parseSource(p config.Pipeline, log *slog.Logger) ([]records.Raw, int, error) {
	f, err := os.Open(p.Source.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	charset := p.Source.Encoding
	if charset == "" {
		sample := make([]byte, detectSampleSize)
		n, err := io.ReadFull(f, sample)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, 0, fmt.Errorf("sample source: %w", err)
		}
		charset = detect.Detect(sample[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, 0, fmt.Errorf("rewind source: %w", err)
		}
		log.Debug("detected encoding", "charset", charset)
	}

	var pr parser.Parser = csvparser.NewParser(csvparser.Options{
		Comma:     p.Parser.Options.Rune("comma", ','),
		TrimSpace: p.Parser.Options.Bool("trim_space", true),
		HeaderMap: p.Parser.Options.StringMap("header_map"),
		Logger:    log,
	})
	raws, skipped, err := pr.Parse(detect.NewReader(f, charset))
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(p.Source.Path), err)
	}
	return raws, skipped, nil
}

// buildMapping selects the configured mapping builder.
func buildMapping(mode string, sample records.Doc) (mapping.Mapping, error) {
	switch mode {
	case config.MappingSIM:
		return mapping.SIM().Build(sample)
	case "", config.MappingDynamic:
		return mapping.Dynamic{}.Build(sample)
	}
	return mapping.Mapping{}, fmt.Errorf("unknown mapping mode %q", mode)
}

// emptyRules reports whether no coercion rules were configured at all.
func emptyRules(r normalizer.Rules) bool {
	return len(r.DateFields) == 0 && len(r.IntFields) == 0 &&
		len(r.FloatFields) == 0 && len(r.GeoPrefixes) == 0 &&
		len(r.DateCompanions) == 0
}
