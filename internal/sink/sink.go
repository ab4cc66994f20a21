// Package sink defines the contract for the search-engine bulk-write sink
// and a factory registry for its implementations.
//
// The pipeline depends only on this package; the concrete engine client
// lives in a subpackage and registers itself at init time. Tests register
// in-memory fakes the same way.
package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"simindex/internal/records"
)

// Config selects and configures a sink implementation.
type Config struct {
	// Kind selects the registered sink implementation, e.g. "elasticsearch".
	Kind string

	// Addresses are the engine endpoints.
	Addresses []string

	// Timeout bounds the liveness probe and each bulk round-trip. A bulk
	// timeout is escalated as a connectivity failure by the caller.
	Timeout time.Duration
}

// Failure retains one rejected document along with the engine's reason, so
// the run can persist it for offline inspection or retry.
type Failure struct {
	Doc    records.Doc `json:"document"`
	Reason string      `json:"reason"`
}

// BulkResult partitions one bulk submission: Indexed counts accepted
// documents, Failures holds the rejected ones. Indexed + len(Failures)
// always equals the number of documents submitted.
type BulkResult struct {
	Indexed  int
	Failures []Failure
}

// Sink is the minimal surface of the index engine consumed by the pipeline.
// Bulk submission is not transactional; partial success is an expected
// outcome, reported through BulkResult rather than an error.
type Sink interface {
	// Ping probes liveness. A failed ping at process start is fatal.
	Ping(ctx context.Context) error

	// IndexExists reports whether the named index exists.
	IndexExists(ctx context.Context, name string) (bool, error)

	// DeleteIndex removes the named index. Irreversible.
	DeleteIndex(ctx context.Context, name string) error

	// CreateIndex creates the named index with the given mapping body.
	CreateIndex(ctx context.Context, name string, mappingBody []byte) error

	// Bulk submits docs in one round-trip and reports per-document outcomes.
	// The returned error covers transport-level failure only.
	Bulk(ctx context.Context, name string, docs []records.Doc) (BulkResult, error)

	// Close releases the underlying connection resources.
	Close()
}

// Factory constructs a Sink from a Config.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a sink factory for the given kind. It is
// typically called from implementation packages' init() functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New constructs the sink registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no sink registered for kind=%q (known: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered sink kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
