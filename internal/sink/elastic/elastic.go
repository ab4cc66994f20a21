// Package elastic implements the sink contract against Elasticsearch using
// the official Go client.
//
// All engine-specific wire details (NDJSON bulk bodies, status-code
// semantics, response parsing) are contained here so the rest of the
// pipeline stays engine-agnostic.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/zeebo/xxh3"

	"simindex/internal/records"
	"simindex/internal/sink"
)

// Kind is the registry name of this sink implementation.
const Kind = "elasticsearch"

// DefaultTimeout bounds ping and bulk round-trips when the config leaves
// the timeout unset.
const DefaultTimeout = 30 * time.Second

func init() {
	sink.Register(Kind, func(_ context.Context, cfg sink.Config) (sink.Sink, error) {
		return New(cfg)
	})
}

// Sink talks to one Elasticsearch cluster.
type Sink struct {
	es      *elasticsearch.Client
	timeout time.Duration
}

// New builds a Sink from cfg. Construction does not touch the network;
// callers probe with Ping before the first write.
func New(cfg sink.Config) (*Sink, error) {
	addrs := cfg.Addresses
	if len(addrs) == 0 {
		addrs = []string{"http://localhost:9200"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addrs})
	if err != nil {
		return nil, fmt.Errorf("elastic: build client: %w", err)
	}
	return &Sink{es: es, timeout: timeout}, nil
}

// Ping implements sink.Sink.
func (s *Sink) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elastic: ping: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("elastic: ping: %s", res.Status())
	}
	return nil
}

// IndexExists implements sink.Sink.
func (s *Sink) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.es.Indices.Exists([]string{name}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("elastic: index exists %q: %w", name, err)
	}
	defer drain(res)
	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	}
	return false, fmt.Errorf("elastic: index exists %q: %s", name, res.Status())
}

// DeleteIndex implements sink.Sink.
func (s *Sink) DeleteIndex(ctx context.Context, name string) error {
	res, err := s.es.Indices.Delete([]string{name}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elastic: delete index %q: %w", name, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("elastic: delete index %q: %s", name, res.Status())
	}
	return nil
}

// CreateIndex implements sink.Sink.
func (s *Sink) CreateIndex(ctx context.Context, name string, mappingBody []byte) error {
	res, err := s.es.Indices.Create(
		name,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader(mappingBody)),
	)
	if err != nil {
		return fmt.Errorf("elastic: create index %q: %w", name, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("elastic: create index %q: %s: %s", name, res.Status(), bodySnippet(res))
	}
	return nil
}

// Bulk implements sink.Sink. Documents are sent as NDJSON index actions with
// deterministic content-hash IDs; the response is partitioned into accepted
// and rejected documents. An error return means the whole round-trip failed
// (transport or timeout), which callers treat as a connectivity failure.
func (s *Sink) Bulk(ctx context.Context, name string, docs []records.Doc) (sink.BulkResult, error) {
	if len(docs) == 0 {
		return sink.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		src, err := json.Marshal(doc)
		if err != nil {
			// Doc values are a closed variant; a marshal failure here is a bug,
			// not a data condition.
			return sink.BulkResult{}, fmt.Errorf("elastic: encode document: %w", err)
		}
		meta := fmt.Sprintf(`{"index":{"_id":"%016x"}}`, xxh3.Hash(src))
		buf.WriteString(meta)
		buf.WriteByte('\n')
		buf.Write(src)
		buf.WriteByte('\n')
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.es.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.es.Bulk.WithContext(ctx),
		s.es.Bulk.WithIndex(name),
	)
	if err != nil {
		return sink.BulkResult{}, fmt.Errorf("elastic: bulk: %w", err)
	}
	defer drain(res)
	if res.IsError() {
		return sink.BulkResult{}, fmt.Errorf("elastic: bulk: %s: %s", res.Status(), bodySnippet(res))
	}

	return partitionBulkResponse(res.Body, docs)
}

// Close implements sink.Sink. The underlying transport keeps no resources
// that outlive its idle connections, so there is nothing to tear down.
func (s *Sink) Close() {}

// bulkResponse mirrors the engine's bulk reply shape, reduced to the fields
// needed for partitioning.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// partitionBulkResponse splits the per-item outcomes into indexed count and
// failures, pairing each item with its submitted document by position.
func partitionBulkResponse(body io.Reader, docs []records.Doc) (sink.BulkResult, error) {
	var resp bulkResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return sink.BulkResult{}, fmt.Errorf("elastic: decode bulk response: %w", err)
	}
	if len(resp.Items) != len(docs) {
		return sink.BulkResult{}, fmt.Errorf("elastic: bulk response has %d items for %d documents", len(resp.Items), len(docs))
	}

	var out sink.BulkResult
	for i, item := range resp.Items {
		// Each item is keyed by its action name ("index" here).
		var failed bool
		var reason string
		for _, st := range item {
			if st.Status >= 300 {
				failed = true
				reason = fmt.Sprintf("status %d", st.Status)
				if st.Error != nil {
					reason = fmt.Sprintf("%s: %s", st.Error.Type, st.Error.Reason)
				}
			}
		}
		if failed {
			out.Failures = append(out.Failures, sink.Failure{Doc: docs[i], Reason: reason})
		} else {
			out.Indexed++
		}
	}
	return out, nil
}

// drain fully consumes and closes a response body so the transport can reuse
// the connection.
func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}

// bodySnippet reads a short prefix of an error response body for messages.
func bodySnippet(res *esapi.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return string(bytes.TrimSpace(b))
}
