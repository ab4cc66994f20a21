package elastic

import (
	"strings"
	"testing"

	"simindex/internal/records"
	"simindex/internal/sink"
)

func docs(n int) []records.Doc {
	out := make([]records.Doc, n)
	for i := range out {
		out[i] = records.Doc{"n": records.Int(int64(i))}
	}
	return out
}

func TestPartitionBulkResponseAllIndexed(t *testing.T) {
	t.Parallel()

	body := `{
		"errors": false,
		"items": [
			{"index": {"status": 201}},
			{"index": {"status": 201}},
			{"index": {"status": 200}}
		]
	}`
	res, err := partitionBulkResponse(strings.NewReader(body), docs(3))
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if res.Indexed != 3 || len(res.Failures) != 0 {
		t.Fatalf("result = %+v; want 3 indexed, 0 failures", res)
	}
}

func TestPartitionBulkResponseMixed(t *testing.T) {
	t.Parallel()

	body := `{
		"errors": true,
		"items": [
			{"index": {"status": 201}},
			{"index": {"status": 400, "error": {"type": "mapper_parsing_exception", "reason": "failed to parse field [DTOBITO]"}}},
			{"index": {"status": 201}}
		]
	}`
	in := docs(3)
	res, err := partitionBulkResponse(strings.NewReader(body), in)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if res.Indexed != 2 || len(res.Failures) != 1 {
		t.Fatalf("result = %+v; want 2 indexed, 1 failure", res)
	}
	f := res.Failures[0]
	if !strings.Contains(f.Reason, "mapper_parsing_exception") {
		t.Fatalf("reason = %q; want the engine's error type", f.Reason)
	}
	// The failure must carry the document paired by position.
	if got := f.Doc["n"].IntVal(); got != 1 {
		t.Fatalf("failure paired with doc n=%d; want 1", got)
	}
	if res.Indexed+len(res.Failures) != len(in) {
		t.Fatalf("indexed+failed = %d; want %d", res.Indexed+len(res.Failures), len(in))
	}
}

func TestPartitionBulkResponseStatusOnlyReason(t *testing.T) {
	t.Parallel()

	body := `{"errors": true, "items": [{"index": {"status": 429}}]}`
	res, err := partitionBulkResponse(strings.NewReader(body), docs(1))
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Reason != "status 429" {
		t.Fatalf("result = %+v; want one failure with reason %q", res, "status 429")
	}
}

func TestPartitionBulkResponseLengthMismatch(t *testing.T) {
	t.Parallel()

	body := `{"errors": false, "items": [{"index": {"status": 201}}]}`
	if _, err := partitionBulkResponse(strings.NewReader(body), docs(2)); err == nil {
		t.Fatal("partition should fail when item count does not match document count")
	}
}

func TestPartitionBulkResponseBadJSON(t *testing.T) {
	t.Parallel()

	if _, err := partitionBulkResponse(strings.NewReader("{not json"), docs(1)); err == nil {
		t.Fatal("partition should fail on malformed response body")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	s, err := New(sink.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.timeout != DefaultTimeout {
		t.Fatalf("timeout = %v; want %v", s.timeout, DefaultTimeout)
	}
}
