package sink

import (
	"context"
	"testing"

	"simindex/internal/records"
)

type stubSink struct{}

func (stubSink) Ping(context.Context) error                        { return nil }
func (stubSink) IndexExists(context.Context, string) (bool, error) { return false, nil }
func (stubSink) DeleteIndex(context.Context, string) error         { return nil }
func (stubSink) CreateIndex(context.Context, string, []byte) error { return nil }
func (stubSink) Close()                                            {}
func (stubSink) Bulk(_ context.Context, _ string, docs []records.Doc) (BulkResult, error) {
	return BulkResult{Indexed: len(docs)}, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub-a", func(_ context.Context, cfg Config) (Sink, error) {
		return stubSink{}, nil
	})

	s, err := New(context.Background(), Config{Kind: "stub-a"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(stubSink); !ok {
		t.Fatalf("New returned %T; want stubSink", s)
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-sink"})
	if err == nil {
		t.Fatal("New should fail for an unregistered kind")
	}
}

func TestListKindsSorted(t *testing.T) {
	Register("stub-z", func(_ context.Context, cfg Config) (Sink, error) { return stubSink{}, nil })
	Register("stub-b", func(_ context.Context, cfg Config) (Sink, error) { return stubSink{}, nil })

	kinds := ListKinds()
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] > kinds[i] {
			t.Fatalf("kinds not sorted: %v", kinds)
		}
	}
	var sawB, sawZ bool
	for _, k := range kinds {
		if k == "stub-b" {
			sawB = true
		}
		if k == "stub-z" {
			sawZ = true
		}
	}
	if !sawB || !sawZ {
		t.Fatalf("kinds = %v; want stub-b and stub-z present", kinds)
	}
}
