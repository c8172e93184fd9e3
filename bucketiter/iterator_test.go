package bucketiter

import (
	"context"
	"fmt"
	"testing"

	"github.com/flowstore/streamio/backend/memory"
)

func seedBackend(t *testing.T, ctx context.Context, n int) *memory.Backend {
	t.Helper()
	b := memory.New()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("obj-%03d.txt", i)
		w, err := b.NewWriter(ctx, key, false)
		if err != nil {
			t.Fatalf("NewWriter(%s) failed: %v", key, err)
		}
		if _, err := w.Write([]byte(fmt.Sprintf("payload-%d", i))); err != nil {
			t.Fatalf("Write(%s) failed: %v", key, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close(%s) failed: %v", key, err)
		}
	}
	return b
}

func TestIterateYieldsEveryKeyExactlyOnce(t *testing.T) {
	ctx := context.Background()
	b := seedBackend(t, ctx, 50)
	defer func() { _ = b.Close() }()

	seen := make(map[string]bool)
	for res := range Iterate(ctx, b, "", Options{Workers: 4}) {
		if res.Err != nil {
			t.Fatalf("unexpected per-key error for %s: %v", res.Key, res.Err)
		}
		if seen[res.Key] {
			t.Fatalf("key %s yielded more than once", res.Key)
		}
		seen[res.Key] = true
		if string(res.Data) == "" {
			t.Fatalf("key %s yielded no data", res.Key)
		}
	}

	if len(seen) != 50 {
		t.Fatalf("got %d distinct keys, want 50", len(seen))
	}
}

func TestIterateAcceptKeyFilter(t *testing.T) {
	ctx := context.Background()
	b := seedBackend(t, ctx, 20)
	defer func() { _ = b.Close() }()

	accept := func(key string) bool { return key == "obj-000.txt" || key == "obj-001.txt" }

	count := 0
	for res := range Iterate(ctx, b, "", Options{Workers: 2, AcceptKey: accept}) {
		if !accept(res.Key) {
			t.Fatalf("unexpected key %s passed the filter", res.Key)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("got %d results, want 2", count)
	}
}

func TestIterateKeyLimit(t *testing.T) {
	ctx := context.Background()
	b := seedBackend(t, ctx, 30)
	defer func() { _ = b.Close() }()

	count := 0
	for range Iterate(ctx, b, "", Options{Workers: 4, KeyLimit: 5}) {
		count++
	}
	if count != 5 {
		t.Fatalf("got %d results, want 5 (KeyLimit)", count)
	}
}

func TestIterateEmptyBucket(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	defer func() { _ = b.Close() }()

	count := 0
	for range Iterate(ctx, b, "", Options{}) {
		count++
	}
	if count != 0 {
		t.Fatalf("got %d results, want 0", count)
	}
}

func TestIterateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := seedBackend(t, context.Background(), 100)
	defer func() { _ = b.Close() }()

	ch := Iterate(ctx, b, "", Options{Workers: 2})
	cancel()

	// The channel must still close even though the lister/downloaders
	// observed cancellation mid-stream; draining it must not hang.
	for range ch {
	}
}
