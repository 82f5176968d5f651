package embedservice

import "testing"

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	v := []float32{0.5, -0.25, 1.0, 0}
	data := encodeVector(v)
	got, ok := decodeVector(data)
	if !ok {
		t.Fatal("decodeVector() ok = false")
	}
	if len(got) != len(v) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(v))
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], v[i])
		}
	}
}

func TestCachePutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := newCache(dir)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	key := digestKey("hello world", "word-average-300")
	if _, ok := c.get(key); ok {
		t.Fatal("expected miss before put")
	}
	v := []float32{1, 2, 3}
	if err := c.put(key, v); err != nil {
		t.Fatalf("put() error: %v", err)
	}
	got, ok := c.get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
}

func TestCacheDigestDeterministic(t *testing.T) {
	a := digestKey("same text", "tag-300")
	b := digestKey("same text", "tag-300")
	if a != b {
		t.Fatal("digestKey should be deterministic for identical inputs")
	}
	c := digestKey("same text", "tag-384")
	if a == c {
		t.Fatal("digestKey should differ across provider tags")
	}
}

func TestCacheClearResetsStats(t *testing.T) {
	dir := t.TempDir()
	c, err := newCache(dir)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	key := digestKey("x", "tag")
	c.put(key, []float32{1})
	c.get(key)
	if err := c.clear(); err != nil {
		t.Fatalf("clear() error: %v", err)
	}
	total, hits, misses := c.stats()
	if total != 0 || hits != 0 || misses != 0 {
		t.Fatalf("expected cleared stats, got total=%d hits=%d misses=%d", total, hits, misses)
	}
}
