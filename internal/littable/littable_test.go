package littable

import (
	"fmt"
	"testing"
)

func buildTable(t *testing.T, caseInsensitive bool, entries map[string]int) *Reader {
	t.Helper()
	b := NewBuilder(caseInsensitive)
	for k, v := range entries {
		if err := b.Insert(k, v); err != nil {
			t.Fatal(err)
		}
	}
	buckets, blob, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(buckets, blob)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRoundTrip(t *testing.T) {
	r := buildTable(t, false, map[string]int{
		"evil.com":          10,
		"good.org":          20,
		"127.0.0.1 generic": 30,
	})
	for key, want := range map[string]int{"evil.com": 10, "good.org": 20, "127.0.0.1 generic": 30} {
		off, found := r.Lookup([]byte(key))
		if !found || off != want {
			t.Fatalf("Lookup(%q) = %d, %v; want %d, true", key, off, found, want)
		}
	}
}

func TestMiss(t *testing.T) {
	r := buildTable(t, false, map[string]int{"present": 1})
	if _, found := r.Lookup([]byte("absent")); found {
		t.Fatal("expected miss")
	}
}

func TestEmptyTable(t *testing.T) {
	r := buildTable(t, false, map[string]int{})
	if _, found := r.Lookup([]byte("anything")); found {
		t.Fatal("empty table should never match")
	}
}

func TestCaseInsensitiveLookupRequiresFoldedQuery(t *testing.T) {
	r := buildTable(t, true, map[string]int{"Evil.COM": 5})
	// The table stores the folded key; Lookup does no folding itself
	// (callers fold before calling, per the facade's match-mode logic).
	if _, found := r.Lookup([]byte("Evil.COM")); found {
		t.Fatal("raw mixed-case query should miss against a folded-key table")
	}
	off, found := r.Lookup([]byte("evil.com"))
	if !found || off != 5 {
		t.Fatalf("Lookup(folded) = %d, %v; want 5, true", off, found)
	}
}

func TestCaseInsensitiveDeduplication(t *testing.T) {
	b := NewBuilder(true)
	if err := b.Insert("Foo", 1); err != nil {
		t.Fatal(err)
	}
	if err := b.Insert("FOO", 2); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (case-equivalent keys must dedupe)", b.Len())
	}
	buckets, blob, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(buckets, blob)
	if err != nil {
		t.Fatal(err)
	}
	off, found := r.Lookup([]byte("foo"))
	if !found || off != 2 {
		t.Fatalf("off=%d found=%v; want 2, true (last insert wins)", off, found)
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	b := NewBuilder(false)
	if err := b.Insert("", 1); err != ErrEmptyKey {
		t.Fatalf("err = %v; want ErrEmptyKey", err)
	}
}

func TestLoadFactorExactly0Point7(t *testing.T) {
	// Pick a key count that drives the bucket sizing right to the
	// 0.7 target (89 keys -> 128 buckets, load ~0.695; one more key
	// would double the table), then confirm every key is still reachable.
	n := 89
	entries := make(map[string]int, n)
	for i := 0; i < n; i++ {
		entries[fmt.Sprintf("key-%03d", i)] = i
	}
	r := buildTable(t, false, entries)
	if float64(n)/float64(r.BucketCount()) > TargetLoadFactor+0.01 {
		t.Fatalf("load factor %f exceeds target %f", float64(n)/float64(r.BucketCount()), TargetLoadFactor)
	}
	for k, want := range entries {
		off, found := r.Lookup([]byte(k))
		if !found || off != want {
			t.Fatalf("Lookup(%q) = %d, %v; want %d, true", k, off, found, want)
		}
	}
}

func TestManyCollidingKeysAllReachable(t *testing.T) {
	n := 500
	entries := make(map[string]int, n)
	for i := 0; i < n; i++ {
		entries[fmt.Sprintf("literal-key-number-%d.example", i)] = i * 7
	}
	r := buildTable(t, false, entries)
	for k, want := range entries {
		off, found := r.Lookup([]byte(k))
		if !found || off != want {
			t.Fatalf("Lookup(%q) = %d, %v; want %d, true", k, off, found, want)
		}
	}
}

func TestHashDistinguishesDifferentKeys(t *testing.T) {
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Fatal("trivially distinct one-byte keys hashed identically")
	}
	if HashString("same") != Hash([]byte("same")) {
		t.Fatal("HashString and Hash disagree")
	}
}
