package ac

import (
	"reflect"
	"sort"
	"testing"
)

func buildAutomaton(t *testing.T, patterns map[string]uint32) *Automaton {
	t.Helper()
	b := NewBuilder()
	for p, id := range patterns {
		b.AddPattern([]byte(p), id)
	}
	nodes, edges, pats, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	return NewAutomaton(nodes, edges, pats)
}

func scanSorted(t *testing.T, a *Automaton, query string) []uint32 {
	t.Helper()
	ids, err := a.Scan([]byte(query), false)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestSinglePattern(t *testing.T) {
	a := buildAutomaton(t, map[string]uint32{"evil": 1})
	got := scanSorted(t, a, "this.is.evil.com")
	if !reflect.DeepEqual(got, []uint32{1}) {
		t.Fatalf("got %v", got)
	}
	if got := scanSorted(t, a, "harmless"); len(got) != 0 {
		t.Fatalf("got %v, want no matches", got)
	}
}

func TestMultiplePatternsOverlapping(t *testing.T) {
	a := buildAutomaton(t, map[string]uint32{
		"he":   1,
		"she":  2,
		"his":  3,
		"hers": 4,
	})
	got := scanSorted(t, a, "ushers")
	want := []uint32{1, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSuffixOutputMerge(t *testing.T) {
	// "ab" is a suffix of "cab"'s match path; a query ending in "ab"
	// only (not "cab") should still find pattern 1 via the shorter
	// pattern's own node, and the failure-output merge must not cause
	// spurious or missing matches when both share a path.
	a := buildAutomaton(t, map[string]uint32{
		"ab":  1,
		"cab": 2,
	})
	got := scanSorted(t, a, "xab")
	if !reflect.DeepEqual(got, []uint32{1}) {
		t.Fatalf("got %v, want [1]", got)
	}
	got = scanSorted(t, a, "xcab")
	want := []uint32{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDenseNodeClassification(t *testing.T) {
	b := NewBuilder()
	// Root needs >8 distinct children to force Dense classification.
	for i, c := range []byte("abcdefghijklmnop") {
		b.AddPattern([]byte{c, 'x'}, uint32(i))
	}
	_, edges, _, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) == 0 {
		t.Fatal("expected a dense table to be written for the 16-way root")
	}
}

func TestCaseInsensitiveScan(t *testing.T) {
	a := buildAutomaton(t, map[string]uint32{"evil": 1})
	ids, err := a.Scan([]byte("EVIL.COM"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestCaseSensitiveScanMisses(t *testing.T) {
	a := buildAutomaton(t, map[string]uint32{"evil": 1})
	ids, err := a.Scan([]byte("EVIL.COM"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("ids = %v, want none (pattern stored lowercase, query not folded)", ids)
	}
}

func TestSharedMetaWordMultiplePatternIDs(t *testing.T) {
	b := NewBuilder()
	b.AddPattern([]byte("evil.com"), 1)
	b.AddPattern([]byte("evil.com"), 2)
	nodes, edges, pats, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	a := NewAutomaton(nodes, edges, pats)
	got := scanSorted(t, a, "x.evil.com")
	if !reflect.DeepEqual(got, []uint32{1, 2}) {
		t.Fatalf("got %v", got)
	}
}

func TestConcatRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AddPattern([]byte("evil.com"), 1)
	b.AddPattern([]byte("cab"), 2)
	b.AddPattern([]byte("ab"), 3)
	nodes, edges, pats, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	section, err := Concat(nodes, edges, pats)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAutomaton(section, section, section)
	got := scanSorted(t, a, "x.evil.com")
	if !reflect.DeepEqual(got, []uint32{1}) {
		t.Fatalf("got %v", got)
	}
	got = scanSorted(t, a, "xcab")
	want := []uint32{2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEmptyAutomaton(t *testing.T) {
	a := buildAutomaton(t, map[string]uint32{})
	got, err := a.Scan([]byte("anything"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
