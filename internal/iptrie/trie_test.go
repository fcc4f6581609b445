package iptrie

import (
	"net/netip"
	"testing"
)

func buildAndRead(t *testing.T, recordSize uint, ipVersion int, entries []CIDREntry) *Reader {
	t.Helper()
	b, err := NewBuilder(recordSize, ipVersion)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Insert(entries); err != nil {
		t.Fatal(err)
	}
	buf, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(buf, uint32(b.NodeCount()), recordSize, ipVersion)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSingleIPv4Host(t *testing.T) {
	p := netip.MustParsePrefix("192.0.2.1/32")
	r := buildAndRead(t, 28, 6, []CIDREntry{{Prefix: p, DataOffset: 100}})

	off, prefixLen, found, err := r.Lookup(netip.MustParseAddr("192.0.2.1"))
	if err != nil || !found {
		t.Fatalf("Lookup: off=%d found=%v err=%v", off, found, err)
	}
	if off != 100 {
		t.Fatalf("off = %d, want 100", off)
	}
	if prefixLen != 128 {
		t.Fatalf("prefixLen = %d, want 128 (96 + 32)", prefixLen)
	}
}

func TestLongestPrefixMatch(t *testing.T) {
	entries := []CIDREntry{
		{Prefix: netip.MustParsePrefix("10.0.0.0/8"), DataOffset: 1},
		{Prefix: netip.MustParsePrefix("10.1.2.3/32"), DataOffset: 2},
	}
	r := buildAndRead(t, 28, 6, entries)

	off, _, found, err := r.Lookup(netip.MustParseAddr("10.1.2.3"))
	if err != nil || !found || off != 2 {
		t.Fatalf("specific host: off=%d found=%v err=%v, want 2", off, found, err)
	}

	off, _, found, err = r.Lookup(netip.MustParseAddr("10.9.9.9"))
	if err != nil || !found || off != 1 {
		t.Fatalf("other host in /8: off=%d found=%v err=%v, want 1", off, found, err)
	}
}

func TestLongestPrefixOrderIndependence(t *testing.T) {
	// Insert the more specific network first; the subdivision logic
	// must still preserve the less specific network's data everywhere
	// the more specific one doesn't apply.
	entries := []CIDREntry{
		{Prefix: netip.MustParsePrefix("10.1.2.3/32"), DataOffset: 2},
		{Prefix: netip.MustParsePrefix("10.0.0.0/8"), DataOffset: 1},
	}
	r := buildAndRead(t, 28, 6, entries)

	off, _, found, _ := r.Lookup(netip.MustParseAddr("10.1.2.3"))
	if !found || off != 2 {
		t.Fatalf("off = %d, found=%v; want 2, true", off, found)
	}
	off, _, found, _ = r.Lookup(netip.MustParseAddr("10.9.9.9"))
	if !found || off != 1 {
		t.Fatalf("off = %d, found=%v; want 1, true", off, found)
	}
}

func TestNotFound(t *testing.T) {
	r := buildAndRead(t, 28, 6, []CIDREntry{{Prefix: netip.MustParsePrefix("192.0.2.0/24"), DataOffset: 5}})
	_, _, found, err := r.Lookup(netip.MustParseAddr("203.0.113.1"))
	if err != nil || found {
		t.Fatalf("found=%v err=%v; want not found", found, err)
	}
}

func TestRecordSizes(t *testing.T) {
	for _, rs := range []uint{24, 28, 32} {
		entries := []CIDREntry{
			{Prefix: netip.MustParsePrefix("172.16.0.0/12"), DataOffset: 7},
			{Prefix: netip.MustParsePrefix("172.16.5.5/32"), DataOffset: 9},
		}
		r := buildAndRead(t, rs, 6, entries)
		off, _, found, err := r.Lookup(netip.MustParseAddr("172.16.5.5"))
		if err != nil || !found || off != 9 {
			t.Fatalf("record_size=%d: off=%d found=%v err=%v", rs, off, found, err)
		}
		off, _, found, err = r.Lookup(netip.MustParseAddr("172.16.9.9"))
		if err != nil || !found || off != 7 {
			t.Fatalf("record_size=%d: off=%d found=%v err=%v", rs, off, found, err)
		}
	}
}

func TestIPv6(t *testing.T) {
	entries := []CIDREntry{
		{Prefix: netip.MustParsePrefix("2001:db8::/32"), DataOffset: 3},
	}
	r := buildAndRead(t, 28, 6, entries)
	off, _, found, err := r.Lookup(netip.MustParseAddr("2001:db8::1"))
	if err != nil || !found || off != 3 {
		t.Fatalf("off=%d found=%v err=%v", off, found, err)
	}
}

func TestMaxDepthPrefixes(t *testing.T) {
	entries := []CIDREntry{
		{Prefix: netip.MustParsePrefix("192.0.2.1/32"), DataOffset: 1},
		{Prefix: netip.MustParsePrefix("2001:db8::1/128"), DataOffset: 2},
	}
	r := buildAndRead(t, 28, 6, entries)

	if off, _, found, err := r.Lookup(netip.MustParseAddr("192.0.2.1")); err != nil || !found || off != 1 {
		t.Fatalf("/32: off=%d found=%v err=%v", off, found, err)
	}
	if off, _, found, err := r.Lookup(netip.MustParseAddr("2001:db8::1")); err != nil || !found || off != 2 {
		t.Fatalf("/128: off=%d found=%v err=%v", off, found, err)
	}
}

func TestIPv4OnlyDatabaseRejectsIPv6(t *testing.T) {
	r := buildAndRead(t, 28, 4, []CIDREntry{{Prefix: netip.MustParsePrefix("192.0.2.0/24"), DataOffset: 1}})
	_, _, _, err := r.Lookup(netip.MustParseAddr("2001:db8::1"))
	if err != ErrIPv6InIPv4Only {
		t.Fatalf("err = %v; want ErrIPv6InIPv4Only", err)
	}
}
