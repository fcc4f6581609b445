package format

import (
	"net/netip"
	"testing"

	"github.com/sethhall/matchy/internal/ac"
	"github.com/sethhall/matchy/internal/iptrie"
	"github.com/sethhall/matchy/internal/littable"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

func buildTrieAndData(t *testing.T) ([]byte, []byte, mmdbdata.Metadata) {
	t.Helper()

	enc := mmdbdata.NewEncoder()
	off, err := enc.Put(mmdbdata.Map([]mmdbdata.Entry{{Key: "tag", Value: mmdbdata.String("blocked")}}))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	tb, err := iptrie.NewBuilder(24, 6)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	prefix := netip.MustParsePrefix("203.0.113.0/24")
	if err := tb.Insert([]iptrie.CIDREntry{{Prefix: prefix, DataOffset: off}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	trieBytes, err := tb.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	meta := mmdbdata.Metadata{
		BinaryFormatMajorVersion: 2,
		BinaryFormatMinorVersion: 0,
		DatabaseType:             "matchy-test",
		Description:              map[string]string{"en": "test database"},
		IPVersion:                6,
		Languages:                []string{"en"},
		NodeCount:                uint32(tb.NodeCount()),
		RecordSize:               24,
		MatchMode:                "case_sensitive",
		MatchyFormatVersion:      1,
	}
	return trieBytes, enc.Bytes(), meta
}

func TestRoundTripNoExtension(t *testing.T) {
	trieBytes, dataBytes, meta := buildTrieAndData(t)

	file, err := AssembleFile(trieBytes, dataBytes, meta, nil)
	if err != nil {
		t.Fatalf("AssembleFile: %v", err)
	}

	layout, gotMeta, err := ParseLayout(file, true)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if layout.HasExtension {
		t.Fatalf("HasExtension = true, want false")
	}
	if layout.TrieLen != len(trieBytes) {
		t.Errorf("TrieLen = %d, want %d", layout.TrieLen, len(trieBytes))
	}
	if layout.DataLen != len(dataBytes) {
		t.Errorf("DataLen = %d, want %d", layout.DataLen, len(dataBytes))
	}
	if got := layout.DataBytes(file); string(got) != string(dataBytes) {
		t.Errorf("DataBytes mismatch")
	}
	if gotMeta.DatabaseType != meta.DatabaseType {
		t.Errorf("DatabaseType = %q, want %q", gotMeta.DatabaseType, meta.DatabaseType)
	}
	if gotMeta.NodeCount != meta.NodeCount {
		t.Errorf("NodeCount = %d, want %d", gotMeta.NodeCount, meta.NodeCount)
	}
	if layout.ExtensionEnd != layout.MetadataEnd {
		t.Errorf("ExtensionEnd = %d, want %d (== MetadataEnd, no extension)", layout.ExtensionEnd, layout.MetadataEnd)
	}
}

func TestRoundTripWithExtension(t *testing.T) {
	trieBytes, dataBytes, meta := buildTrieAndData(t)
	meta.MatchMode = "case_insensitive"

	litBuilder := littable.NewBuilder(false)
	if err := litBuilder.Insert("evil.example.com", 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	buckets, keyBlob, err := litBuilder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	acBuilder := ac.NewBuilder()
	acBuilder.AddPattern([]byte("evil"), 0)
	acNodes, acEdges, acPatterns, err := acBuilder.Serialize()
	if err != nil {
		t.Fatalf("ac Serialize: %v", err)
	}
	acSection, err := ac.Concat(acNodes, acEdges, acPatterns)
	if err != nil {
		t.Fatalf("ac.Concat: %v", err)
	}

	ext := &ExtensionParts{
		ACNodeCount:        acBuilder.NodeCount(),
		LiteralBuckets:     buckets,
		LiteralBlob:        keyBlob,
		ACSection:          acSection,
		PatternDataOffsets: []uint32{7},
		PatternTexts:       []string{"ev*l"},
	}

	file, err := AssembleFile(trieBytes, dataBytes, meta, ext)
	if err != nil {
		t.Fatalf("AssembleFile: %v", err)
	}

	layout, gotMeta, err := ParseLayout(file, true)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if !layout.HasExtension {
		t.Fatalf("HasExtension = false, want true")
	}
	if gotMeta.MatchMode != "case_insensitive" {
		t.Errorf("MatchMode = %q, want case_insensitive", gotMeta.MatchMode)
	}
	if layout.LiteralBucketsLen != len(buckets) {
		t.Errorf("LiteralBucketsLen = %d, want %d", layout.LiteralBucketsLen, len(buckets))
	}
	if got := layout.LiteralBuckets(file); string(got) != string(buckets) {
		t.Errorf("LiteralBuckets bytes mismatch")
	}
	if got := layout.LiteralBlob(file); string(got) != string(keyBlob) {
		t.Errorf("LiteralBlob bytes mismatch")
	}
	if got := layout.ACSection(file); string(got) != string(acSection) {
		t.Errorf("ACSection bytes mismatch")
	}
	if layout.PatternMapLen != 4 {
		t.Errorf("PatternMapLen = %d, want 4", layout.PatternMapLen)
	}
	text, err := layout.PatternText(file, 0)
	if err != nil {
		t.Fatalf("PatternText: %v", err)
	}
	if string(text) != "ev*l" {
		t.Errorf("PatternText(0) = %q, want %q", text, "ev*l")
	}
	if layout.ExtensionEnd != len(file) {
		t.Errorf("ExtensionEnd = %d, want %d (end of file)", layout.ExtensionEnd, len(file))
	}

	reader, err := littable.NewReader(layout.LiteralBuckets(file), layout.LiteralBlob(file))
	if err != nil {
		t.Fatalf("littable.NewReader: %v", err)
	}
	if _, found := reader.Lookup([]byte("evil.example.com")); !found {
		t.Errorf("Lookup(evil.example.com) not found after round trip")
	}
}

func TestParseLayoutNoMarker(t *testing.T) {
	_, _, err := ParseLayout([]byte("not a database"), true)
	if err != ErrNoMetadataMarker {
		t.Errorf("err = %v, want ErrNoMetadataMarker", err)
	}
}

func TestParseLayoutTruncatedAfterMarker(t *testing.T) {
	buf := append([]byte{}, mmdbdata.MetadataMarker...)
	_, _, err := ParseLayout(buf, true)
	if err == nil {
		t.Fatalf("expected an error decoding a truncated metadata section")
	}
}

func TestDecodeExtensionHeaderBadMagic(t *testing.T) {
	buf := make([]byte, ExtensionHeaderSize)
	copy(buf, "NOTMAGIC")
	_, err := DecodeExtensionHeader(buf)
	if err != ErrBadExtensionMagic {
		t.Errorf("err = %v, want ErrBadExtensionMagic", err)
	}
}
