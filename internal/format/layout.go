// Package format glues together the on-disk sections described in
// spec §6.1: IP trie, 16-byte separator, MMDB data section, MMDB
// metadata marker and map, and the optional PARAGLOB extension
// (literal table, key blob, AC automaton, pattern metadata, pattern-id
// map). It's the
// shared layer both the builder (writer) and the facade/validator
// (readers) use so the two sides never disagree about section
// boundaries.
//
// Grounded on the maxminddb-golang reader's marker-search-then-compute
// approach: locate the metadata marker, decode the metadata map, then
// derive every other section's bounds arithmetically from node_count,
// record_size, and (if present) the PARAGLOB header's lengths.
package format

import (
	"bytes"
	"encoding/binary"

	"github.com/sethhall/matchy/internal/conv"
	"github.com/sethhall/matchy/internal/littable"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

// metadataValueOffset is the offset of the root metadata map within its
// own dedicated encoder's buffer. AssembleFile always encodes metadata
// with a fresh mmdbdata.Encoder and exactly one Put call, and a fresh
// Encoder always reserves exactly one byte (offset 0) before writing
// anything, so the map always lands at offset 1.
const metadataValueOffset = 1

// Layout is the parsed set of section boundaries for one database
// image. All *Start/*Len pairs are byte offsets/lengths into the
// original buffer passed to ParseLayout.
type Layout struct {
	TrieLen   int
	DataStart int
	DataLen   int

	MetadataStart int // offset of the 14-byte marker
	MetadataEnd   int // first byte after the metadata map

	HasExtension bool
	ExtHeader    ExtensionHeader

	LiteralBucketsStart int
	LiteralBucketsLen   int
	LiteralBlobStart    int
	LiteralBlobLen      int
	ACSectionStart      int
	ACSectionLen        int

	// PatternMeta is the fixed-width (text_offset u32, text_len u32)
	// table, one entry per pattern_id, pointing into PatternTextBlob.
	PatternMetaStart int
	PatternMetaLen   int
	// PatternTextBlob holds the original glob source text for every
	// registered glob pattern, referenced by PatternMeta entries. Read
	// at query time to re-verify an AC candidate's wildcard structure
	// against the query string (spec §4.3's "full-engine verify").
	PatternTextBlobStart int
	PatternTextBlobLen   int

	PatternMapStart int
	PatternMapLen   int

	// UniversalPatternIDs lists pattern_ids that matched no meta-word at
	// all (e.g. the bare glob `*`) and so never produce an AC candidate;
	// a query-time verifier must check these unconditionally instead.
	UniversalPatternIDsStart int
	UniversalPatternIDsLen   int

	ExtensionEnd int
}

// TrieBytes, DataBytes etc. are convenience slicers over buf given an
// already-parsed Layout.
func (l Layout) TrieBytes(buf []byte) []byte { return buf[0:l.TrieLen] }
func (l Layout) DataBytes(buf []byte) []byte { return buf[l.DataStart : l.DataStart+l.DataLen] }

func (l Layout) LiteralBuckets(buf []byte) []byte {
	return buf[l.LiteralBucketsStart : l.LiteralBucketsStart+l.LiteralBucketsLen]
}
func (l Layout) LiteralBlob(buf []byte) []byte {
	return buf[l.LiteralBlobStart : l.LiteralBlobStart+l.LiteralBlobLen]
}
func (l Layout) ACSection(buf []byte) []byte {
	return buf[l.ACSectionStart : l.ACSectionStart+l.ACSectionLen]
}
func (l Layout) PatternMeta(buf []byte) []byte {
	return buf[l.PatternMetaStart : l.PatternMetaStart+l.PatternMetaLen]
}
func (l Layout) PatternTextBlob(buf []byte) []byte {
	return buf[l.PatternTextBlobStart : l.PatternTextBlobStart+l.PatternTextBlobLen]
}
func (l Layout) PatternMap(buf []byte) []byte {
	return buf[l.PatternMapStart : l.PatternMapStart+l.PatternMapLen]
}
func (l Layout) UniversalPatternIDs(buf []byte) []byte {
	return buf[l.UniversalPatternIDsStart : l.UniversalPatternIDsStart+l.UniversalPatternIDsLen]
}

// PatternText returns the glob source text for patternID, as recorded
// by the builder in the pattern-metadata section.
func (l Layout) PatternText(buf []byte, patternID uint32) ([]byte, error) {
	meta := l.PatternMeta(buf)
	entryOff := int(patternID) * 8
	if entryOff+8 > len(meta) {
		return nil, ErrLayoutOutOfBounds
	}
	textOff := int(binary.LittleEndian.Uint32(meta[entryOff : entryOff+4]))
	textLen := int(binary.LittleEndian.Uint32(meta[entryOff+4 : entryOff+8]))
	blob := l.PatternTextBlob(buf)
	if textOff < 0 || textLen < 0 || textOff+textLen > len(blob) {
		return nil, ErrLayoutOutOfBounds
	}
	return blob[textOff : textOff+textLen], nil
}

// PatternDataOffset returns the payload data-section offset recorded
// for patternID in the pattern-to-payload map (spec §6.1 item 6).
func (l Layout) PatternDataOffset(buf []byte, patternID uint32) (int, error) {
	m := l.PatternMap(buf)
	off := int(patternID) * 4
	if off+4 > len(m) {
		return 0, ErrLayoutOutOfBounds
	}
	return int(binary.LittleEndian.Uint32(m[off : off+4])), nil
}

// UniversalIDs decodes the flat pattern_id array recorded for globs
// with no meta-word at all (spec §4.1 step 5a, resolution 5).
func (l Layout) UniversalIDs(buf []byte) []uint32 {
	raw := l.UniversalPatternIDs(buf)
	ids := make([]uint32, len(raw)/4)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return ids
}

// ParseLayout locates every section within buf and decodes the
// metadata map. checkUTF8 controls whether the metadata decode
// enforces valid UTF-8 on string fields (Standard validation does;
// trusted-mode opens skip it).
func ParseLayout(buf []byte, checkUTF8 bool) (Layout, mmdbdata.Metadata, error) {
	marker := bytes.LastIndex(buf, mmdbdata.MetadataMarker)
	if marker < 0 {
		return Layout{}, mmdbdata.Metadata{}, ErrNoMetadataMarker
	}
	metaSectionStart := marker + len(mmdbdata.MetadataMarker)
	if metaSectionStart > len(buf) {
		return Layout{}, mmdbdata.Metadata{}, ErrLayoutOutOfBounds
	}

	dec := mmdbdata.NewDecoder(buf[metaSectionStart:], checkUTF8)
	metaVal, metaEndOff, err := dec.Decode(metadataValueOffset)
	if err != nil {
		return Layout{}, mmdbdata.Metadata{}, err
	}
	meta, err := mmdbdata.MetadataFromValue(metaVal)
	if err != nil {
		return Layout{}, mmdbdata.Metadata{}, err
	}

	trieLen := int(meta.NodeCount) * 2 * int(meta.RecordSize) / 8
	dataStart := trieLen + 16
	if dataStart > marker {
		return Layout{}, mmdbdata.Metadata{}, ErrLayoutOutOfBounds
	}

	layout := Layout{
		TrieLen:       trieLen,
		DataStart:     dataStart,
		DataLen:       marker - dataStart,
		MetadataStart: marker,
		MetadataEnd:   metaSectionStart + metaEndOff,
	}

	extOff := layout.MetadataEnd
	if extOff+8 <= len(buf) && bytes.Equal(buf[extOff:extOff+8], ExtensionMagic) {
		hdr, err := DecodeExtensionHeader(buf[extOff:])
		if err != nil {
			return Layout{}, mmdbdata.Metadata{}, err
		}
		layout.HasExtension = true
		layout.ExtHeader = hdr

		pos := extOff + ExtensionHeaderSize
		layout.LiteralBucketsStart = pos
		layout.LiteralBucketsLen = int(hdr.LiteralTableSize) * littable.BucketSize
		pos += layout.LiteralBucketsLen

		layout.LiteralBlobStart = pos
		layout.LiteralBlobLen = int(hdr.LiteralBlobLen)
		pos += layout.LiteralBlobLen

		layout.ACSectionStart = pos
		layout.ACSectionLen = int(hdr.ACSectionLen)
		pos += layout.ACSectionLen

		layout.PatternMetaStart = pos
		layout.PatternMetaLen = int(hdr.PatternCount) * 8
		pos += layout.PatternMetaLen

		layout.PatternTextBlobStart = pos
		layout.PatternTextBlobLen = int(hdr.PatternTextBlobLen)
		pos += layout.PatternTextBlobLen

		layout.PatternMapStart = pos
		layout.PatternMapLen = int(hdr.PatternCount) * 4
		pos += layout.PatternMapLen

		layout.UniversalPatternIDsStart = pos
		layout.UniversalPatternIDsLen = int(hdr.UniversalCount) * 4
		pos += layout.UniversalPatternIDsLen

		if pos > len(buf) {
			return Layout{}, mmdbdata.Metadata{}, ErrLayoutOutOfBounds
		}
		layout.ExtensionEnd = pos
	} else {
		layout.ExtensionEnd = layout.MetadataEnd
	}

	return layout, meta, nil
}

// ExtensionParts bundles the PARAGLOB sections for AssembleFile. A nil
// ExtensionParts means the database has no literal or glob entries and
// the extension is omitted entirely.
type ExtensionParts struct {
	ACNodeCount        int
	LiteralBuckets     []byte
	LiteralBlob        []byte
	ACSection          []byte
	PatternDataOffsets []uint32 // pattern_id -> data section offset
	PatternTexts       []string // pattern_id -> original glob source text

	// UniversalPatternIDs lists pattern_ids whose glob has no meta-word
	// (spec §4.1 step 5a); these are a subset of the pattern_id space
	// above and still get a PatternTexts/PatternDataOffsets entry.
	UniversalPatternIDs []uint32
}

// AssembleFile concatenates every section into the final on-disk image,
// in the order spec §6.1 requires. trie must already be fully packed
// (internal/iptrie.Builder.Serialize output); data is the MMDB data
// section bytes (internal/mmdbdata.Encoder.Bytes()).
func AssembleFile(trie []byte, data []byte, meta mmdbdata.Metadata, ext *ExtensionParts) ([]byte, error) {
	metaEnc := mmdbdata.NewEncoder()
	if _, err := metaEnc.Put(meta.ToValue()); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(trie)+16+len(data)+len(mmdbdata.MetadataMarker)+metaEnc.Len())
	out = append(out, trie...)
	out = append(out, make([]byte, 16)...)
	out = append(out, data...)
	out = append(out, mmdbdata.MetadataMarker...)
	out = append(out, metaEnc.Bytes()...)

	if ext == nil {
		return out, nil
	}

	if len(ext.PatternTexts) != len(ext.PatternDataOffsets) {
		return nil, ErrPatternArityMismatch
	}

	metaEntries := make([]byte, len(ext.PatternTexts)*8)
	var textBlob []byte
	for i, text := range ext.PatternTexts {
		off := conv.IntToUint32(len(textBlob))
		n := conv.IntToUint32(len(text))
		binary.LittleEndian.PutUint32(metaEntries[i*8:i*8+4], off)
		binary.LittleEndian.PutUint32(metaEntries[i*8+4:i*8+8], n)
		textBlob = append(textBlob, text...)
	}

	// The builder is responsible for rejecting oversized databases before
	// ever calling AssembleFile (spec's DatabaseTooLarge), so any overflow
	// here is a programming error, not a user-facing condition.
	hdr := ExtensionHeader{
		Version:            1,
		Endianness:         0,
		ACNodeCount:        conv.IntToUint32(ext.ACNodeCount),
		ACSectionLen:       conv.IntToUint32(len(ext.ACSection)),
		LiteralTableSize:   conv.IntToUint32(len(ext.LiteralBuckets) / littable.BucketSize),
		LiteralBlobLen:     conv.IntToUint32(len(ext.LiteralBlob)),
		PatternCount:       conv.IntToUint32(len(ext.PatternDataOffsets)),
		PatternTextBlobLen: conv.IntToUint32(len(textBlob)),
		UniversalCount:     conv.IntToUint32(len(ext.UniversalPatternIDs)),
	}
	out = append(out, hdr.Encode()...)
	out = append(out, ext.LiteralBuckets...)
	out = append(out, ext.LiteralBlob...)
	out = append(out, ext.ACSection...)
	out = append(out, metaEntries...)
	out = append(out, textBlob...)
	for _, off := range ext.PatternDataOffsets {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], off)
		out = append(out, b[:]...)
	}
	for _, id := range ext.UniversalPatternIDs {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], id)
		out = append(out, b[:]...)
	}
	return out, nil
}
