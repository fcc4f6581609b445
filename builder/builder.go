// Package builder assembles a Matchy database image from a stream of
// staged entries (spec §4.1, §6.3). It owns the compile order: data
// section first (with string interning, for the pointer/payload
// sharing every downstream section reads back), then the IP trie, then
// the literal table and AC automaton, then one final concatenation
// pass in internal/format.
package builder

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sethhall/matchy/internal/ac"
	"github.com/sethhall/matchy/internal/conv"
	"github.com/sethhall/matchy/internal/format"
	"github.com/sethhall/matchy/internal/glob"
	"github.com/sethhall/matchy/internal/iptrie"
	"github.com/sethhall/matchy/internal/littable"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

const (
	defaultRecordSize uint = 24
	defaultIPVersion  int  = 6
)

// Config names the metadata a build starts from (spec §6.3
// new_builder). Zero values fall back to case_sensitive / record_size
// 24 / ip_version 6.
type Config struct {
	MatchMode    string // "case_sensitive" (default) | "case_insensitive"
	DatabaseType string
	Description  map[string]string
	RecordSize   uint // 24, 28, or 32
	IPVersion    int  // 4 or 6
}

// Option configures Builder behavior beyond Config.
type Option func(*Builder)

// WithMergeDuplicates switches duplicate-key payload merging from the
// default last-wins to a stable-ordered array of every payload staged
// for that key (spec §4.1 "add").
func WithMergeDuplicates(merge bool) Option {
	return func(b *Builder) { b.mergeDuplicates = merge }
}

// WithBuildEpoch pins the metadata build_epoch to a fixed value instead
// of the time NewBuilder was called, for reproducible fixtures.
func WithBuildEpoch(epoch uint64) Option {
	return func(b *Builder) { b.buildEpoch = epoch }
}

type stagedEntry struct {
	payloads []mmdbdata.Value
}

func (e *stagedEntry) value() mmdbdata.Value {
	if len(e.payloads) == 1 {
		return e.payloads[0]
	}
	return mmdbdata.Array(e.payloads)
}

// Builder accumulates entries by kind and compiles them into a Matchy
// database image.
type Builder struct {
	matchMode       string
	caseInsensitive bool
	databaseType    string
	description     map[string]string
	recordSize      uint
	ipVersion       int
	mergeDuplicates bool
	buildEpoch      uint64

	ipOrder   []string
	ipEntries map[string]*stagedEntry // key: canonical prefix.String()

	litOrder   []string
	litEntries map[string]*stagedEntry // key: canonicalized literal text

	globOrder   []string
	globEntries map[string]*stagedEntry // key: canonicalized glob text

	stats BuildStats
}

// BuildStats reports counts gathered while staging entries and, for
// UniversalGlobs, during Build (spec §6.3 stats).
type BuildStats struct {
	StartTime        time.Time
	IPEntries        int
	LiteralEntries   int
	GlobEntries      int
	UniversalGlobs   int
	DuplicatesMerged int
}

// NewBuilder starts a new build (spec §6.3 new_builder).
func NewBuilder(cfg Config, opts ...Option) (*Builder, error) {
	matchMode := cfg.MatchMode
	if matchMode == "" {
		matchMode = "case_sensitive"
	}
	if matchMode != "case_sensitive" && matchMode != "case_insensitive" {
		return nil, ErrUnsupportedMatchMode
	}

	recordSize := cfg.RecordSize
	if recordSize == 0 {
		recordSize = defaultRecordSize
	}
	if recordSize != 24 && recordSize != 28 && recordSize != 32 {
		return nil, ErrUnsupportedRecordSize
	}

	ipVersion := cfg.IPVersion
	if ipVersion == 0 {
		ipVersion = defaultIPVersion
	}
	if ipVersion != 4 && ipVersion != 6 {
		return nil, ErrUnsupportedIPVersion
	}

	b := &Builder{
		matchMode:       matchMode,
		caseInsensitive: matchMode == "case_insensitive",
		databaseType:    cfg.DatabaseType,
		description:     cfg.Description,
		recordSize:      recordSize,
		ipVersion:       ipVersion,
		buildEpoch:      uint64(time.Now().Unix()),
		ipEntries:       make(map[string]*stagedEntry),
		litEntries:      make(map[string]*stagedEntry),
		globEntries:     make(map[string]*stagedEntry),
		stats:           BuildStats{StartTime: time.Now()},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Stats returns a snapshot of the staging counters (spec §6.3 stats).
func (b *Builder) Stats() BuildStats { return b.stats }

// AddEntry classifies key by autodetection (or an explicit "ip:",
// "literal:", or "glob:" prefix) and stages it under the detected kind
// (spec §4.1 "add").
func (b *Builder) AddEntry(key string, payload mmdbdata.Value) error {
	kind, rest := classify(key)
	switch kind {
	case KindIP:
		return b.AddIP(rest, payload)
	case KindGlob:
		return b.AddGlob(rest, payload)
	default:
		return b.AddLiteral(rest, payload)
	}
}

// AddIP stages an explicit IP address or CIDR entry.
func (b *Builder) AddIP(key string, payload mmdbdata.Value) error {
	prefix, err := parseIPOrCIDR(key)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidIP, key, err)
	}
	canon := prefix.String()
	b.stage(&b.ipOrder, b.ipEntries, canon, payload)
	b.stats.IPEntries = len(b.ipEntries)
	return nil
}

// AddLiteral stages an explicit literal-string entry.
func (b *Builder) AddLiteral(key string, payload mmdbdata.Value) error {
	if key == "" {
		return ErrEmptyLiteral
	}
	canon := key
	if b.caseInsensitive {
		canon = glob.ASCIIFoldString(key)
	}
	b.stage(&b.litOrder, b.litEntries, canon, payload)
	b.stats.LiteralEntries = len(b.litEntries)
	return nil
}

// AddGlob stages an explicit glob-pattern entry.
func (b *Builder) AddGlob(key string, payload mmdbdata.Value) error {
	if _, err := glob.Parse(key); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidGlob, key, err)
	}
	canon := key
	if b.caseInsensitive {
		canon = glob.ASCIIFoldString(key)
	}
	b.stage(&b.globOrder, b.globEntries, canon, payload)
	b.stats.GlobEntries = len(b.globEntries)
	return nil
}

// stage merges payload into the staging entry for canon, recording
// insertion order the first time canon is seen. Duplicates merge into
// a stable-ordered array when mergeDuplicates is set, else the newest
// payload replaces the previous one.
func (b *Builder) stage(order *[]string, table map[string]*stagedEntry, canon string, payload mmdbdata.Value) {
	if e, ok := table[canon]; ok {
		if b.mergeDuplicates {
			e.payloads = append(e.payloads, payload)
		} else {
			e.payloads[0] = payload
		}
		b.stats.DuplicatesMerged++
		return
	}
	*order = append(*order, canon)
	table[canon] = &stagedEntry{payloads: []mmdbdata.Value{payload}}
}

func parseIPOrCIDR(key string) (netip.Prefix, error) {
	if strings.Contains(key, "/") {
		p, err := netip.ParsePrefix(key)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(key)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Build compiles every staged entry into a Matchy database image,
// following the compile order in spec §4.1.
func (b *Builder) Build() ([]byte, error) {
	sort.Strings(b.ipOrder)
	sort.Strings(b.litOrder)
	sort.Strings(b.globOrder)

	dataEnc := mmdbdata.NewEncoder()

	ipOffsets := make(map[string]int, len(b.ipOrder))
	for _, key := range b.ipOrder {
		off, err := dataEnc.Put(b.ipEntries[key].value())
		if err != nil {
			return nil, wrapEncodeErr(err)
		}
		ipOffsets[key] = off
	}
	litOffsets := make(map[string]int, len(b.litOrder))
	for _, key := range b.litOrder {
		off, err := dataEnc.Put(b.litEntries[key].value())
		if err != nil {
			return nil, wrapEncodeErr(err)
		}
		litOffsets[key] = off
	}
	globOffsets := make(map[string]int, len(b.globOrder))
	for _, key := range b.globOrder {
		off, err := dataEnc.Put(b.globEntries[key].value())
		if err != nil {
			return nil, wrapEncodeErr(err)
		}
		globOffsets[key] = off
	}

	trieBytes, nodeCount, err := b.buildTrie(ipOffsets)
	if err != nil {
		return nil, err
	}

	var ext *format.ExtensionParts
	if len(b.litOrder) > 0 || len(b.globOrder) > 0 {
		ext, err = b.buildExtension(litOffsets, globOffsets)
		if err != nil {
			return nil, err
		}
	}

	meta := mmdbdata.Metadata{
		BinaryFormatMajorVersion: 2,
		BuildEpoch:               b.buildEpoch,
		DatabaseType:             b.databaseType,
		Description:              b.description,
		IPVersion:                uint16(b.ipVersion),
		NodeCount:                uint32(nodeCount),
		RecordSize:               uint16(b.recordSize),
		MatchMode:                b.matchMode,
		MatchyFormatVersion:      1,
	}

	file, err := format.AssembleFile(trieBytes, dataEnc.Bytes(), meta, ext)
	if err != nil {
		return nil, err
	}
	if len(file) > math.MaxUint32 {
		return nil, ErrDatabaseTooLarge
	}
	return file, nil
}

func (b *Builder) buildTrie(ipOffsets map[string]int) ([]byte, int, error) {
	tb, err := iptrie.NewBuilder(b.recordSize, b.ipVersion)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]iptrie.CIDREntry, 0, len(b.ipOrder))
	for _, key := range b.ipOrder {
		prefix, err := netip.ParsePrefix(key)
		if err != nil {
			return nil, 0, fmt.Errorf("builder: internal canonical CIDR %q failed to reparse: %w", key, err)
		}
		entries = append(entries, iptrie.CIDREntry{Prefix: prefix, DataOffset: ipOffsets[key]})
	}
	if err := tb.Insert(entries); err != nil {
		return nil, 0, err
	}

	trieBytes, err := tb.Serialize()
	if err != nil {
		return nil, 0, err
	}
	return trieBytes, tb.NodeCount(), nil
}

// buildExtension compiles the literal table and AC automaton (spec
// §4.1 steps 4-5), plus the pattern-metadata and universal-pattern
// sections an on-disk glob verifier needs at query time.
func (b *Builder) buildExtension(litOffsets, globOffsets map[string]int) (*format.ExtensionParts, error) {
	litBuilder := littable.NewBuilder(b.caseInsensitive)
	for _, key := range b.litOrder {
		if err := litBuilder.Insert(key, litOffsets[key]); err != nil {
			return nil, err
		}
	}
	buckets, keyBlob, err := litBuilder.Build()
	if err != nil {
		return nil, err
	}

	acBuilder := ac.NewBuilder()
	patternDataOffsets := make([]uint32, len(b.globOrder))
	patternTexts := make([]string, len(b.globOrder))
	var universal []uint32

	for patternID, key := range b.globOrder {
		pat, err := glob.Parse(key)
		if err != nil {
			// AddGlob already validated this text; a re-parse failure
			// here means canonicalization broke a previously valid
			// pattern, which is a programming error, not bad input.
			return nil, fmt.Errorf("builder: canonicalized glob %q no longer parses: %w", key, err)
		}
		patternDataOffsets[patternID] = conv.IntToUint32(globOffsets[key])
		patternTexts[patternID] = key

		if pat.IsUniversal() {
			universal = append(universal, uint32(patternID))
			b.stats.UniversalGlobs++
			continue
		}
		for _, word := range glob.MetaWords(pat) {
			acBuilder.AddPattern([]byte(word), uint32(patternID))
		}
	}

	acNodes, acEdges, acPatterns, err := acBuilder.Serialize()
	if err != nil {
		return nil, err
	}
	acSection, err := ac.Concat(acNodes, acEdges, acPatterns)
	if err != nil {
		return nil, err
	}

	return &format.ExtensionParts{
		ACNodeCount:         acBuilder.NodeCount(),
		LiteralBuckets:      buckets,
		LiteralBlob:         keyBlob,
		ACSection:           acSection,
		PatternDataOffsets:  patternDataOffsets,
		PatternTexts:        patternTexts,
		UniversalPatternIDs: universal,
	}, nil
}

func wrapEncodeErr(err error) error {
	if errors.Is(err, mmdbdata.ErrPayloadTooLarge) {
		return fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
	}
	return err
}

// WriteFile writes data to path and marks it read-only (spec §4.1
// step 7). Chmod runs after WriteFile unconditionally since WriteFile
// only applies its mode bits at creation time, modulated by umask, and
// won't touch an already-existing file's permissions.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o444); err != nil {
		return err
	}
	return os.Chmod(path, 0o444)
}
