package matchy

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/sethhall/matchy/internal/ac"
	"github.com/sethhall/matchy/internal/format"
	"github.com/sethhall/matchy/internal/glob"
	"github.com/sethhall/matchy/internal/iptrie"
	"github.com/sethhall/matchy/internal/littable"
	"github.com/sethhall/matchy/internal/mmdbdata"
	"github.com/sethhall/matchy/internal/validate"
)

type options struct {
	cacheCapacity   int
	trusted         bool
	validationLevel Level
}

// Option configures Open or OpenBytes.
type Option func(*options)

// WithCacheCapacity sets the bounded query-result LRU's capacity.
// Zero, the default, disables the cache.
func WithCacheCapacity(n int) Option {
	return func(o *options) { o.cacheCapacity = n }
}

// WithTrusted skips validation on open, for a buffer already known
// good, e.g. one this process just produced with builder.Build.
func WithTrusted(trusted bool) Option {
	return func(o *options) { o.trusted = trusted }
}

// WithValidationLevel overrides the level Open runs when not trusted.
// Defaults to Standard.
func WithValidationLevel(level Level) Option {
	return func(o *options) { o.validationLevel = level }
}

// Handle is an opened database: a buffer (mmap'd or caller-supplied)
// plus decoded section boundaries and an optional query cache.
type Handle struct {
	mu     sync.Mutex
	buf    []byte
	mapped bool
	closed bool

	layout format.Layout
	meta   mmdbdata.Metadata

	trie *iptrie.Reader
	lits *littable.Reader // nil when the database has no extension
	ac   *ac.Automaton    // nil when the database has no glob patterns

	cache *queryCache
}

// Open memory-maps path and opens it as a database. On platforms
// without mmap support it falls back to reading the whole file into
// memory.
func Open(path string, opts ...Option) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidDatabase)
	}
	if size > int64(^uint32(0)) {
		return nil, fmt.Errorf("%w: file too large to map", ErrInvalidDatabase)
	}

	buf, err := mmapOS(int(f.Fd()), int(size))
	mapped := err == nil
	if err != nil {
		buf, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("matchy: open: %w", err)
		}
	}

	h, err := newHandle(buf, mapped, opts...)
	if err != nil {
		if mapped {
			_ = munmapOS(buf)
		}
		return nil, err
	}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h, nil
}

// OpenBytes opens a database already resident in memory, such as the
// output of builder.Build, without a file or mmap.
func OpenBytes(buf []byte, opts ...Option) (*Handle, error) {
	return newHandle(buf, false, opts...)
}

func newHandle(buf []byte, mapped bool, opts ...Option) (*Handle, error) {
	o := options{validationLevel: Standard}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.trusted {
		rep := validate.Validate(buf, o.validationLevel)
		if !rep.OK() {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDatabase, rep.Err())
		}
	}

	layout, meta, err := format.ParseLayout(buf, !o.trusted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
	}

	trie, err := iptrie.NewReader(layout.TrieBytes(buf), meta.NodeCount, uint(meta.RecordSize), int(meta.IPVersion))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
	}

	h := &Handle{
		buf:    buf,
		mapped: mapped,
		layout: layout,
		meta:   meta,
		trie:   trie,
		cache:  newQueryCache(o.cacheCapacity),
	}

	if layout.HasExtension {
		if len(layout.LiteralBuckets(buf)) > 0 {
			lits, err := littable.NewReader(layout.LiteralBuckets(buf), layout.LiteralBlob(buf))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
			}
			h.lits = lits
		}
		if section := layout.ACSection(buf); len(section) > 0 {
			h.ac = ac.NewAutomaton(section, section, section)
		}
	}

	return h, nil
}

// Close releases the handle's mmap, if any. Safe to call more than
// once and safe to call from the finalizer installed by Open.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	runtime.SetFinalizer(h, nil)
	if h.mapped {
		err := munmapOS(h.buf)
		h.buf = nil
		return err
	}
	h.buf = nil
	return nil
}

func (h *Handle) checkOpen() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return nil
}

// ClearCache empties the query cache. A no-op when caching is disabled.
func (h *Handle) ClearCache() {
	h.cache.purge()
}

// CacheSize reports the number of cached entries, 0 when caching is
// disabled.
func (h *Handle) CacheSize() int {
	return h.cache.len()
}

// Inspection summarizes an opened database: its metadata plus which
// optional sections are present.
type Inspection struct {
	Metadata   mmdbdata.Metadata
	NodeCount  uint32
	HasLiteral bool
	HasGlob    bool
}

// Inspect returns a summary of the opened database (spec §6.2 inspect).
func (h *Handle) Inspect() Inspection {
	return Inspection{
		Metadata:   h.meta,
		NodeCount:  h.meta.NodeCount,
		HasLiteral: h.lits != nil,
		HasGlob:    h.ac != nil,
	}
}

// Query dispatches s against the IP trie, the literal table, and the
// glob automaton in that order, returning the most specific match
// (spec §4.6, §8 scenarios S1-S8).
func (h *Handle) Query(s string) (QueryResult, error) {
	if err := h.checkOpen(); err != nil {
		return QueryResult{}, err
	}

	if cached, ok := h.cache.get(s); ok {
		return cached, nil
	}

	result, err := h.query(s)
	if err != nil {
		return QueryResult{}, err
	}
	h.cache.add(s, result)
	return result, nil
}

func (h *Handle) query(s string) (QueryResult, error) {
	if addr, err := netip.ParseAddr(s); err == nil {
		return h.lookupAddr(addr)
	}

	caseInsensitive := h.meta.MatchMode == "case_insensitive"
	folded := s
	if caseInsensitive {
		folded = glob.ASCIIFoldString(s)
	}

	if h.lits != nil {
		if off, found := h.lits.Lookup([]byte(folded)); found {
			val, err := h.decode(off)
			if err != nil {
				return QueryResult{}, err
			}
			return QueryResult{Kind: ExactMatch, Payloads: []Value{val}}, nil
		}
	}

	var candidates []uint32
	if h.ac != nil {
		ids, err := h.ac.Scan([]byte(s), caseInsensitive)
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		candidates = ids
	}
	candidates = append(candidates, h.layout.UniversalIDs(h.buf)...)

	if len(candidates) == 0 {
		return QueryResult{Kind: NotFound}, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	var ids []uint32
	var payloads []Value
	seen := make(map[uint32]struct{}, len(candidates))
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		text, err := h.layout.PatternText(h.buf, id)
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		pat, err := glob.Parse(string(text))
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		if !glob.Match(pat, []byte(s), caseInsensitive) {
			continue
		}

		off, err := h.layout.PatternDataOffset(h.buf, id)
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		val, err := h.decode(off)
		if err != nil {
			return QueryResult{}, err
		}
		ids = append(ids, id)
		payloads = append(payloads, val)
	}

	if len(ids) == 0 {
		return QueryResult{Kind: NotFound}, nil
	}
	return QueryResult{Kind: GlobMatch, PatternIDs: ids, Payloads: payloads}, nil
}

func (h *Handle) lookupAddr(addr netip.Addr) (QueryResult, error) {
	off, prefixLen, found, err := h.trie.Lookup(addr)
	if err != nil {
		if errors.Is(err, iptrie.ErrIPv6InIPv4Only) {
			return QueryResult{Kind: NotFound}, nil
		}
		return QueryResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	if !found {
		return QueryResult{Kind: NotFound}, nil
	}
	val, err := h.decode(off)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Kind: IPMatch, PrefixLen: h.hostPrefixLen(addr, prefixLen), Payloads: []Value{val}}, nil
}

// hostPrefixLen converts a prefixLen measured from the trie root into
// one measured from the start of addr's own address family, undoing
// the IPv4 lead-in a dual-stack trie reserves ahead of IPv4 entries.
func (h *Handle) hostPrefixLen(addr netip.Addr, prefixLen int) int {
	if addr.Is4() || addr.Is4In6() {
		return prefixLen - h.trie.IPv4BitOffset()
	}
	return prefixLen
}

// LookupIP looks ipLiteral up directly against the IP trie, bypassing
// the literal and glob paths entirely (spec §4.6).
func (h *Handle) LookupIP(ipLiteral string) (IPResult, error) {
	if err := h.checkOpen(); err != nil {
		return IPResult{}, err
	}

	addr, err := netip.ParseAddr(ipLiteral)
	if err != nil {
		return IPResult{}, fmt.Errorf("%w: %v", ErrInvalidIP, err)
	}

	off, prefixLen, found, err := h.trie.Lookup(addr)
	if err != nil {
		if errors.Is(err, iptrie.ErrIPv6InIPv4Only) {
			return IPResult{Found: false}, nil
		}
		return IPResult{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	if !found {
		return IPResult{Found: false}, nil
	}
	val, err := h.decode(off)
	if err != nil {
		return IPResult{}, err
	}
	return IPResult{Found: true, PrefixLen: h.hostPrefixLen(addr, prefixLen), Payload: val}, nil
}

func (h *Handle) decode(off int) (Value, error) {
	dec := mmdbdata.NewDecoder(h.layout.DataBytes(h.buf), false)
	val, _, err := dec.Decode(off)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	return val, nil
}
