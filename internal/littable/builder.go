package littable

import (
	"encoding/binary"
	"sort"
)

// Builder accumulates literal keys and compiles them into the bucket
// array + key blob layout that Reader consumes. Keys are folded and
// deduplicated as they're inserted so invariant 8 (no two case-
// equivalent keys coexist in case-insensitive mode) holds by
// construction rather than as a post-hoc check.
type Builder struct {
	caseInsensitive bool
	byFoldedKey     map[string]int // folded key -> data offset, last write wins
}

// NewBuilder creates an empty literal table builder. caseInsensitive
// controls whether keys are ASCII-folded before hashing and storage.
func NewBuilder(caseInsensitive bool) *Builder {
	return &Builder{caseInsensitive: caseInsensitive, byFoldedKey: make(map[string]int)}
}

// Insert stages key -> dataOffset. A later Insert of a case-equivalent
// key (in case-insensitive mode) or an identical key (in case-sensitive
// mode) overwrites the earlier one.
func (b *Builder) Insert(key string, dataOffset int) error {
	if key == "" {
		return ErrEmptyKey
	}
	folded := key
	if b.caseInsensitive {
		folded = asciiFold(key)
	}
	b.byFoldedKey[folded] = dataOffset
	return nil
}

// Len returns the number of distinct keys staged so far.
func (b *Builder) Len() int {
	return len(b.byFoldedKey)
}

// Build compiles the staged keys into (buckets, keyBlob). Keys are
// inserted into buckets in sorted order for deterministic output byte
// layout across identical input sets, per the builder's determinism
// requirement.
func (b *Builder) Build() (buckets []byte, keyBlob []byte, err error) {
	keys := make([]string, 0, len(b.byFoldedKey))
	for k := range b.byFoldedKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bucketCount := nextPow2(ceilDiv(len(keys), TargetLoadFactor))
	if bucketCount == 0 {
		bucketCount = 1
	}
	buckets = make([]byte, bucketCount*BucketSize)
	mask := uint64(bucketCount - 1)

	keyBlob = make([]byte, 1, 1+len(keys)*16) // reserve offset 0 as the empty sentinel

	for _, k := range keys {
		dataOffset := b.byFoldedKey[k]
		keyOff, err := appendKey(&keyBlob, k)
		if err != nil {
			return nil, nil, err
		}
		if err := placeBucket(buckets, mask, []byte(k), uint32(keyOff), uint32(dataOffset)); err != nil {
			return nil, nil, err
		}
	}
	return buckets, keyBlob, nil
}

func appendKey(blob *[]byte, key string) (int, error) {
	off := len(*blob)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(key)))
	*blob = append(*blob, lenBuf[0], lenBuf[1])
	*blob = append(*blob, key...)
	return off, nil
}

func placeBucket(buckets []byte, mask uint64, key []byte, keyOff, dataOff uint32) error {
	h := Hash(key)
	idx := h & mask
	for step := uint64(1); ; step++ {
		off := idx * BucketSize
		existingKeyOff := binary.LittleEndian.Uint32(buckets[off+8 : off+12])
		if existingKeyOff == 0 {
			binary.LittleEndian.PutUint64(buckets[off:off+8], h)
			binary.LittleEndian.PutUint32(buckets[off+8:off+12], keyOff)
			binary.LittleEndian.PutUint32(buckets[off+12:off+16], dataOff)
			return nil
		}
		idx = (idx + step*step) & mask
		if step > mask+1 {
			return ErrTableFull
		}
	}
}

func ceilDiv(n int, loadFactor float64) int {
	if n == 0 {
		return 1
	}
	return int(float64(n)/loadFactor) + 1
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// asciiFold lowercases ASCII letters only, leaving any non-ASCII byte
// untouched; callers that need full Unicode case folding must do it
// before calling Insert (spec's "refuse to fold non-ASCII" option).
func asciiFold(s string) string {
	out := []byte(s)
	changed := false
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(out)
}
