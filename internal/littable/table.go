// Package littable implements the literal hash table (spec component
// C4): an open-addressing table from literal key to data-section
// offset, sized to a power of two at a target load factor, probed
// quadratically, with hits confirmed by a byte-equal check against a
// separate key blob.
package littable

import (
	"encoding/binary"
)

// BucketSize is the on-disk size of one slot: u64 hash + u32
// key_offset + u32 data_offset.
const BucketSize = 16

// TargetLoadFactor is the maximum load the builder sizes buckets for.
const TargetLoadFactor = 0.7

// Reader looks up literal keys against a built table. buckets and
// keyBlob are views into the mmap'd database; Reader never copies them.
type Reader struct {
	buckets    []byte // bucketCount * BucketSize bytes
	keyBlob    []byte
	bucketMask uint64 // bucketCount - 1 (bucketCount is always a power of two)
}

// NewReader wraps buckets/keyBlob sections already resident at the
// correct offsets within the mmap'd file.
func NewReader(buckets, keyBlob []byte) (*Reader, error) {
	if len(buckets)%BucketSize != 0 {
		return nil, ErrCorruptTable
	}
	count := len(buckets) / BucketSize
	if count == 0 || count&(count-1) != 0 {
		return nil, ErrCorruptTable
	}
	return &Reader{buckets: buckets, keyBlob: keyBlob, bucketMask: uint64(count - 1)}, nil
}

// Lookup returns the data offset stored for key, and whether it was
// found. key is compared byte-for-byte against the blob; the caller is
// responsible for any case-folding the database's match mode requires
// before calling Lookup.
func (r *Reader) Lookup(key []byte) (dataOffset int, found bool) {
	if len(key) == 0 {
		return 0, false
	}
	h := Hash(key)
	idx := h & r.bucketMask
	for step := uint64(1); ; step++ {
		bh, keyOff, dataOff, empty := r.readBucket(idx)
		if empty {
			return 0, false
		}
		if bh == h {
			if candidate, ok := r.readKey(keyOff); ok && bytesEqual(candidate, key) {
				return int(dataOff), true
			}
		}
		idx = (idx + step*step) & r.bucketMask
		if step > r.bucketMask+1 {
			// Exhausted every slot without an empty marker; the table
			// is either full (shouldn't happen under the target load
			// factor) or corrupt. Either way, report not-found rather
			// than spin.
			return 0, false
		}
	}
}

func (r *Reader) readBucket(idx uint64) (hash uint64, keyOff, dataOff uint32, empty bool) {
	off := idx * BucketSize
	b := r.buckets[off : off+BucketSize]
	hash = binary.LittleEndian.Uint64(b[0:8])
	keyOff = binary.LittleEndian.Uint32(b[8:12])
	dataOff = binary.LittleEndian.Uint32(b[12:16])
	return hash, keyOff, dataOff, keyOff == 0
}

// readKey reads a length-prefixed key from the blob at keyOff. Offset 0
// is reserved for "empty", so real keys start at offset >= 1; the blob
// writer guarantees a keyOff of 1 is valid if any key was ever stored.
func (r *Reader) readKey(keyOff uint32) ([]byte, bool) {
	if keyOff == 0 || int(keyOff) >= len(r.keyBlob) {
		return nil, false
	}
	pos := int(keyOff)
	if pos+2 > len(r.keyBlob) {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint16(r.keyBlob[pos : pos+2]))
	pos += 2
	if pos+n > len(r.keyBlob) {
		return nil, false
	}
	return r.keyBlob[pos : pos+n], true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BucketCount returns the number of buckets in the table (always a
// power of two).
func (r *Reader) BucketCount() int {
	return int(r.bucketMask + 1)
}
