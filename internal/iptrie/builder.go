package iptrie

import (
	"net/netip"
	"sort"
)

// edgeKind discriminates what a node's left/right record currently
// refers to while the trie is still a pointer structure in memory.
type edgeKind uint8

const (
	edgeEmpty edgeKind = iota
	edgeChild
	edgeData
)

type edge struct {
	kind   edgeKind
	child  int // index into Builder.nodes, valid iff kind == edgeChild
	offset int // data-section offset, valid iff kind == edgeData
}

type bnode struct {
	left, right edge
}

// Builder compiles CIDR entries into an in-memory pointer trie, then
// serializes it to the packed on-disk layout (spec §4.1 step 3).
//
// Insertion subdivides a node holding a leaf record (a less-specific
// network) by copying that leaf onto both children before continuing,
// so longest-prefix-match is preserved regardless of insertion order;
// entries are still fed in ascending-prefix-length order for
// deterministic output, as the spec requires.
type Builder struct {
	nodes      []bnode
	recordSize uint
	ipVersion  int
}

// NewBuilder creates an empty trie builder. recordSize must be 24, 28,
// or 32.
func NewBuilder(recordSize uint, ipVersion int) (*Builder, error) {
	if recordSize != 24 && recordSize != 28 && recordSize != 32 {
		return nil, ErrUnsupportedRecordSize
	}
	b := &Builder{recordSize: recordSize, ipVersion: ipVersion}
	b.nodes = append(b.nodes, bnode{}) // root
	return b, nil
}

// CIDREntry is one network/payload pair staged for insertion.
type CIDREntry struct {
	Prefix     netip.Prefix
	DataOffset int
}

// Insert adds entries to the trie. Entries are sorted ascending by
// prefix length before insertion (spec §4.1 step 3); ties keep their
// relative input order (stable sort), which is the last-wins rule for
// exact-duplicate networks since callers are expected to have already
// deduplicated exact key collisions during canonicalization.
func (b *Builder) Insert(entries []CIDREntry) error {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Prefix.Bits() < entries[j].Prefix.Bits()
	})

	for _, e := range entries {
		if err := b.insertOne(e.Prefix, e.DataOffset); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) insertOne(prefix netip.Prefix, dataOffset int) error {
	addr := prefix.Addr()
	prefixLen := prefix.Bits()

	bits16 := addr.As16()
	startBit := 0
	nodeIdx := 0
	if addr.Is4() || addr.Is4In6() {
		startBit = 96
		prefixLen += 96
		if b.ipVersion == 6 {
			nodeIdx = b.ensureIPv4Spine()
		}
	}

	for bit := startBit; bit < prefixLen; bit++ {
		byteIdx := bit >> 3
		bitPos := 7 - (bit & 7)
		v := (bits16[byteIdx] >> uint(bitPos)) & 1

		last := bit == prefixLen-1
		cur := b.nodes[nodeIdx]
		e := cur.left
		if v == 1 {
			e = cur.right
		}

		if last {
			newEdge := edge{kind: edgeData, offset: dataOffset}
			b.setEdge(nodeIdx, v, newEdge)
			return nil
		}

		switch e.kind {
		case edgeEmpty:
			childIdx := len(b.nodes)
			b.nodes = append(b.nodes, bnode{})
			b.setEdge(nodeIdx, v, edge{kind: edgeChild, child: childIdx})
			nodeIdx = childIdx
		case edgeChild:
			nodeIdx = e.child
		case edgeData:
			childIdx := len(b.nodes)
			b.nodes = append(b.nodes, bnode{
				left:  edge{kind: edgeData, offset: e.offset},
				right: edge{kind: edgeData, offset: e.offset},
			})
			b.setEdge(nodeIdx, v, edge{kind: edgeChild, child: childIdx})
			nodeIdx = childIdx
		}
	}
	return nil
}

// ensureIPv4Spine walks (building as needed) the 96-bit all-zero
// lead-in from the root that reserves the IPv4 address space inside a
// dual-stack trie, and returns the index of its terminal node. This
// mirrors the reader's setIPv4Start walk bit for bit, so an IPv4 entry
// inserted here is reachable from that same node at query time.
func (b *Builder) ensureIPv4Spine() int {
	nodeIdx := 0
	for i := 0; i < 96; i++ {
		cur := b.nodes[nodeIdx]
		switch cur.left.kind {
		case edgeEmpty:
			childIdx := len(b.nodes)
			b.nodes = append(b.nodes, bnode{})
			b.setEdge(nodeIdx, 0, edge{kind: edgeChild, child: childIdx})
			nodeIdx = childIdx
		case edgeChild:
			nodeIdx = cur.left.child
		case edgeData:
			childIdx := len(b.nodes)
			b.nodes = append(b.nodes, bnode{
				left:  edge{kind: edgeData, offset: cur.left.offset},
				right: edge{kind: edgeData, offset: cur.left.offset},
			})
			b.setEdge(nodeIdx, 0, edge{kind: edgeChild, child: childIdx})
			nodeIdx = childIdx
		}
	}
	return nodeIdx
}

func (b *Builder) setEdge(nodeIdx int, bit uint8, e edge) {
	if bit == 0 {
		b.nodes[nodeIdx].left = e
	} else {
		b.nodes[nodeIdx].right = e
	}
}

// NodeCount returns the number of nodes compiled so far.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// Serialize packs the trie into its on-disk byte layout. nodeCount is
// len(b.nodes); empty edges encode as nodeCount, data edges encode as
// nodeCount+16+offset, and child edges encode as the child's index —
// all per spec §4.2.
func (b *Builder) Serialize() ([]byte, error) {
	nodeCount := len(b.nodes)
	recBytes := RecordBytes(b.recordSize)
	out := make([]byte, nodeCount*recBytes)

	maxRecordValue := uint64(1)<<b.recordSize - 1

	for i, n := range b.nodes {
		leftVal, err := b.encodeEdge(n.left, nodeCount, maxRecordValue)
		if err != nil {
			return nil, err
		}
		rightVal, err := b.encodeEdge(n.right, nodeCount, maxRecordValue)
		if err != nil {
			return nil, err
		}
		writeNodeRecord(out, i, b.recordSize, leftVal, rightVal)
	}
	return out, nil
}

func (b *Builder) encodeEdge(e edge, nodeCount int, maxRecordValue uint64) (uint64, error) {
	var v uint64
	switch e.kind {
	case edgeEmpty:
		v = uint64(nodeCount)
	case edgeChild:
		v = uint64(e.child)
	case edgeData:
		v = uint64(nodeCount) + 16 + uint64(e.offset)
	}
	if v > maxRecordValue {
		return 0, ErrPointerOverflow
	}
	return v, nil
}

func writeNodeRecord(out []byte, nodeIdx int, recordSize uint, left, right uint64) {
	switch recordSize {
	case 24:
		base := nodeIdx * 6
		put24(out[base:], uint32(left))
		put24(out[base+3:], uint32(right))
	case 28:
		base := nodeIdx * 7
		put24(out[base:], uint32(left)&0xFFFFFF)
		put24(out[base+4:], uint32(right)&0xFFFFFF)
		hiLeft := byte((left >> 24) & 0x0F)
		hiRight := byte((right >> 24) & 0x0F)
		out[base+3] = hiLeft<<4 | hiRight
	default: // 32
		base := nodeIdx * 8
		put32(out[base:], uint32(left))
		put32(out[base+4:], uint32(right))
	}
}

func put24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func put32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
