// Package ac implements the Aho-Corasick automaton (spec component
// C5): multi-pattern substring matching over glob meta-words, with a
// 32-byte packed on-disk node record per the format's state-kind
// polymorphism (Empty/One/Sparse/Dense) instead of interface dispatch,
// the same sum-type-over-a-small-shape-set idea the teacher's
// nfa.State uses for its own node kinds.
package ac

import "encoding/binary"

// StateKind is the node's transition-table shape.
type StateKind uint8

const (
	StateEmpty StateKind = iota
	StateOne
	StateSparse
	StateDense
)

// NodeSize is the fixed on-disk size of one node record.
const NodeSize = 32

// sparseEdgeSize is the size of one (char, target_offset) pair in a
// Sparse node's edge array.
const sparseEdgeSize = 8

// MaxSparseEdges is the edge count above which a node is built Dense
// instead (spec: "2..=8" for Sparse).
const MaxSparseEdges = 8

// DenseTableSize is the byte size of a Dense node's transition table:
// 256 u32 targets, 64-byte aligned.
const DenseTableSize = 256 * 4

// NodeRecord is the decoded form of one 32-byte node, used by both the
// builder (before serializing) and the reader (after parsing one
// record out of the mmap'd buffer).
type NodeRecord struct {
	NodeID         uint32
	FailureOffset  uint32
	StateKind      StateKind
	Depth          uint8
	IsFinal        bool
	OneChar        byte
	OneTarget      uint32
	EdgesOffset    uint32
	EdgeCount      uint16
	PatternsOffset uint32
}

// Encode packs rec into dst, which must be at least NodeSize bytes.
func (rec NodeRecord) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], rec.NodeID)
	binary.LittleEndian.PutUint32(dst[4:8], rec.FailureOffset)
	dst[8] = byte(rec.StateKind)
	dst[9] = rec.Depth
	if rec.IsFinal {
		dst[10] = 1
	} else {
		dst[10] = 0
	}
	dst[11] = 0
	dst[12] = rec.OneChar
	dst[13], dst[14], dst[15] = 0, 0, 0
	binary.LittleEndian.PutUint32(dst[16:20], rec.OneTarget)
	binary.LittleEndian.PutUint32(dst[20:24], rec.EdgesOffset)
	binary.LittleEndian.PutUint16(dst[24:26], rec.EdgeCount)
	binary.LittleEndian.PutUint16(dst[26:28], 0)
	binary.LittleEndian.PutUint32(dst[28:32], rec.PatternsOffset)
}

// DecodeNode reads one 32-byte record out of buf at byte offset off.
func DecodeNode(buf []byte, off uint32) (NodeRecord, error) {
	if int(off)+NodeSize > len(buf) {
		return NodeRecord{}, ErrCorruptAutomaton
	}
	b := buf[off : off+NodeSize]
	kind := StateKind(b[8])
	if kind > StateDense {
		return NodeRecord{}, ErrCorruptAutomaton
	}
	return NodeRecord{
		NodeID:         binary.LittleEndian.Uint32(b[0:4]),
		FailureOffset:  binary.LittleEndian.Uint32(b[4:8]),
		StateKind:      kind,
		Depth:          b[9],
		IsFinal:        b[10] != 0,
		OneChar:        b[12],
		OneTarget:      binary.LittleEndian.Uint32(b[16:20]),
		EdgesOffset:    binary.LittleEndian.Uint32(b[20:24]),
		EdgeCount:      binary.LittleEndian.Uint16(b[24:26]),
		PatternsOffset: binary.LittleEndian.Uint32(b[28:32]),
	}, nil
}
