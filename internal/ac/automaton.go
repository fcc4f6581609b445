package ac

import (
	"encoding/binary"

	"github.com/sethhall/matchy/internal/glob"
)

// Automaton wraps the three serialized sections (node records, the
// edge/dense-table blob, and the pattern-id output blob) and answers
// scan queries against them. All three slices are expected to be
// views into the mmap'd database file; Automaton never copies them.
type Automaton struct {
	nodes    []byte
	edges    []byte
	patterns []byte
}

// NewAutomaton wraps already-serialized sections for scanning.
func NewAutomaton(nodes, edges, patterns []byte) *Automaton {
	return &Automaton{nodes: nodes, edges: edges, patterns: patterns}
}

// Transition looks up the target node offset for byte c from the node
// at nodeOffset, dispatching on state kind per spec §4.3. It returns
// ok=false when there's no edge for c (caller should then follow the
// node's failure link and retry).
func (a *Automaton) Transition(nodeOffset uint32, c byte) (target uint32, ok bool) {
	rec, err := DecodeNode(a.nodes, nodeOffset)
	if err != nil {
		return 0, false
	}
	switch rec.StateKind {
	case StateEmpty:
		return 0, false
	case StateOne:
		if rec.OneChar == c {
			return rec.OneTarget, true
		}
		return 0, false
	case StateSparse:
		base := rec.EdgesOffset
		for i := uint16(0); i < rec.EdgeCount; i++ {
			off := base + uint32(i)*sparseEdgeSize
			if int(off)+sparseEdgeSize > len(a.edges) {
				return 0, false
			}
			edge := a.edges[off : off+sparseEdgeSize]
			ec := edge[0]
			if ec == c {
				return binary.LittleEndian.Uint32(edge[4:8]), true
			}
			if ec > c {
				// Edges are sorted ascending; nothing further can match.
				return 0, false
			}
		}
		return 0, false
	case StateDense:
		off := rec.EdgesOffset + uint32(c)*4
		if int(off)+4 > len(a.edges) {
			return 0, false
		}
		t := binary.LittleEndian.Uint32(a.edges[off : off+4])
		if t == 0 {
			return 0, false
		}
		return t, true
	default:
		return 0, false
	}
}

// ReadPatterns reads the pattern-id output set at patternsOffset. A
// patternsOffset of 0 is the "no output" sentinel and returns nil.
func (a *Automaton) ReadPatterns(patternsOffset uint32) ([]uint32, error) {
	if patternsOffset == 0 {
		return nil, nil
	}
	if int(patternsOffset)+4 > len(a.patterns) {
		return nil, ErrCorruptAutomaton
	}
	count := binary.LittleEndian.Uint32(a.patterns[patternsOffset : patternsOffset+4])
	pos := patternsOffset + 4
	if int(pos)+int(count)*4 > len(a.patterns) {
		return nil, ErrCorruptAutomaton
	}
	ids := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		ids[i] = binary.LittleEndian.Uint32(a.patterns[pos+i*4 : pos+i*4+4])
	}
	return ids, nil
}

// Scan walks query byte by byte via the goto/failure loop, collecting
// every pattern id whose meta-word ends at some position in query.
// caseInsensitive ASCII-folds each input byte before transitioning,
// matching a table built from folded meta-words (spec §4.3).
func (a *Automaton) Scan(query []byte, caseInsensitive bool) ([]uint32, error) {
	var node uint32 // root is node 0, byte offset 0
	seen := make(map[uint32]struct{})
	var out []uint32

	for _, raw := range query {
		c := raw
		if caseInsensitive {
			c = glob.ASCIIFoldByte(c)
		}
		for {
			if target, ok := a.Transition(node, c); ok {
				node = target
				break
			}
			if node == 0 {
				break
			}
			rec, err := DecodeNode(a.nodes, node)
			if err != nil {
				return nil, err
			}
			node = rec.FailureOffset
		}

		rec, err := DecodeNode(a.nodes, node)
		if err != nil {
			return nil, err
		}
		if rec.IsFinal {
			ids, err := a.ReadPatterns(rec.PatternsOffset)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					out = append(out, id)
				}
			}
		}
	}
	return out, nil
}
