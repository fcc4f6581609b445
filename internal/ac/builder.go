package ac

import (
	"encoding/binary"
	"sort"
)

type trieNode struct {
	children   map[byte]int
	fail       int
	depth      int
	patternIDs []uint32 // own matches; merged with the failure chain's output during buildFailureLinks
}

// Builder compiles a set of byte patterns (AC meta-words) into the
// packed on-disk node layout. Construction follows the classic
// Aho-Corasick goto/fail/output build (BFS over the trie, one pass to
// link failure pointers, output sets merged along failure chains as
// each node is dequeued so scanning never needs to walk failure links
// just to collect output — spec §4.3's "whenever is_final, emit all
// pattern ids in the output set" assumes that merge already happened).
type Builder struct {
	nodes []trieNode
}

// NewBuilder creates a builder with just the root node (index 0).
func NewBuilder() *Builder {
	return &Builder{nodes: []trieNode{{children: map[byte]int{}}}}
}

// AddPattern inserts pattern into the trie, recording patternID as one
// of the outputs at the node where the pattern ends. The same pattern
// bytes may be added more than once under different pattern ids (e.g.
// two distinct globs sharing a meta-word).
func (b *Builder) AddPattern(pattern []byte, patternID uint32) {
	cur := 0
	for _, c := range pattern {
		child, ok := b.nodes[cur].children[c]
		if !ok {
			b.nodes = append(b.nodes, trieNode{children: map[byte]int{}})
			child = len(b.nodes) - 1
			b.nodes[cur].children[c] = child
		}
		cur = child
	}
	b.nodes[cur].patternIDs = append(b.nodes[cur].patternIDs, patternID)
}

// NodeCount returns the number of trie nodes (including root).
func (b *Builder) NodeCount() int {
	return len(b.nodes)
}

// buildFailureLinks runs the standard BFS failure-link + output-merge
// construction. Serialize calls it, after all patterns are added.
func (b *Builder) buildFailureLinks() {
	const root = 0
	b.nodes[root].fail = root
	b.nodes[root].depth = 0

	queue := make([]int, 0, len(b.nodes))
	// Sort child bytes for deterministic serialize order further down;
	// BFS order itself doesn't need it, but building the queue from a
	// sorted child list keeps later sparse edge layout stable too.
	for _, c := range sortedKeys(b.nodes[root].children) {
		child := b.nodes[root].children[c]
		b.nodes[child].fail = root
		b.nodes[child].depth = 1
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		if u != root {
			fu := b.nodes[u].fail
			if len(b.nodes[fu].patternIDs) > 0 {
				b.nodes[u].patternIDs = append(b.nodes[u].patternIDs, b.nodes[fu].patternIDs...)
			}
		}

		for _, c := range sortedKeys(b.nodes[u].children) {
			v := b.nodes[u].children[c]
			b.nodes[v].fail = b.computeFailure(u, c)
			b.nodes[v].depth = b.nodes[u].depth + 1
			queue = append(queue, v)
		}
	}
}

func (b *Builder) computeFailure(u int, c byte) int {
	const root = 0
	f := b.nodes[u].fail
	for {
		if nxt, ok := b.nodes[f].children[c]; ok {
			return nxt
		}
		if f == root {
			return root
		}
		f = b.nodes[f].fail
	}
}

func sortedKeys(m map[byte]int) []byte {
	keys := make([]byte, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Serialize runs failure-link construction and packs the automaton into three sections: the fixed-size node
// records, an edge/dense-table blob, and a pattern-id output blob.
// Offsets embedded in the node records are byte offsets into their
// respective blob, except FailureOffset/OneTarget/edge target_offset
// which are node byte offsets (node_id * NodeSize) within the node
// section — consistent with the whole format's offset-addressed
// convention (spec §9).
func (b *Builder) Serialize() (nodes, edges, patterns []byte, err error) {
	b.buildFailureLinks()

	nodes = make([]byte, len(b.nodes)*NodeSize)
	edges = make([]byte, 0, len(b.nodes)*sparseEdgeSize)
	patterns = make([]byte, 4) // offset 0 reserved as "no output" sentinel

	// Two passes: first lay out edges/patterns blobs and classify each
	// node, then encode node records (so Dense alignment padding
	// inserted for node k doesn't shift offsets already assigned to
	// node k, since each node's blob regions are appended in node_id
	// order and never referenced before they're written).
	recs := make([]NodeRecord, len(b.nodes))

	for i, n := range b.nodes {
		rec := NodeRecord{
			NodeID:        uint32(i),
			FailureOffset: uint32(n.fail) * NodeSize,
		}
		if n.depth > 255 {
			return nil, nil, nil, ErrCorruptAutomaton
		}
		rec.Depth = uint8(n.depth)
		rec.IsFinal = len(n.patternIDs) > 0

		if rec.IsFinal {
			off, err := appendPatterns(&patterns, n.patternIDs)
			if err != nil {
				return nil, nil, nil, err
			}
			rec.PatternsOffset = off
		}

		switch {
		case len(n.children) == 0:
			rec.StateKind = StateEmpty
		case len(n.children) == 1:
			rec.StateKind = StateOne
			for c, target := range n.children {
				rec.OneChar = c
				rec.OneTarget = uint32(target) * NodeSize
			}
		case len(n.children) <= MaxSparseEdges:
			rec.StateKind = StateSparse
			keys := sortedKeys(n.children)
			rec.EdgesOffset = uint32(len(edges))
			rec.EdgeCount = uint16(len(keys))
			for _, c := range keys {
				var e [sparseEdgeSize]byte
				e[0] = c
				binary.LittleEndian.PutUint32(e[4:8], uint32(n.children[c])*NodeSize)
				edges = append(edges, e[:]...)
			}
		default:
			rec.StateKind = StateDense
			for len(edges)%64 != 0 {
				edges = append(edges, 0)
			}
			rec.EdgesOffset = uint32(len(edges))
			table := make([]byte, DenseTableSize)
			for c, target := range n.children {
				binary.LittleEndian.PutUint32(table[int(c)*4:int(c)*4+4], uint32(target)*NodeSize)
			}
			edges = append(edges, table...)
		}

		recs[i] = rec
	}

	for i, rec := range recs {
		rec.Encode(nodes[i*NodeSize : (i+1)*NodeSize])
	}
	return nodes, edges, patterns, nil
}

func appendPatterns(blob *[]byte, ids []uint32) (uint32, error) {
	off := uint32(len(*blob))
	sorted := append([]uint32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	sorted = dedupUint32(sorted)

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(sorted)))
	*blob = append(*blob, countBuf[:]...)
	for _, id := range sorted {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], id)
		*blob = append(*blob, b[:]...)
	}
	return off, nil
}

func dedupUint32(sorted []uint32) []uint32 {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
