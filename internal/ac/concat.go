package ac

// Concat rebases the node/edges/patterns sections produced by Serialize
// into the single contiguous byte region the on-disk format calls the
// "AC node section" (spec §6.1 item 6): nodes first, then the
// edge/dense-table blob, then the per-node pattern-id output blob, with
// every EdgesOffset/PatternsOffset rewritten from sub-blob-relative to
// absolute-within-the-concatenated-region. FailureOffset and OneTarget
// need no rewriting; they're already node_id*NodeSize, unaffected by
// what follows the node section.
//
// The result can be read back with NewAutomaton(section, section,
// section) — once rebased, all three parameters point at the same
// bytes because every offset inside a node record is now absolute
// within that one slice.
func Concat(nodes, edges, patterns []byte) ([]byte, error) {
	nodeCount := len(nodes) / NodeSize
	edgesBase := uint32(len(nodes))
	patternsBase := edgesBase + uint32(len(edges))

	rebased := make([]byte, len(nodes))
	copy(rebased, nodes)

	for i := 0; i < nodeCount; i++ {
		off := uint32(i * NodeSize)
		rec, err := DecodeNode(nodes, off)
		if err != nil {
			return nil, err
		}
		if rec.StateKind == StateSparse || rec.StateKind == StateDense {
			rec.EdgesOffset += edgesBase
		}
		if rec.IsFinal {
			rec.PatternsOffset += patternsBase
		}
		rec.Encode(rebased[off : off+NodeSize])
	}

	out := make([]byte, 0, len(nodes)+len(edges)+len(patterns))
	out = append(out, rebased...)
	out = append(out, edges...)
	out = append(out, patterns...)
	return out, nil
}
