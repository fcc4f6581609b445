// Package input implements the thin external-format adapters listed in
// spec §6.4: CSV, TSV, JSON, and MISP event JSON. Each adapter parses
// its format into RawEntry values; the core builder never sees these
// formats directly.
package input

import (
	"github.com/sethhall/matchy/builder"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

// Hint says how a RawEntry's key should be staged. HintAuto defers to
// the builder's own autodetection (AddEntry); the others come from a
// format that already knows the entry's kind (MISP's Attribute.Type)
// and bypass autodetection entirely.
type Hint int

const (
	HintAuto Hint = iota
	HintIP
	HintLiteral
	HintGlob
)

// RawEntry is one record parsed from an input file, not yet staged
// into a builder.
type RawEntry struct {
	Hint    Hint
	Key     string
	Payload mmdbdata.Value
}

// Stage adds e to b, dispatching on Hint.
func (e RawEntry) Stage(b *builder.Builder) error {
	switch e.Hint {
	case HintIP:
		return b.AddIP(e.Key, e.Payload)
	case HintLiteral:
		return b.AddLiteral(e.Key, e.Payload)
	case HintGlob:
		return b.AddGlob(e.Key, e.Payload)
	default:
		return b.AddEntry(e.Key, e.Payload)
	}
}
