package matchy

import "github.com/sethhall/matchy/internal/mmdbdata"

// Value is a decoded entry payload. It aliases the internal data
// section's value type directly: callers index into maps and arrays
// with Get and read the scalar fields (Str, I32, U32, ...) off the
// leaf they land on.
type Value = mmdbdata.Value

// ResultKind identifies which section of a database produced a Query
// result (spec §4.6, §8 scenarios S1-S8).
type ResultKind int

const (
	// NotFound means none of the trie, literal table, or AC automaton
	// matched the query.
	NotFound ResultKind = iota

	// IPMatch means the query parsed as an IP address and matched an
	// entry in the IP trie.
	IPMatch

	// ExactMatch means the query matched a literal table entry
	// byte-for-byte (after case folding, under case-insensitive mode).
	ExactMatch

	// GlobMatch means the query matched one or more glob patterns
	// after AC-candidate verification.
	GlobMatch
)

func (k ResultKind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case IPMatch:
		return "IPMatch"
	case ExactMatch:
		return "ExactMatch"
	case GlobMatch:
		return "GlobMatch"
	default:
		return "Unknown"
	}
}

// QueryResult is the outcome of Handle.Query. PrefixLen is only
// meaningful for Kind == IPMatch, and is relative to the queried
// address's own family: an IPv4 /24 match reports 24, not 96+24,
// regardless of whether the underlying trie is IPv4-only or
// dual-stack. PatternIDs is only populated for Kind == GlobMatch, one
// entry per matched pattern, parallel to Payloads. For IPMatch and
// ExactMatch, Payloads holds exactly one entry; for NotFound,
// Payloads is empty.
type QueryResult struct {
	Kind       ResultKind
	PrefixLen  int
	PatternIDs []uint32
	Payloads   []Value
}

// IPResult is the outcome of Handle.LookupIP. PrefixLen uses the same
// host-relative convention as QueryResult.PrefixLen.
type IPResult struct {
	Found     bool
	PrefixLen int
	Payload   Value
}
