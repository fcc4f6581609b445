// Package glob implements the glob subset Matchy supports (`*`, `?`,
// `[set]`, `[!set]`): a parser producing a token sequence, meta-word
// extraction for feeding the AC automaton (spec §3.1 "Glob pattern"),
// and a reference verifier used to confirm AC candidates.
//
// Grounded on the teacher's `literal` package's shape: split a pattern
// into literal runs around non-literal constructs, here applied to
// glob wildcards instead of regex metacharacters.
package glob

// TokenKind discriminates one element of a parsed glob.
type TokenKind uint8

const (
	TokLiteral TokenKind = iota
	TokStar
	TokQuestion
	TokClass
)

// Class is a `[set]` or `[!set]` character class. Membership is a
// simple byte lookup table; glob classes operate on raw bytes, not
// code points, matching the spec's ASCII-only class semantics.
type Class struct {
	Negate bool
	Set    [256]bool
}

// Matches reports whether b is a member of the class, accounting for
// negation.
func (c *Class) Matches(b byte) bool {
	return c.Set[b] != c.Negate
}

// Token is one element of a parsed glob pattern.
type Token struct {
	Kind    TokenKind
	Literal []byte // valid iff Kind == TokLiteral
	Class   *Class // valid iff Kind == TokClass
}

// Pattern is a parsed glob: an alternating sequence of literal runs and
// wildcards, per spec §3.1.
type Pattern struct {
	Tokens []Token
}

// IsUniversal reports whether the pattern has no literal content at all
// (e.g. `*`, `**`, `*?*`) — the spec's "universal matcher tracked
// outside AC" case, since there's no meta-word to index.
func (p Pattern) IsUniversal() bool {
	for _, t := range p.Tokens {
		if t.Kind == TokLiteral {
			return false
		}
	}
	return true
}
