package glob

import "github.com/sethhall/matchy/simd"

type atomKind uint8

const (
	atomByte atomKind = iota
	atomAny
	atomClass
	atomStar
)

type atom struct {
	kind  atomKind
	b     byte
	class *Class
}

// flatten lowers a token sequence into a byte-granularity atom
// sequence so the backtracking matcher below can treat a literal run
// the same as any other fixed-width atom run.
func flatten(p Pattern) []atom {
	var atoms []atom
	for _, t := range p.Tokens {
		switch t.Kind {
		case TokLiteral:
			for _, c := range t.Literal {
				atoms = append(atoms, atom{kind: atomByte, b: c})
			}
		case TokQuestion:
			atoms = append(atoms, atom{kind: atomAny})
		case TokClass:
			atoms = append(atoms, atom{kind: atomClass, class: t.Class})
		case TokStar:
			atoms = append(atoms, atom{kind: atomStar})
		}
	}
	return atoms
}

// Match is the reference glob verifier (spec §4.3 "standard glob
// matcher, iterative, O(n·m) worst case with short-circuit on star-
// anchored"): the classic two-pointer wildcard algorithm, operating on
// atoms rather than runes so a multi-byte literal run is matched with
// one comparison per byte instead of per token.
//
// caseInsensitive folds ASCII letters on both sides before comparing
// literal and `?` atoms; character classes match raw bytes regardless
// of match mode (range membership isn't meaningfully foldable without
// per-range case tables, and the spec doesn't ask for it).
//
// A `*` backtrack normally retries one input position at a time; when
// case folding isn't in play, skipToNextCandidate instead uses simd's
// byte and table scans to jump straight to the next position worth
// trying, the same literal-prefix skip a regex engine's prefilter
// does ahead of a full match attempt.
func Match(p Pattern, input []byte, caseInsensitive bool) bool {
	atoms := flatten(p)
	i, j := 0, 0
	starIdx, matchIdx := -1, -1

	for j < len(input) {
		if i < len(atoms) && atomMatches(atoms[i], input[j], caseInsensitive) {
			i++
			j++
			continue
		}
		if i < len(atoms) && atoms[i].kind == atomStar {
			starIdx = i
			matchIdx = j
			i++
			continue
		}
		if starIdx != -1 {
			matchIdx += 1 + skipToNextCandidate(atoms[starIdx+1:], input[matchIdx+1:], caseInsensitive)
			j = matchIdx
			i = starIdx + 1
			continue
		}
		return false
	}

	for i < len(atoms) && atoms[i].kind == atomStar {
		i++
	}
	return i == len(atoms)
}

// skipToNextCandidate finds how far into data the star can usefully
// advance before the atom right after it (rest[0]) has any chance of
// matching, instead of retrying one byte at a time. It only looks
// ahead for case-sensitive byte and class atoms, where a single SIMD
// scan answers the question directly; other atom kinds (wildcards,
// another star) can match anywhere, so there's nothing to skip.
//
// Returns len(data) when rest[0] can't match anywhere in data, which
// drives matchIdx past the end of input and lets the caller's normal
// "ran out of input" exit handle the failure.
func skipToNextCandidate(rest []atom, data []byte, caseInsensitive bool) int {
	if caseInsensitive || len(rest) == 0 {
		return 0
	}
	var off int
	switch rest[0].kind {
	case atomByte:
		off = simd.Memchr(data, rest[0].b)
	case atomClass:
		c := rest[0].class
		if c.Negate {
			off = simd.MemchrNotInTable(data, &c.Set)
		} else {
			off = simd.MemchrInTable(data, &c.Set)
		}
	default:
		return 0
	}
	if off < 0 {
		return len(data)
	}
	return off
}

func atomMatches(a atom, b byte, caseInsensitive bool) bool {
	switch a.kind {
	case atomByte:
		if caseInsensitive {
			return ASCIIFoldByte(a.b) == ASCIIFoldByte(b)
		}
		return a.b == b
	case atomAny:
		return true
	case atomClass:
		return a.class.Matches(b)
	default:
		return false
	}
}
