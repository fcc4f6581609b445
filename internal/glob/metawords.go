package glob

// MetaWords extracts the maximal literal substrings between wildcards
// (spec §3.1's definition), which the builder feeds into the AC
// automaton. A pattern with no literal tokens at all (Pattern.IsUniversal)
// returns an empty slice.
func MetaWords(p Pattern) []string {
	var words []string
	for _, t := range p.Tokens {
		if t.Kind == TokLiteral && len(t.Literal) > 0 {
			words = append(words, string(t.Literal))
		}
	}
	return words
}

// SingleMetaWord reports whether p is exactly one literal token with no
// wildcards at all — the "glob forced on a plain string" case (spec
// scenario: "meta-word equal to entire glob, i.e. no wildcards when
// forced as glob"). The query path does not use it: such a glob is
// verified like any other AC candidate.
func SingleMetaWord(p Pattern) (string, bool) {
	if len(p.Tokens) == 1 && p.Tokens[0].Kind == TokLiteral {
		return string(p.Tokens[0].Literal), true
	}
	return "", false
}

// ASCIIFoldByte lowercases b if it's an ASCII uppercase letter,
// otherwise returns it unchanged. Used to fold bytes on the fly while
// scanning (spec §4.3 "bytes fed into the automaton are ASCII-
// lowercased on the fly"); non-ASCII bytes are never touched, which
// sidesteps the UTF-8-boundary-splitting hazard the spec calls out.
func ASCIIFoldByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// ASCIIFoldString applies ASCIIFoldByte across s, used by the builder
// to fold stored meta-words and literal keys so case variants
// deduplicate (spec §4.3 "the builder lowercases meta-words").
func ASCIIFoldString(s string) string {
	out := []byte(s)
	changed := false
	for i := 0; i < len(out); i++ {
		f := ASCIIFoldByte(out[i])
		if f != out[i] {
			out[i] = f
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(out)
}
