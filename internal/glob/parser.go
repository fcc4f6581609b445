package glob

// Parse lowers a glob pattern string into a Pattern token sequence.
// Metacharacters are `*` (any run, including empty), `?` (exactly one
// byte), `[set]`/`[!set]` (one byte in/not in set, with `a-z`-style
// ranges). Everything else is literal, copied byte-for-byte so
// multi-byte UTF-8 runs inside a literal segment survive untouched —
// only the class/range parser below operates byte-wise, and only on
// the bytes between `[` and `]`.
func Parse(pattern string) (Pattern, error) {
	var p Pattern
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			p.Tokens = append(p.Tokens, Token{Kind: TokLiteral, Literal: lit})
			lit = nil
		}
	}

	i := 0
	b := []byte(pattern)
	for i < len(b) {
		c := b[i]
		switch c {
		case '*':
			flush()
			p.Tokens = append(p.Tokens, Token{Kind: TokStar})
			i++
		case '?':
			flush()
			p.Tokens = append(p.Tokens, Token{Kind: TokQuestion})
			i++
		case '[':
			flush()
			cls, next, err := parseClass(b, i)
			if err != nil {
				return Pattern{}, err
			}
			p.Tokens = append(p.Tokens, Token{Kind: TokClass, Class: cls})
			i = next
		default:
			lit = append(lit, c)
			i++
		}
	}
	flush()
	return p, nil
}

// parseClass parses a `[...]` class starting at b[start] == '['. It
// returns the class and the index just past the closing `]`.
func parseClass(b []byte, start int) (*Class, int, error) {
	i := start + 1
	cls := &Class{}
	if i < len(b) && b[i] == '!' {
		cls.Negate = true
		i++
	}
	n := 0
	for i < len(b) && b[i] != ']' {
		if i+2 < len(b) && b[i+1] == '-' && b[i+2] != ']' {
			lo, hi := b[i], b[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			for c := int(lo); c <= int(hi); c++ {
				cls.Set[c] = true
			}
			n++
			i += 3
			continue
		}
		cls.Set[b[i]] = true
		n++
		i++
	}
	if i >= len(b) {
		return nil, 0, ErrUnterminatedClass
	}
	if n == 0 {
		return nil, 0, ErrEmptyClass
	}
	return cls, i + 1, nil
}

// HasWildcard reports whether pattern contains any glob metacharacter
// at all (`*`, `?`, or `[`); escapes are not considered. The builder's
// autodetection classifier does its own check in classify.go.
func HasWildcard(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
