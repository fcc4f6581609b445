package builder

import (
	"regexp"
	"strings"
)

// Kind is the detected or explicitly tagged shape of an entry key.
type Kind int

const (
	KindIP Kind = iota
	KindLiteral
	KindGlob
)

// ipv4Chars and ipv6Chars are deliberately permissive: they only need
// to tell an IP/CIDR-shaped key apart from a literal or glob one, not
// to validate it. Anything that looks IP-shaped but doesn't actually
// parse comes back as ErrInvalidIP from netip, not a silent
// misclassification into KindLiteral.
var (
	ipv4Chars = regexp.MustCompile(`^[0-9.]+(/[0-9]+)?$`)
	ipv6Chars = regexp.MustCompile(`^[0-9a-fA-F:]+(/[0-9]+)?$`)
)

// classify detects the kind of key, honoring an explicit "ip:",
// "literal:", or "glob:" prefix override before falling back to
// autodetection. It returns the kind and the key with any override
// prefix stripped.
func classify(key string) (Kind, string) {
	switch {
	case strings.HasPrefix(key, "ip:"):
		return KindIP, key[len("ip:"):]
	case strings.HasPrefix(key, "literal:"):
		return KindLiteral, key[len("literal:"):]
	case strings.HasPrefix(key, "glob:"):
		return KindGlob, key[len("glob:"):]
	}

	if looksLikeIP(key) {
		return KindIP, key
	}
	if looksLikeGlob(key) {
		return KindGlob, key
	}
	return KindLiteral, key
}

func looksLikeIP(key string) bool {
	return ipv4Chars.MatchString(key) || ipv6Chars.MatchString(key)
}

func looksLikeGlob(key string) bool {
	return strings.ContainsAny(key, "*?[")
}
