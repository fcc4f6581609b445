// Package pattern implements the log-line candidate scanner described
// in spec §1 and expanded in spec §6.5: a set of precompiled regexes
// for the indicator shapes a log line is likely to carry. This is a
// thin external collaborator, not core matching logic — the core
// matcher never uses a regex engine (see its Non-goals).
package pattern

import "regexp"

// Kind identifies the shape of an extracted candidate.
type Kind int

const (
	KindIPv4 Kind = iota
	KindIPv6
	KindDomain
	KindEmail
	KindMD5
	KindSHA1
	KindSHA256
	KindSHA512
	KindBTCAddress
	KindETHAddress
)

func (k Kind) String() string {
	switch k {
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindDomain:
		return "domain"
	case KindEmail:
		return "email"
	case KindMD5:
		return "md5"
	case KindSHA1:
		return "sha1"
	case KindSHA256:
		return "sha256"
	case KindSHA512:
		return "sha512"
	case KindBTCAddress:
		return "btc"
	case KindETHAddress:
		return "eth"
	default:
		return "unknown"
	}
}

// Candidate is one indicator found in a log line, along with its byte
// offset within that line so a caller can report context.
type Candidate struct {
	Kind   Kind
	Value  string
	Offset int
}

// Order matters: longer/more specific hash and address patterns are
// checked before the shorter, more general ones they could otherwise
// be mistaken for (e.g. a SHA256 digest is also a syntactically valid
// run of hex that an unordered scan could misreport as something
// shorter).
var scanners = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{KindIPv4, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9]?[0-9])\b`)},
	{KindIPv6, regexp.MustCompile(`\b(?:[A-Fa-f0-9]{1,4}:){2,7}[A-Fa-f0-9]{1,4}\b`)},
	{KindSHA512, regexp.MustCompile(`\b[A-Fa-f0-9]{128}\b`)},
	{KindSHA256, regexp.MustCompile(`\b[A-Fa-f0-9]{64}\b`)},
	{KindSHA1, regexp.MustCompile(`\b[A-Fa-f0-9]{40}\b`)},
	{KindMD5, regexp.MustCompile(`\b[A-Fa-f0-9]{32}\b`)},
	{KindETHAddress, regexp.MustCompile(`\b0x[A-Fa-f0-9]{40}\b`)},
	{KindBTCAddress, regexp.MustCompile(`\b(?:[13][A-HJ-NP-Za-km-z1-9]{25,34}|bc1[a-z0-9]{25,60})\b`)},
	{KindDomain, regexp.MustCompile(`\b(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,}\b`)},
}

// Extract scans line for every indicator shape Matchy knows about,
// returning one Candidate per match per scanner. A byte range claimed
// by an earlier (higher-priority) scanner in this pass is not
// re-reported by a later, more general one.
func Extract(line string) []Candidate {
	var candidates []Candidate
	claimed := make([]bool, len(line)+1)

	for _, s := range scanners {
		for _, loc := range s.re.FindAllStringIndex(line, -1) {
			start, end := loc[0], loc[1]
			if rangeClaimed(claimed, start, end) {
				continue
			}
			markClaimed(claimed, start, end)
			candidates = append(candidates, Candidate{
				Kind:   s.kind,
				Value:  line[start:end],
				Offset: start,
			})
		}
	}
	return candidates
}

func rangeClaimed(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func markClaimed(claimed []bool, start, end int) {
	for i := start; i < end; i++ {
		claimed[i] = true
	}
}
