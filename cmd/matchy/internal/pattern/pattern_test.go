package pattern

import "testing"

func findKind(t *testing.T, cands []Candidate, kind Kind) Candidate {
	t.Helper()
	for _, c := range cands {
		if c.Kind == kind {
			return c
		}
	}
	t.Fatalf("no candidate of kind %v in %+v", kind, cands)
	return Candidate{}
}

func TestExtractMixedLine(t *testing.T) {
	line := "connection from 203.0.113.5 to evil.example.com by user@evil.example.com hash d41d8cd98f00b204e9800998ecf8427e"
	cands := Extract(line)

	if got := findKind(t, cands, KindIPv4).Value; got != "203.0.113.5" {
		t.Errorf("ipv4 = %q", got)
	}
	if got := findKind(t, cands, KindEmail).Value; got != "user@evil.example.com" {
		t.Errorf("email = %q", got)
	}
	if got := findKind(t, cands, KindMD5).Value; got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("md5 = %q", got)
	}
}

func TestExtractDoesNotDoubleReportClaimedRanges(t *testing.T) {
	// The email pattern's domain half overlaps what the domain
	// scanner would otherwise also match; since email runs first, the
	// domain scanner must not also report it.
	line := "contact user@evil.example.com for details"
	cands := Extract(line)

	domainCount := 0
	for _, c := range cands {
		if c.Kind == KindDomain {
			domainCount++
		}
	}
	if domainCount != 0 {
		t.Errorf("domainCount = %d, want 0 (claimed by the email match)", domainCount)
	}
}

func TestExtractSHA256BeforeOverlappingShorterHashes(t *testing.T) {
	sha256 := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	cands := Extract("digest " + sha256 + " seen")
	got := findKind(t, cands, KindSHA256)
	if got.Value != sha256 {
		t.Errorf("sha256 = %q, want %q", got.Value, sha256)
	}
	for _, c := range cands {
		if c.Kind == KindMD5 || c.Kind == KindSHA1 {
			t.Errorf("unexpected shorter-hash candidate %+v overlapping the sha256 match", c)
		}
	}
}

func TestExtractETHAddress(t *testing.T) {
	addr := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"
	cands := Extract("wallet " + addr + " paid")
	got := findKind(t, cands, KindETHAddress)
	if got.Value != addr {
		t.Errorf("eth = %q, want %q", got.Value, addr)
	}
}
