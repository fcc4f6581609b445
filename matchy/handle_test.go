package matchy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethhall/matchy/builder"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

func buildTestDatabase(t *testing.T) []byte {
	t.Helper()
	b, err := builder.NewBuilder(builder.Config{DatabaseType: "matchy-handle-test"})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := b.AddIP("203.0.113.0/24", mmdbdata.String("cidr-hit")); err != nil {
		t.Fatalf("AddIP: %v", err)
	}
	if err := b.AddLiteral("evil.example.com", mmdbdata.String("literal-hit")); err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	if err := b.AddGlob("*.evil.example.com", mmdbdata.String("glob-hit")); err != nil {
		t.Fatalf("AddGlob: %v", err)
	}
	file, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return file
}

func TestOpenBytesQueryIPMatch(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	res, err := h.Query("203.0.113.5")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Kind != IPMatch {
		t.Fatalf("Kind = %v, want IPMatch", res.Kind)
	}
	// PrefixLen is relative to the matched address's own family, so an
	// IPv4 /24 entry reports 24 even though this trie is dual-stack.
	if res.PrefixLen != 24 {
		t.Errorf("PrefixLen = %d, want 24", res.PrefixLen)
	}
	if len(res.Payloads) != 1 || res.Payloads[0].Str != "cidr-hit" {
		t.Errorf("Payloads = %+v, want [cidr-hit]", res.Payloads)
	}
}

func TestOpenBytesQueryExactMatch(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	res, err := h.Query("evil.example.com")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Kind != ExactMatch {
		t.Fatalf("Kind = %v, want ExactMatch", res.Kind)
	}
	if len(res.Payloads) != 1 || res.Payloads[0].Str != "literal-hit" {
		t.Errorf("Payloads = %+v, want [literal-hit]", res.Payloads)
	}
}

func TestOpenBytesQueryGlobMatch(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	res, err := h.Query("mail.evil.example.com")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Kind != GlobMatch {
		t.Fatalf("Kind = %v, want GlobMatch", res.Kind)
	}
	if len(res.PatternIDs) != 1 || len(res.Payloads) != 1 || res.Payloads[0].Str != "glob-hit" {
		t.Errorf("unexpected glob result: %+v", res)
	}
}

func TestOpenBytesQueryNotFound(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	res, err := h.Query("totally-unrelated.example.org")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Kind != NotFound {
		t.Errorf("Kind = %v, want NotFound", res.Kind)
	}
}

func TestLookupIPFoundAndNotFound(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	res, err := h.LookupIP("203.0.113.5")
	if err != nil {
		t.Fatalf("LookupIP: %v", err)
	}
	if !res.Found || res.Payload.Str != "cidr-hit" {
		t.Errorf("res = %+v, want a cidr-hit", res)
	}

	res, err = h.LookupIP("198.51.100.1")
	if err != nil {
		t.Fatalf("LookupIP: %v", err)
	}
	if res.Found {
		t.Errorf("res.Found = true, want false for an unrelated address")
	}
}

func TestLookupIPRejectsMalformedAddress(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	if _, err := h.LookupIP("not-an-ip"); !errors.Is(err, ErrInvalidIP) {
		t.Errorf("err = %v, want ErrInvalidIP", err)
	}
}

func TestCacheHitAndClear(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t), WithCacheCapacity(8))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	if _, err := h.Query("evil.example.com"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := h.CacheSize(); got != 1 {
		t.Errorf("CacheSize = %d, want 1", got)
	}
	h.ClearCache()
	if got := h.CacheSize(); got != 0 {
		t.Errorf("CacheSize after ClearCache = %d, want 0", got)
	}
}

func TestCacheDisabledByDefault(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	if _, err := h.Query("evil.example.com"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := h.CacheSize(); got != 0 {
		t.Errorf("CacheSize = %d, want 0 with no WithCacheCapacity", got)
	}
}

func TestCloseIsIdempotentAndBlocksQueries(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := h.Query("evil.example.com"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestInspect(t *testing.T) {
	h, err := OpenBytes(buildTestDatabase(t))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer h.Close()

	insp := h.Inspect()
	if !insp.HasLiteral || !insp.HasGlob {
		t.Errorf("Inspection = %+v, want both HasLiteral and HasGlob", insp)
	}
	if insp.Metadata.DatabaseType != "matchy-handle-test" {
		t.Errorf("DatabaseType = %q, want matchy-handle-test", insp.Metadata.DatabaseType)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.matchy")
	if err := os.WriteFile(path, []byte("not a database"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrInvalidDatabase) {
		t.Errorf("err = %v, want ErrInvalidDatabase", err)
	}
}

func TestOpenRoundTripsThroughAFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "good.matchy")
	if err := os.WriteFile(path, buildTestDatabase(t), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	res, err := h.Query("evil.example.com")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Kind != ExactMatch {
		t.Errorf("Kind = %v, want ExactMatch", res.Kind)
	}
}

func TestValidateWrapper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "good.matchy")
	if err := os.WriteFile(path, buildTestDatabase(t), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rep, err := Validate(path, Standard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !rep.OK() {
		t.Errorf("rep.OK() = false, errors = %v", rep.Errors)
	}
}
