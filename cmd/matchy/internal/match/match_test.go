package match

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sethhall/matchy/builder"
	"github.com/sethhall/matchy/internal/mmdbdata"
)

func buildTestDatabase(t *testing.T) string {
	t.Helper()
	b, err := builder.NewBuilder(builder.Config{DatabaseType: "matchy-match-test"})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := b.AddIP("203.0.113.0/24", mmdbdata.String("cidr-hit")); err != nil {
		t.Fatalf("AddIP: %v", err)
	}
	if err := b.AddLiteral("evil.example.com", mmdbdata.String("literal-hit")); err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	file, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "test.matchy")
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunFindsMatchesAcrossWorkers(t *testing.T) {
	path := buildTestDatabase(t)
	log := strings.Join([]string{
		"2026-07-31 conn from 203.0.113.5 refused",
		"2026-07-31 lookup for evil.example.com failed",
		"2026-07-31 conn from 198.51.100.1 accepted",
	}, "\n")

	var mu sync.Mutex
	var results []Result
	err := Run(context.Background(), path, strings.NewReader(log), Options{Workers: 4, CacheCapacity: 16}, func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}

	byLine := map[int]Result{}
	for _, r := range results {
		byLine[r.Line] = r
	}
	if r, ok := byLine[1]; !ok || r.Candidate.Value != "203.0.113.5" {
		t.Errorf("line 1 result = %+v", r)
	}
	if r, ok := byLine[2]; !ok || r.Candidate.Value != "evil.example.com" {
		t.Errorf("line 2 result = %+v", r)
	}
	if _, ok := byLine[3]; ok {
		t.Errorf("line 3 should have produced no match (unrelated address)")
	}
}

func TestRunDefaultsWorkerCount(t *testing.T) {
	path := buildTestDatabase(t)
	err := Run(context.Background(), path, strings.NewReader("nothing here\n"), Options{}, func(Result) {
		t.Error("unexpected match on a line with no indicators")
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunReturnsErrorForMissingDatabase(t *testing.T) {
	err := Run(context.Background(), "/nonexistent/path.matchy", strings.NewReader("x\n"), Options{Workers: 1}, func(Result) {})
	if err == nil {
		t.Fatal("expected an error opening a nonexistent database")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	path := buildTestDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, path, strings.NewReader("203.0.113.5\nevil.example.com\n"), Options{Workers: 1}, func(Result) {})
	if err == nil {
		t.Fatal("expected Run to report the cancellation")
	}
}
