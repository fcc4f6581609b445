// Command matchy builds, queries, validates, and drives batch log
// matching against Matchy database files (spec §6.6). It is a thin
// shell around the builder/matchy/internal packages: none of the
// matching logic lives here.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sethhall/matchy"
	"github.com/sethhall/matchy/builder"
	"github.com/sethhall/matchy/cmd/matchy/internal/input"
	"github.com/sethhall/matchy/cmd/matchy/internal/match"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	case "match":
		err = runMatch(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "matchy: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: matchy <subcommand> [flags]

subcommands:
  build     compile an input file into a Matchy database
  query     run a single query against a database
  match     scan a log file for indicators and query each one
  validate  check a database's structural integrity
  inspect   print a database's metadata and section summary`)
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "input file (CSV, TSV, JSON, or MISP event JSON)")
	format := fs.String("format", "csv", "input format: csv, tsv, json, misp")
	out := fs.String("out", "", "output database path")
	dbType := fs.String("db-type", "matchy", "metadata database_type")
	matchMode := fs.String("match-mode", "case_sensitive", "case_sensitive or case_insensitive")
	recordSize := fs.Uint("record-size", 24, "IP trie record size: 24, 28, or 32")
	ipVersion := fs.Int("ip-version", 6, "IP trie address family: 4 or 6")
	mergeDuplicates := fs.Bool("merge-duplicates", false, "merge duplicate keys into an array instead of last-wins")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("build: -in and -out are required")
	}

	start := time.Now()
	log.Printf("INFO: reading %s entries from %s", *format, *in)

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := parseInput(*format, f)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	log.Printf("INFO: staged %d entries", len(entries))

	b, err := builder.NewBuilder(builder.Config{
		MatchMode:    *matchMode,
		DatabaseType: *dbType,
		RecordSize:   *recordSize,
		IPVersion:    *ipVersion,
	}, builder.WithMergeDuplicates(*mergeDuplicates))
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	for _, e := range entries {
		if err := e.Stage(b); err != nil {
			return fmt.Errorf("build: staging %q: %w", e.Key, err)
		}
	}

	data, err := b.Build()
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := builder.WriteFile(*out, data); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	stats := b.Stats()
	log.Printf("INFO: wrote %s (%d bytes) in %s", *out, len(data), time.Since(start).Round(time.Millisecond))
	log.Printf("INFO: ip=%d literal=%d glob=%d universal=%d duplicates_merged=%d",
		stats.IPEntries, stats.LiteralEntries, stats.GlobEntries, stats.UniversalGlobs, stats.DuplicatesMerged)
	return nil
}

func parseInput(format string, r io.Reader) ([]input.RawEntry, error) {
	switch format {
	case "csv":
		return input.ParseCSV(r)
	case "tsv":
		return input.ParseTSV(r)
	case "json":
		return input.ParseJSON(r)
	case "misp":
		return input.ParseMISP(r)
	default:
		return nil, fmt.Errorf("unknown -format %q (want csv, tsv, json, or misp)", format)
	}
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	db := fs.String("db", "", "database path")
	q := fs.String("q", "", "query string")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" || *q == "" {
		return fmt.Errorf("query: -db and -q are required")
	}

	h, err := matchy.Open(*db)
	if err != nil {
		return err
	}
	defer h.Close()

	res, err := h.Query(*q)
	if err != nil {
		return err
	}

	switch res.Kind {
	case matchy.NotFound:
		fmt.Println("no match")
	case matchy.IPMatch:
		fmt.Printf("ip match, prefix_len=%d payload=%v\n", res.PrefixLen, res.Payloads[0])
	case matchy.ExactMatch:
		fmt.Printf("exact match, payload=%v\n", res.Payloads[0])
	case matchy.GlobMatch:
		for i, id := range res.PatternIDs {
			fmt.Printf("glob match, pattern_id=%d payload=%v\n", id, res.Payloads[i])
		}
	}
	return nil
}

func runMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	db := fs.String("db", "", "database path")
	in := fs.String("in", "", "log file to scan (default: stdin)")
	workers := fs.Int("workers", 0, "worker pool size (default: runtime.NumCPU())")
	cacheCapacity := fs.Int("cache", 1024, "per-worker query cache capacity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" {
		return fmt.Errorf("match: -db is required")
	}

	r := io.Reader(os.Stdin)
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	hits := 0
	err := match.Run(context.Background(), *db, r, match.Options{
		Workers:       *workers,
		CacheCapacity: *cacheCapacity,
	}, func(res match.Result) {
		hits++
		fmt.Printf("line=%d kind=%s candidate=%s payload=%v\n",
			res.Line, res.Candidate.Kind, res.Candidate.Value, firstPayload(res.Query))
	})
	if err != nil {
		return err
	}
	log.Printf("INFO: %d indicator hits", hits)
	return nil
}

func firstPayload(res matchy.QueryResult) matchy.Value {
	if len(res.Payloads) == 0 {
		return matchy.Value{}
	}
	return res.Payloads[0]
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	db := fs.String("db", "", "database path")
	level := fs.String("level", "standard", "standard, strict, or audit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" {
		return fmt.Errorf("validate: -db is required")
	}

	var lvl matchy.Level
	switch level1 := *level; level1 {
	case "standard":
		lvl = matchy.Standard
	case "strict":
		lvl = matchy.Strict
	case "audit":
		lvl = matchy.Audit
	default:
		return fmt.Errorf("unknown -level %q (want standard, strict, or audit)", level1)
	}

	report, err := matchy.Validate(*db, lvl)
	if err != nil {
		return err
	}
	for _, e := range report.Errors {
		fmt.Printf("ERROR: %v\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Printf("WARNING: %v\n", w)
	}
	if !report.OK() {
		os.Exit(1)
	}
	fmt.Println("ok")
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	db := fs.String("db", "", "database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *db == "" {
		return fmt.Errorf("inspect: -db is required")
	}

	h, err := matchy.Open(*db)
	if err != nil {
		return err
	}
	defer h.Close()

	insp := h.Inspect()
	fmt.Printf("database_type: %s\n", insp.Metadata.DatabaseType)
	fmt.Printf("node_count: %d\n", insp.NodeCount)
	fmt.Printf("has_literal_table: %t\n", insp.HasLiteral)
	fmt.Printf("has_glob_automaton: %t\n", insp.HasGlob)
	return nil
}
