// Package matchy opens and queries a compiled matching database: a
// single memory-mapped file holding an MMDB-compatible IP trie, a
// literal hash table, and an Aho-Corasick automaton over glob meta-
// words, produced by package builder.
package matchy

import (
	"os"

	"github.com/sethhall/matchy/internal/validate"
)

// Level re-exports the validation levels Open and Validate accept.
type Level = validate.Level

const (
	Standard = validate.Standard
	Strict   = validate.Strict
	Audit    = validate.Audit
)

// Report re-exports internal/validate's validation report.
type Report = validate.Report

// Validate reads and validates the database at path at the given
// level, without holding it open afterward.
func Validate(path string, level Level) (Report, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	return validate.Validate(buf, level), nil
}
