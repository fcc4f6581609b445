package glob

import "errors"

var (
	// ErrUnterminatedClass is returned when a `[` bracket class has no
	// matching `]`.
	ErrUnterminatedClass = errors.New("glob: unterminated [ character class")

	// ErrEmptyClass is returned for `[]` or `[!]`, which match nothing
	// and nothing useful respectively.
	ErrEmptyClass = errors.New("glob: empty character class")
)
