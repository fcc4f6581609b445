package format

import "errors"

var (
	// ErrNoMetadataMarker is returned when the MMDB metadata marker
	// can't be found anywhere in the buffer at all.
	ErrNoMetadataMarker = errors.New("format: MMDB metadata marker not found")

	// ErrLayoutOutOfBounds is returned when a computed section extends
	// past the end of the buffer.
	ErrLayoutOutOfBounds = errors.New("format: computed section layout runs past end of file")

	// ErrBadExtensionMagic is returned if bytes claimed to start a
	// PARAGLOB extension don't match.
	ErrBadExtensionMagic = errors.New("format: PARAGLOB extension magic mismatch")

	// ErrPatternArityMismatch is returned by AssembleFile when the
	// caller supplies a different number of pattern texts than pattern
	// data offsets; the two arrays are parallel and indexed by pattern_id.
	ErrPatternArityMismatch = errors.New("format: pattern texts and pattern data offsets have different lengths")
)
