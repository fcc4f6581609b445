package littable

import "errors"

var (
	// ErrEmptyKey is returned when a literal key is the empty string;
	// the zero key_offset is reserved as the "bucket empty" sentinel,
	// so the blob's offset-0 slot is never a real key.
	ErrEmptyKey = errors.New("littable: literal key must not be empty")

	// ErrTableFull is returned if a Builder's quadratic probe cannot
	// place a key within the bucket array, which should not happen
	// given the target load factor but is checked defensively.
	ErrTableFull = errors.New("littable: table full, probe exhausted")

	// ErrCorruptTable is a validation-time error for a malformed bucket
	// array: size not a power of two, or an offset pointing outside
	// the key blob.
	ErrCorruptTable = errors.New("littable: bucket array is corrupt")
)
