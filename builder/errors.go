package builder

import "errors"

var (
	// ErrInvalidIP is returned by AddIP/AddEntry when a key classified
	// (or explicitly tagged) as an IP or CIDR doesn't parse as one.
	ErrInvalidIP = errors.New("builder: invalid IP address or CIDR")

	// ErrInvalidGlob is returned by AddGlob/AddEntry when a key
	// classified (or explicitly tagged) as a glob fails to parse, e.g.
	// an unterminated `[` character class.
	ErrInvalidGlob = errors.New("builder: invalid glob pattern")

	// ErrEmptyLiteral is returned for a literal key of length zero; the
	// literal table has no way to represent it (internal/littable
	// rejects it for the same reason).
	ErrEmptyLiteral = errors.New("builder: literal key must not be empty")

	// ErrPayloadTooLarge is returned when one entry's encoded payload
	// overflows the data section's size-class encoding.
	ErrPayloadTooLarge = errors.New("builder: entry payload too large to encode")

	// ErrDatabaseTooLarge is returned by Build when the assembled file
	// would exceed 2^32 bytes, the largest offset the MMDB pointer and
	// record encodings can address.
	ErrDatabaseTooLarge = errors.New("builder: assembled database exceeds the 4 GiB addressable limit")

	// ErrUnsupportedRecordSize is returned by NewBuilder for any
	// record_size other than 24, 28, or 32.
	ErrUnsupportedRecordSize = errors.New("builder: unsupported record size")

	// ErrUnsupportedIPVersion is returned by NewBuilder for any
	// ip_version other than 4 or 6.
	ErrUnsupportedIPVersion = errors.New("builder: unsupported IP version")

	// ErrUnsupportedMatchMode is returned by NewBuilder for a match
	// mode other than "case_sensitive" or "case_insensitive".
	ErrUnsupportedMatchMode = errors.New("builder: match mode must be case_sensitive or case_insensitive")
)
