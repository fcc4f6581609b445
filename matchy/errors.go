package matchy

import "errors"

var (
	// ErrInvalidDatabase is returned by Open/OpenBytes when the buffer
	// fails metadata parsing or, unless WithTrusted is set, validation.
	ErrInvalidDatabase = errors.New("matchy: invalid database")

	// ErrInvalidIP is returned by LookupIP for a string that doesn't
	// parse as an IP address.
	ErrInvalidIP = errors.New("matchy: invalid IP address")

	// ErrDecodeError is returned when a match is found but its payload
	// or an automaton/pattern-text section can't be decoded, which
	// indicates a corrupt database that passed validation at open time.
	ErrDecodeError = errors.New("matchy: decode error")

	// ErrClosed is returned by any Handle method called after Close.
	ErrClosed = errors.New("matchy: handle is closed")
)
