package iptrie

import "errors"

var (
	// ErrInvalidIP is returned when a query string does not parse as an
	// IP address. Not fatal to the database (spec §4.2 "Errors").
	ErrInvalidIP = errors.New("iptrie: invalid IP address")

	// ErrInvalidCIDR is returned by the builder when a CIDR string is
	// malformed.
	ErrInvalidCIDR = errors.New("iptrie: invalid CIDR")

	// ErrUnsupportedRecordSize is returned for any record_size other
	// than 24, 28, or 32.
	ErrUnsupportedRecordSize = errors.New("iptrie: unsupported record size")

	// ErrCorruptTree is a validation-time error: an offset read from
	// the tree pointed somewhere the invariants in spec §3.2 forbid.
	ErrCorruptTree = errors.New("iptrie: search tree is corrupt")

	// ErrIPv6InIPv4Only is returned when an IPv6 address is looked up
	// against a database built with ip_version=4.
	ErrIPv6InIPv4Only = errors.New("iptrie: IPv6 address queried against an IPv4-only database")

	// ErrPointerOverflow is returned by the builder when record packing
	// would overflow the chosen record width.
	ErrPointerOverflow = errors.New("iptrie: pointer arithmetic overflow while packing record")
)
