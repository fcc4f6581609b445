package validate

import "errors"

var (
	ErrBadMagic           = errors.New("validate: bad file magic")
	ErrBadVersion         = errors.New("validate: unsupported format version")
	ErrSectionOutOfBounds = errors.New("validate: section offset out of bounds")
	ErrBadUTF8            = errors.New("validate: invalid UTF-8 in string field")
	ErrNotPowerOfTwo      = errors.New("validate: literal table size is not a power of two")
	ErrTrieCycle          = errors.New("validate: IP trie contains a cycle")
	ErrTrieOutOfBounds    = errors.New("validate: IP trie record points out of bounds")
	ErrTrieTooDeep        = errors.New("validate: IP trie traversal exceeded address bit length")
	ErrACFailureCycle     = errors.New("validate: AC failure link does not terminate at root")
	ErrACBadNode          = errors.New("validate: AC node offset is invalid")
	ErrPointerTooDeep     = errors.New("validate: data pointer chain exceeds depth bound")
	ErrBadTypeByte        = errors.New("validate: data value has an unrecognized type byte")
)
