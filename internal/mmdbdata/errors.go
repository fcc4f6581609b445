package mmdbdata

import "errors"

// Sentinel errors surfaced by the decoder. Validated databases should
// never hit these at query time (spec §7); they are returned
// defensively rather than causing a panic.
var (
	ErrTruncated      = errors.New("mmdbdata: value truncated")
	ErrBadControlByte = errors.New("mmdbdata: unsupported control byte")
	ErrBadPointer     = errors.New("mmdbdata: pointer resolves out of bounds")
	ErrPointerCycle   = errors.New("mmdbdata: pointer chain exceeds depth bound")
	ErrBadUTF8        = errors.New("mmdbdata: string is not valid UTF-8")
	ErrPayloadTooLarge = errors.New("mmdbdata: encoded payload exceeds 2^32 bytes")
)

// MaxPointerChainDepth bounds pointer-chain recursion at decode time
// (spec invariant 5: "Every pointer chain in the data section has
// length <= 32").
const MaxPointerChainDepth = 32
