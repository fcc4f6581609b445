// Package mmdbdata implements the MaxMind DB data-section codec: the
// variable-length value format used for every payload Matchy stores
// (map, array, string, bytes, booleans, the numeric family, and
// pointers), plus the 14-byte metadata marker and metadata map that
// terminates every database file.
//
// Matchy's data section is backward-compatible with the MMDB spec so
// that IP-trie leaves, literal-table payloads, and AC pattern payloads
// can all share one encoding and one decoder.
package mmdbdata

// Kind identifies the shape of a decoded Value.
type Kind uint8

const (
	KindPointer Kind = iota
	KindString
	KindDouble
	KindBytes
	KindUint16
	KindUint32
	KindMap
	KindInt32
	KindUint64
	KindUint128
	KindArray
	KindBoolean
	KindFloat32
)

// Entry is one key/value pair of an ordered Map. Key order is preserved
// so that two builder runs over the same input produce byte-identical
// output (spec §4.1 "Determinism").
type Entry struct {
	Key   string
	Value Value
}

// Value is a recursive MMDB-encoded data value. Exactly one of the
// fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str     string
	Bytes   []byte
	Bool    bool
	I32     int32
	U16     uint16
	U32     uint32
	U64     uint64
	U128Hi  uint64 // high 64 bits of a 128-bit unsigned integer
	U128Lo  uint64 // low 64 bits
	F32     float32
	F64     float64
	Array   []Value
	Map     []Entry
}

// String constructs a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bytes constructs a byte-string Value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Int32 constructs a signed 32-bit Value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I32: v} }

// Uint16 constructs an unsigned 16-bit Value.
func Uint16(v uint16) Value { return Value{Kind: KindUint16, U16: v} }

// Uint32 constructs an unsigned 32-bit Value.
func Uint32(v uint32) Value { return Value{Kind: KindUint32, U32: v} }

// Uint64 constructs an unsigned 64-bit Value.
func Uint64(v uint64) Value { return Value{Kind: KindUint64, U64: v} }

// Uint128 constructs an unsigned 128-bit Value from its high and low
// 64-bit halves.
func Uint128(hi, lo uint64) Value { return Value{Kind: KindUint128, U128Hi: hi, U128Lo: lo} }

// Float32 constructs a single-precision float Value.
func Float32(v float32) Value { return Value{Kind: KindFloat32, F32: v} }

// Float64 constructs a double-precision float Value.
func Float64(v float64) Value { return Value{Kind: KindDouble, F64: v} }

// Array constructs an array Value.
func Array(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }

// Map constructs an ordered-map Value. Entries are encoded in the order
// given; callers that need deterministic output across runs must sort
// entries themselves before calling Map.
func Map(entries []Entry) Value { return Value{Kind: KindMap, Map: entries} }

// Get returns the value for key in a Map Value, and whether it was found.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.Map {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}
