package mmdbdata

// Encoder accumulates MMDB-encoded values into a growing buffer and
// content-addresses every UTF-8 string into a shared intern pool so
// that repeated strings (e.g. a payload key reused across thousands of
// entries) share a single encoded position (spec §4.1 step 2, "string
// interning").
type Encoder struct {
	buf    []byte
	strPos map[string]int // interned string -> offset of its encoding
}

// NewEncoder returns an empty Encoder. Offset 0 is reserved: MMDB
// readers treat a zero data-pointer as "no record", so the encoder
// always emits one throwaway byte first.
func NewEncoder() *Encoder {
	return &Encoder{
		buf:    []byte{0},
		strPos: make(map[string]int),
	}
}

// Bytes returns the encoded data-section buffer built so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the current buffer length, i.e. the offset the next
// encoded value will start at.
func (e *Encoder) Len() int { return len(e.buf) }

// Put encodes v and returns the byte offset (within the data section)
// where its encoding begins. Strings are interned: a repeat of an
// already-encoded string returns the earlier offset without writing
// anything new.
func (e *Encoder) Put(v Value) (int, error) {
	if v.Kind == KindString {
		if off, ok := e.strPos[v.Str]; ok {
			return off, nil
		}
		off := len(e.buf)
		if err := e.encode(v); err != nil {
			return 0, err
		}
		e.strPos[v.Str] = off
		return off, nil
	}
	off := len(e.buf)
	if err := e.encode(v); err != nil {
		return 0, err
	}
	return off, nil
}

func (e *Encoder) encode(v Value) error {
	switch v.Kind {
	case KindString:
		return e.encodeSized(2, []byte(v.Str))
	case KindDouble:
		return e.encodeSized(3, u64Bytes(float64bits(v.F64)))
	case KindBytes:
		return e.encodeSized(4, v.Bytes)
	case KindUint16:
		return e.encodeSized(5, trimLeadingZeros(u64Bytes(uint64(v.U16))))
	case KindUint32:
		return e.encodeSized(6, trimLeadingZeros(u64Bytes(uint64(v.U32))))
	case KindMap:
		return e.encodeMap(v.Map)
	case KindInt32:
		// Int32 is encoded as its two's-complement bytes, minimally sized.
		return e.encodeSized(8, trimLeadingZeros(u64Bytes(uint64(uint32(v.I32)))))
	case KindUint64:
		return e.encodeSized(9, trimLeadingZeros(u64Bytes(v.U64)))
	case KindUint128:
		return e.encodeSized(10, trim128(v.U128Hi, v.U128Lo))
	case KindArray:
		return e.encodeArray(v.Array)
	case KindBoolean:
		return e.encodeBool(v.Bool)
	case KindFloat32:
		return e.encodeSized(15, u32Bytes(float32bits(v.F32)))
	default:
		return ErrBadControlByte
	}
}

// encodeSized writes a control byte (type, extended size) followed by
// payload, matching the MMDB size-class encoding used by the decoder.
func (e *Encoder) encodeSized(typeNum int, payload []byte) error {
	if err := e.writeControl(typeNum, len(payload)); err != nil {
		return err
	}
	e.buf = append(e.buf, payload...)
	return nil
}

func (e *Encoder) writeControl(typeNum, size int) error {
	base := typeNum
	extType := -1
	if typeNum > 7 {
		extType = typeNum - 7
		base = 0
	}

	var sizeBits int
	var extra []byte
	switch {
	case size < 29:
		sizeBits = size
	case size < 285:
		sizeBits = 29
		extra = []byte{byte(size - 29)}
	case size < 65821:
		v := size - 285
		sizeBits = 30
		extra = []byte{byte(v >> 8), byte(v)}
	case size-65821 <= 0xFFFFFF:
		v := size - 65821
		sizeBits = 31
		extra = []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	default:
		return ErrPayloadTooLarge
	}

	ctrl := byte(base<<5) | byte(sizeBits)
	e.buf = append(e.buf, ctrl)
	if extType >= 0 {
		e.buf = append(e.buf, byte(extType))
	}
	e.buf = append(e.buf, extra...)
	return nil
}

func (e *Encoder) encodeBool(b bool) error {
	size := 0
	if b {
		size = 1
	}
	return e.writeControl(14, size)
}

func (e *Encoder) encodeMap(entries []Entry) error {
	if err := e.writeControl(7, len(entries)); err != nil {
		return err
	}
	for _, ent := range entries {
		if err := e.putMember(String(ent.Key)); err != nil {
			return err
		}
		if err := e.putMember(ent.Value); err != nil {
			return err
		}
	}
	return nil
}

// putMember encodes one map key/value or array element in place. A
// container's members must follow it contiguously, so a string that is
// already interned is written as a pointer to its earlier encoding.
func (e *Encoder) putMember(v Value) error {
	if v.Kind == KindString {
		if off, ok := e.strPos[v.Str]; ok {
			_, err := e.PutPointer(off)
			return err
		}
	}
	_, err := e.Put(v)
	return err
}

func (e *Encoder) encodeArray(vals []Value) error {
	if err := e.writeControl(11, len(vals)); err != nil {
		return err
	}
	for _, v := range vals {
		if err := e.putMember(v); err != nil {
			return err
		}
	}
	return nil
}

// PutPointer writes a pointer value referencing an already-encoded
// offset and returns the pointer's own offset. Used when the same
// value must be referenced from more than one place without
// re-encoding it (e.g. an interned string repeated inside a map or
// array).
func (e *Encoder) PutPointer(target int) (int, error) {
	off := len(e.buf)
	switch {
	case target < 2048:
		e.buf = append(e.buf, byte(1<<5)|byte(target>>8), byte(target))
	case target < 526336:
		v := target - 2048
		e.buf = append(e.buf, byte(1<<5)|byte(1<<3)|byte(v>>16), byte(v>>8), byte(v))
	case target < 526336+16777216:
		v := target - 526336
		e.buf = append(e.buf, byte(1<<5)|byte(2<<3)|byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		e.buf = append(e.buf, byte(1<<5)|byte(3<<3), byte(target>>24), byte(target>>16), byte(target>>8), byte(target))
	}
	return off, nil
}

func u64Bytes(v uint64) []byte {
	return []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

func u32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// trimLeadingZeros drops leading zero bytes, matching the MMDB
// convention that a zero-valued number is encoded with zero payload
// bytes (size class 0) rather than a padded fixed width.
func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func trim128(hi, lo uint64) []byte {
	full := append(u64Bytes(hi), u64Bytes(lo)...)
	return trimLeadingZeros(full)
}
