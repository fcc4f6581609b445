package mmdbdata

import "unicode/utf8"

// Decoder decodes MMDB-encoded values out of a data-section buffer.
// Offset 0 in the public API always refers to byte 0 of this buffer
// (the data section, not the whole file) — callers translate file
// offsets to data-section offsets before calling Decode.
type Decoder struct {
	buf []byte

	// CheckUTF8 enables UTF-8 validation of decoded strings. Disabled
	// in trusted mode for a documented speedup (spec §9 "Trust mode").
	CheckUTF8 bool
}

// NewDecoder wraps buf (the data section) for decoding.
func NewDecoder(buf []byte, checkUTF8 bool) *Decoder {
	return &Decoder{buf: buf, CheckUTF8: checkUTF8}
}

// Decode decodes a complete value starting at byte offset off, following
// pointers as needed, and returns the decoded value plus the offset of
// the byte immediately following the value's own encoding. For a
// pointer, that "next" offset is just past the pointer's own bytes, not
// past whatever it points to (the MMDB convention: a pointer is
// fixed-size in its containing structure regardless of its target).
func (d *Decoder) Decode(off int) (Value, int, error) {
	return d.decode(off, 0)
}

func (d *Decoder) decode(off int, chainDepth int) (Value, int, error) {
	if off < 0 || off >= len(d.buf) {
		return Value{}, 0, ErrTruncated
	}

	ctrl := d.buf[off]
	typeNum := int(ctrl >> 5)
	sizeBits := int(ctrl & 0x1F)
	pos := off + 1

	if typeNum == 0 {
		// Extended type: next byte holds (actual_type - 7).
		if pos >= len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		typeNum = int(d.buf[pos]) + 7
		pos++
	}

	if typeNum == 1 {
		return d.decodePointer(ctrl, pos, chainDepth)
	}

	size, pos, err := d.decodeSize(sizeBits, pos)
	if err != nil {
		return Value{}, 0, err
	}

	switch typeNum {
	case 2, 3, 4, 5, 6, 8, 9, 10, 15:
		if pos+size > len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		payload := d.buf[pos : pos+size]
		v, err := d.decodeScalar(typeNum, payload)
		return v, pos + size, err
	case 7:
		return d.decodeMap(size, pos, chainDepth)
	case 11:
		return d.decodeArray(size, pos, chainDepth)
	case 14:
		return Bool(size != 0), pos, nil
	default:
		return Value{}, 0, ErrBadControlByte
	}
}

// decodeSize reads the extended-size bytes, if any, per the MMDB
// control-byte convention: size values 29/30/31 signal 1/2/3 following
// bytes respectively, added to a fixed base.
func (d *Decoder) decodeSize(sizeBits, pos int) (int, int, error) {
	switch {
	case sizeBits < 29:
		return sizeBits, pos, nil
	case sizeBits == 29:
		if pos+1 > len(d.buf) {
			return 0, 0, ErrTruncated
		}
		return 29 + int(d.buf[pos]), pos + 1, nil
	case sizeBits == 30:
		if pos+2 > len(d.buf) {
			return 0, 0, ErrTruncated
		}
		return 285 + int(d.buf[pos])<<8 + int(d.buf[pos+1]), pos + 2, nil
	default: // 31
		if pos+3 > len(d.buf) {
			return 0, 0, ErrTruncated
		}
		return 65821 + int(d.buf[pos])<<16 + int(d.buf[pos+1])<<8 + int(d.buf[pos+2]), pos + 3, nil
	}
}

func (d *Decoder) decodePointer(ctrl byte, pos int, chainDepth int) (Value, int, error) {
	if chainDepth >= MaxPointerChainDepth {
		return Value{}, 0, ErrPointerCycle
	}

	sizeClass := (ctrl >> 3) & 0x3
	highBits := int(ctrl & 0x7)

	var value, consumed int
	switch sizeClass {
	case 0:
		if pos+1 > len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		value = highBits<<8 | int(d.buf[pos])
		consumed = 1
	case 1:
		if pos+2 > len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		value = highBits<<16 | int(d.buf[pos])<<8 | int(d.buf[pos+1])
		value += 2048
		consumed = 2
	case 2:
		if pos+3 > len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		value = highBits<<24 | int(d.buf[pos])<<16 | int(d.buf[pos+1])<<8 | int(d.buf[pos+2])
		value += 526336
		consumed = 3
	default: // 3
		if pos+4 > len(d.buf) {
			return Value{}, 0, ErrTruncated
		}
		value = int(d.buf[pos])<<24 | int(d.buf[pos+1])<<16 | int(d.buf[pos+2])<<8 | int(d.buf[pos+3])
		consumed = 4
	}

	if value < 0 || value >= len(d.buf) {
		return Value{}, 0, ErrBadPointer
	}

	target, _, err := d.decode(value, chainDepth+1)
	if err != nil {
		return Value{}, 0, err
	}
	return target, pos + consumed, nil
}

func (d *Decoder) decodeScalar(typeNum int, payload []byte) (Value, error) {
	switch typeNum {
	case 2: // string
		if d.CheckUTF8 && !utf8.Valid(payload) {
			return Value{}, ErrBadUTF8
		}
		return String(string(payload)), nil
	case 3: // double
		if len(payload) != 8 {
			return Value{}, ErrTruncated
		}
		return Float64(float64frombits(decodeUint(payload))), nil
	case 4: // bytes
		cp := make([]byte, len(payload))
		copy(cp, payload)
		return Bytes(cp), nil
	case 5: // uint16
		return Uint16(uint16(decodeUint(payload))), nil
	case 6: // uint32
		return Uint32(uint32(decodeUint(payload))), nil
	case 8: // int32
		return Int32(int32(uint32(decodeUint(payload)))), nil
	case 9: // uint64
		return Uint64(decodeUint(payload)), nil
	case 10: // uint128
		hi, lo := decodeUint128(payload)
		return Uint128(hi, lo), nil
	case 15: // float32
		if len(payload) != 4 {
			return Value{}, ErrTruncated
		}
		return Float32(float32frombits(uint32(decodeUint(payload)))), nil
	default:
		return Value{}, ErrBadControlByte
	}
}

func (d *Decoder) decodeMap(count, pos, chainDepth int) (Value, int, error) {
	entries := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		key, next, err := d.decode(pos, chainDepth)
		if err != nil {
			return Value{}, 0, err
		}
		if key.Kind != KindString {
			return Value{}, 0, ErrBadControlByte
		}
		pos = next
		val, next, err := d.decode(pos, chainDepth)
		if err != nil {
			return Value{}, 0, err
		}
		pos = next
		entries = append(entries, Entry{Key: key.Str, Value: val})
	}
	return Map(entries), pos, nil
}

func (d *Decoder) decodeArray(count, pos, chainDepth int) (Value, int, error) {
	vals := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		val, next, err := d.decode(pos, chainDepth)
		if err != nil {
			return Value{}, 0, err
		}
		pos = next
		vals = append(vals, val)
	}
	return Array(vals), pos, nil
}

func decodeUint(payload []byte) uint64 {
	var v uint64
	for _, b := range payload {
		v = v<<8 | uint64(b)
	}
	return v
}

func decodeUint128(payload []byte) (hi, lo uint64) {
	// payload is up to 16 bytes, big-endian, possibly shorter (small
	// values are encoded with the minimum number of bytes).
	var buf [16]byte
	copy(buf[16-len(payload):], payload)
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(buf[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(buf[i])
	}
	return hi, lo
}
