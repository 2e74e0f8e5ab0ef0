package darkmagic

import (
	"encoding/binary"
	"math"
)

// A directory is a 2-byte entry count followed by that many entries of
// ifdLen bytes each. An entry consists of
//
//   - a tag, which describes the signification of the entry,
//   - the data type and element count of the entry,
//   - the data itself if it fits in 4 bytes, or a pointer to it.
//
// Pointers are relative to whatever the writer considered offset 0, which
// is why the decoder takes a fixup added to every pointer.

const (
	ifdLen       = 12 // Length of a directory entry in bytes.
	ifdCountLen  = 2
	ifdInlineLen = 4
)

// Entry is one decoded directory entry.
type Entry struct {
	Tag   uint16
	Value Value
}

// DecodeDirectory decodes the directory at the start of buf. Every
// out-of-line value pointer has fixup added to it before being resolved
// against buf. It never reads outside buf: all malformed input is reported
// as a *DecodeError.
func DecodeDirectory(buf []byte, fixup int64, order binary.ByteOrder) ([]Entry, error) {
	if len(buf) < ifdCountLen {
		return nil, &DecodeError{Err: ErrTooShort}
	}
	n := int(order.Uint16(buf))
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		off := ifdCountLen + i*ifdLen
		if off+ifdLen > len(buf) {
			return nil, &DecodeError{Err: ErrTooShort, Offset: int64(off)}
		}
		e, err := decodeEntry(buf, buf[off:off+ifdLen], fixup, order)
		if err != nil {
			err.Offset = int64(off)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// decodeEntry decodes the entry record p. The caller fills in the Offset of
// a returned error.
func decodeEntry(buf, p []byte, fixup int64, order binary.ByteOrder) (Entry, *DecodeError) {
	tag := order.Uint16(p[0:2])
	datatype := Type(order.Uint16(p[2:4]))
	width, ok := TypeWidth(datatype)
	if !ok {
		return Entry{}, &DecodeError{Err: ErrUnsupportedType, Tag: tag}
	}

	// Offsets are 32-bit, nothing larger can be addressed.
	count := order.Uint32(p[4:8])
	if count > math.MaxInt32/uint32(width) {
		return Entry{}, &DecodeError{Err: ErrOverflow, Tag: tag}
	}
	datalen := int64(width) * int64(count)

	var raw []byte
	if datalen <= ifdInlineLen {
		raw = p[8 : 8+datalen]
	} else {
		ptr := int64(order.Uint32(p[8:12])) + fixup
		if ptr < 0 || ptr+datalen > int64(len(buf)) {
			return Entry{}, &DecodeError{Err: ErrOutOfBounds, Tag: tag}
		}
		raw = buf[ptr : ptr+datalen]
	}

	v, err := DecodeValue(datatype, raw, order)
	if err != nil {
		return Entry{}, &DecodeError{Err: err, Tag: tag}
	}
	return Entry{Tag: tag, Value: v}, nil
}
