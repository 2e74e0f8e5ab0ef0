package darkmagic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Type is an EXIF/TIFF field type code.
type Type uint16

// Field types (TIFF 6.0 p. 15-16, EXIF 2.3 §4.6.2).
const (
	TypeByte Type = 1 + iota
	TypeASCII
	TypeShort
	TypeLong
	TypeRational
	TypeSByte
	TypeUndefined
	TypeSShort
	TypeSLong
	TypeSRational
	TypeFloat
	TypeDouble
)

// The length of one element of each type in bytes, indexed by Type.
var typeWidths = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

var typeNames = [...]string{
	"", "BYTE", "ASCII", "SHORT", "LONG", "RATIONAL", "SBYTE",
	"UNDEFINED", "SSHORT", "SLONG", "SRATIONAL", "FLOAT", "DOUBLE",
}

// TypeWidth returns the size in bytes of one element of t.
func TypeWidth(t Type) (int, bool) {
	if t == 0 || int(t) >= len(typeWidths) {
		return 0, false
	}
	return typeWidths[t], true
}

func (t Type) String() string {
	if t == 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", uint16(t))
	}
	return typeNames[t]
}

// Rational is an unsigned fraction.
type Rational struct {
	Num, Den uint32
}

// Float64 returns r as a float64. A zero denominator yields +Inf or NaN.
func (r Rational) Float64() float64 { return float64(r.Num) / float64(r.Den) }

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// SRational is a signed fraction.
type SRational struct {
	Num, Den int32
}

// Float64 returns r as a float64.
func (r SRational) Float64() float64 { return float64(r.Num) / float64(r.Den) }

func (r SRational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// Value is a decoded field value. The concrete type is one of Bytes, SBytes,
// ASCII, Shorts, SShorts, Longs, SLongs, Rationals, SRationals, Floats,
// Doubles or Undefined. Values are never modified after decoding.
type Value interface {
	Type() Type
	Len() int
	value()
}

type (
	Bytes      []uint8
	SBytes     []int8
	ASCII      [][]byte // one entry per NUL separated string
	Shorts     []uint16
	SShorts    []int16
	Longs      []uint32
	SLongs     []int32
	Rationals  []Rational
	SRationals []SRational
	Floats     []float32
	Doubles    []float64
	Undefined  []byte
)

func (Bytes) Type() Type      { return TypeByte }
func (SBytes) Type() Type     { return TypeSByte }
func (ASCII) Type() Type      { return TypeASCII }
func (Shorts) Type() Type     { return TypeShort }
func (SShorts) Type() Type    { return TypeSShort }
func (Longs) Type() Type      { return TypeLong }
func (SLongs) Type() Type     { return TypeSLong }
func (Rationals) Type() Type  { return TypeRational }
func (SRationals) Type() Type { return TypeSRational }
func (Floats) Type() Type     { return TypeFloat }
func (Doubles) Type() Type    { return TypeDouble }
func (Undefined) Type() Type  { return TypeUndefined }

func (v Bytes) Len() int      { return len(v) }
func (v SBytes) Len() int     { return len(v) }
func (v ASCII) Len() int      { return len(v) }
func (v Shorts) Len() int     { return len(v) }
func (v SShorts) Len() int    { return len(v) }
func (v Longs) Len() int      { return len(v) }
func (v SLongs) Len() int     { return len(v) }
func (v Rationals) Len() int  { return len(v) }
func (v SRationals) Len() int { return len(v) }
func (v Floats) Len() int     { return len(v) }
func (v Doubles) Len() int    { return len(v) }
func (v Undefined) Len() int  { return len(v) }

func (Bytes) value()      {}
func (SBytes) value()     {}
func (ASCII) value()      {}
func (Shorts) value()     {}
func (SShorts) value()    {}
func (Longs) value()      {}
func (SLongs) value()     {}
func (Rationals) value()  {}
func (SRationals) value() {}
func (Floats) value()     {}
func (Doubles) value()    {}
func (Undefined) value()  {}

// DecodeValue decodes data as a sequence of elements of type t, reading
// multi-byte elements in the given byte order. Trailing bytes that do not
// make up a whole element are ignored.
func DecodeValue(t Type, data []byte, order binary.ByteOrder) (Value, error) {
	width, ok := TypeWidth(t)
	if !ok {
		return nil, ErrUnsupportedType
	}
	n := len(data) / width
	switch t {
	case TypeByte:
		return append(Bytes{}, data...), nil
	case TypeUndefined:
		return append(Undefined{}, data...), nil
	case TypeSByte:
		v := make(SBytes, n)
		for i := range v {
			v[i] = int8(data[i])
		}
		return v, nil
	case TypeASCII:
		// No trimming: "ab\x00" is {"ab", ""}.
		parts := bytes.Split(data, []byte{0})
		v := make(ASCII, len(parts))
		for i, p := range parts {
			v[i] = append([]byte{}, p...)
		}
		return v, nil
	case TypeShort:
		v := make(Shorts, n)
		for i := range v {
			v[i] = order.Uint16(data[2*i:])
		}
		return v, nil
	case TypeSShort:
		v := make(SShorts, n)
		for i := range v {
			v[i] = int16(order.Uint16(data[2*i:]))
		}
		return v, nil
	case TypeLong:
		v := make(Longs, n)
		for i := range v {
			v[i] = order.Uint32(data[4*i:])
		}
		return v, nil
	case TypeSLong:
		v := make(SLongs, n)
		for i := range v {
			v[i] = int32(order.Uint32(data[4*i:]))
		}
		return v, nil
	case TypeRational:
		v := make(Rationals, n)
		for i := range v {
			v[i] = Rational{order.Uint32(data[8*i:]), order.Uint32(data[8*i+4:])}
		}
		return v, nil
	case TypeSRational:
		v := make(SRationals, n)
		for i := range v {
			v[i] = SRational{int32(order.Uint32(data[8*i:])), int32(order.Uint32(data[8*i+4:]))}
		}
		return v, nil
	case TypeFloat:
		v := make(Floats, n)
		for i := range v {
			v[i] = math.Float32frombits(order.Uint32(data[4*i:]))
		}
		return v, nil
	case TypeDouble:
		v := make(Doubles, n)
		for i := range v {
			v[i] = math.Float64frombits(order.Uint64(data[8*i:]))
		}
		return v, nil
	}
	return nil, ErrUnsupportedType
}
