package darkmagic

import (
	"errors"
	"fmt"
	"strings"
)

// A FormatError reports that the input is not a valid image container.
type FormatError string

func (e FormatError) Error() string { return "darkmagic: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented
// container feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "darkmagic: unsupported feature: " + string(e) }

// Failure classes of an extraction. Every *Error unwraps to exactly one of
// them.
var (
	ErrIO            = errors.New("i/o error")
	ErrInvalidData   = errors.New("invalid data")
	ErrUnsupported   = errors.New("unsupported")
	ErrUpstreamParse = errors.New("metadata container parse failed")
)

// Directory and maker-note decoding failures, wrapped in a *DecodeError.
var (
	ErrUnsupportedType        = errors.New("unsupported value type")
	ErrOverflow               = errors.New("value size overflows")
	ErrOutOfBounds            = errors.New("value pointer out of bounds")
	ErrInvalidByteOrderMarker = errors.New("invalid byte order marker")
	ErrInvalidMagic           = errors.New("invalid magic number")
	ErrTooShort               = errors.New("data too short")
	ErrEmptyValue             = errors.New("empty value")
)

// Kind classifies an *Error.
type Kind uint8

const (
	KindIO Kind = iota + 1
	KindInvalidData
	KindUnsupported
	KindUpstreamParse
)

func (k Kind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindInvalidData:
		return ErrInvalidData
	case KindUnsupported:
		return ErrUnsupported
	case KindUpstreamParse:
		return ErrUpstreamParse
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is the error returned by every extraction step.
//
// Name and Tag identify the offending standard field when there is one.
// Want and Got are set for variant mismatches.
type Error struct {
	Kind Kind
	Name string
	Tag  uint16
	Want Type
	Got  Type
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Name != "" {
		fmt.Fprintf(&b, ": %s (%#04x)", e.Name, e.Tag)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Want != 0 {
		fmt.Fprintf(&b, ": want %v, got %v", e.Want, e.Got)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// DecodeError locates a directory decoding failure.
type DecodeError struct {
	Err    error  // one of the decode sentinels
	Tag    uint16 // tag of the entry being decoded, if any
	Offset int64  // byte offset in the decoded buffer
}

func (e *DecodeError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("decode tag %#04x at offset %d: %v", e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func invalidData(name string, tag uint16, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidData, Name: name, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}

func unsupported(name string, tag uint16, format string, args ...any) *Error {
	return &Error{Kind: KindUnsupported, Name: name, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}
