package darkmagic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/tiff"
)

// NewTagStore parses an EXIF payload, which starts at its TIFF header, and
// returns the fields of IFD0 and of the EXIF sub-IFD. When a tag appears in
// both, the IFD0 value wins. Fields that do not decode are skipped.
//
// Both directories are bounds checked before goexif reads them, and the
// IFD chain past IFD0 is never followed. Failures are *Error values of
// kind KindUpstreamParse.
func NewTagStore(payload []byte) (TagStore, error) {
	order, ifd0, err := tiffHeader(payload)
	if err != nil {
		return nil, upstreamParse(err)
	}
	r := bytes.NewReader(payload)

	store := MapStore{}
	add := func(off int64) error {
		if err := checkDirectory(payload, off, order); err != nil {
			return err
		}
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("exif: seek to IFD failed: %w", err)
		}
		d, _, err := tiff.DecodeDir(r, order)
		if err != nil {
			return fmt.Errorf("exif: IFD decode failed: %w", err)
		}
		for _, t := range d.Tags {
			if _, ok := store[t.Id]; ok {
				continue
			}
			v, err := tagValue(t, order)
			if err != nil {
				continue
			}
			store[t.Id] = v
		}
		return nil
	}
	if err := add(ifd0); err != nil {
		return nil, upstreamParse(err)
	}

	ptr, ok := store[TagExifIFD].(Longs)
	if !ok || len(ptr) == 0 {
		return store, nil
	}
	if err := add(int64(ptr[0])); err != nil {
		return nil, upstreamParse(fmt.Errorf("exif: sub-IFD: %w", err))
	}
	return store, nil
}

// checkDirectory validates the directory at off against the whole payload:
// every entry has a known type and a non-empty value that lies inside
// payload.
func checkDirectory(payload []byte, off int64, order binary.ByteOrder) error {
	if off < 0 || off+ifdCountLen > int64(len(payload)) {
		return &DecodeError{Err: ErrOutOfBounds, Offset: off}
	}
	n := int64(order.Uint16(payload[off:]))
	for i := int64(0); i < n; i++ {
		rec := off + ifdCountLen + i*ifdLen
		if rec+ifdLen > int64(len(payload)) {
			return &DecodeError{Err: ErrTooShort, Offset: rec}
		}
		p := payload[rec : rec+ifdLen]
		if order.Uint32(p[4:8]) == 0 {
			return &DecodeError{Err: ErrEmptyValue, Tag: order.Uint16(p[0:2]), Offset: rec}
		}
		if _, err := decodeEntry(payload, p, 0, order); err != nil {
			err.Offset = rec
			return err
		}
	}
	return nil
}

func upstreamParse(err error) *Error {
	return &Error{Kind: KindUpstreamParse, Err: err}
}

// tagValue converts a goexif tag into a Value. ASCII fields lose their
// trailing NULs, so a single terminated string decodes to one entry.
func tagValue(t *tiff.Tag, order binary.ByteOrder) (Value, error) {
	typ := Type(t.Type)
	val := t.Val
	if typ == TypeASCII {
		val = bytes.TrimRight(val, "\x00")
	}
	return DecodeValue(typ, val, order)
}
