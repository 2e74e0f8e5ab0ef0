// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package darkmagic

import (
	"bytes"
	"encoding/binary"
	"io"
)

const maxChunkSize = 10 << 20 // 10M

// safeReadAt is a verbatim copy of internal/saferio.ReadDataAt from the
// standard library, which is used to read data from a reader using a length
// provided by untrusted data, without allocating the entire slice ahead of time
// if it is large (>maxChunkSize). This allows us to avoid allocating giant
// slices before learning that we can't actually read that much data from the
// reader.
func safeReadAt(r io.ReaderAt, n uint64, off int64) ([]byte, error) {
	if int64(n) < 0 || n != uint64(int(n)) {
		// n is too large to fit in int, so we can't allocate
		// a buffer large enough. Treat this as a read failure.
		return nil, io.ErrUnexpectedEOF
	}

	if n < maxChunkSize {
		buf := make([]byte, n)
		_, err := r.ReadAt(buf, off)
		if err != nil {
			// io.SectionReader can return EOF for n == 0,
			// but for our purposes that is a success.
			if err != io.EOF || n > 0 {
				return nil, err
			}
		}
		return buf, nil
	}

	var buf []byte
	buf1 := make([]byte, maxChunkSize)
	for n > 0 {
		next := n
		if next > maxChunkSize {
			next = maxChunkSize
		}
		_, err := r.ReadAt(buf1[:next], off)
		if err != nil {
			return nil, err
		}
		buf = append(buf, buf1[:next]...)
		n -= next
		off += int64(next)
	}
	return buf, nil
}

// tiffHeader checks an 8-byte TIFF header and returns its byte order and
// the offset of the first image file directory.
func tiffHeader(p []byte) (binary.ByteOrder, int64, error) {
	if len(p) < tiffHeaderLen {
		return nil, 0, FormatError("short TIFF header")
	}
	var order binary.ByteOrder
	switch string(p[0:4]) {
	case leHeader:
		order = binary.LittleEndian
	case beHeader:
		order = binary.BigEndian
	default:
		return nil, 0, FormatError("malformed TIFF header")
	}
	return order, int64(order.Uint32(p[4:8])), nil
}

type tiffdecoder struct {
	r         io.ReaderAt
	size      int64
	byteOrder binary.ByteOrder
}

// ifdUint decodes the IFD entry in p, which must be of the Byte, Short
// or Long type, and returns the first decoded value.
func (d *tiffdecoder) ifdUint(p []byte) (uint, error) {
	if len(p) < ifdLen {
		return 0, FormatError("bad IFD entry")
	}
	datatype := Type(d.byteOrder.Uint16(p[2:4]))
	switch datatype {
	case TypeByte, TypeShort, TypeLong:
	default:
		return 0, UnsupportedError("IFD entry datatype")
	}
	if d.byteOrder.Uint32(p[4:8]) == 0 {
		return 0, FormatError("empty IFD entry")
	}
	// Only the first element is needed, and it is always inline.
	width, _ := TypeWidth(datatype)
	v, err := DecodeValue(datatype, p[8:8+width], d.byteOrder)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case Bytes:
		return uint(v[0]), nil
	case Shorts:
		return uint(v[0]), nil
	case Longs:
		return uint(v[0]), nil
	}
	return 0, UnsupportedError("data type")
}

// decodeSize reads the pixel size out of the first image file directory.
func (d *tiffdecoder) decodeSize(ifdOffset int64) (Size, error) {
	if ifdOffset < 0 || ifdOffset+ifdCountLen > d.size {
		return Size{}, FormatError("IFD offset out of bounds")
	}
	p, err := safeReadAt(d.r, ifdCountLen, ifdOffset)
	if err != nil {
		return Size{}, err
	}
	numItems := int(d.byteOrder.Uint16(p[0:2]))

	// All IFD entries are read in one chunk.
	p, err = safeReadAt(d.r, uint64(ifdLen*numItems), ifdOffset+ifdCountLen)
	if err != nil {
		return Size{}, err
	}

	var size Size
	for i := 0; i < len(p); i += ifdLen {
		switch d.byteOrder.Uint16(p[i : i+2]) {
		case tImageWidth:
			w, err := d.ifdUint(p[i : i+ifdLen])
			if err != nil {
				return Size{}, err
			}
			size.Width = int(w)
		case tImageLength:
			h, err := d.ifdUint(p[i : i+ifdLen])
			if err != nil {
				return Size{}, err
			}
			size.Height = int(h)
		}
	}
	return size, nil
}

// decodetiff returns the dimensions of a TIFF based image, whose whole
// content is the EXIF payload.
func decodetiff(r io.Reader) (Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Container{}, err
	}
	order, ifdOffset, err := tiffHeader(data)
	if err != nil {
		return Container{}, err
	}
	d := &tiffdecoder{
		r:         bytes.NewReader(data),
		size:      int64(len(data)),
		byteOrder: order,
	}
	size, err := d.decodeSize(ifdOffset)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Container{}, err
	}
	return Container{Size: size, Exif: data}, nil
}
