// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package darkmagic

import (
	"io"

	"golang.org/x/image/riff"
	"golang.org/x/image/vp8"
	"golang.org/x/image/vp8l"
)

var errInvalidFormat = FormatError("webp: bad chunk layout")

var (
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
)

// decodewebp scans every chunk of a WebP file. The frame size comes from
// the first VP8, VP8L or VP8X chunk, the payload from the EXIF chunk.
func decodewebp(r io.Reader) (Container, error) {
	formType, riffReader, err := riff.NewReader(r)
	if err != nil {
		return Container{}, riffError(err)
	}
	if formType != fccWEBP {
		return Container{}, errInvalidFormat
	}

	var (
		c         Container
		haveFrame bool
		buf       [10]byte
	)
	for {
		chunkID, chunkLen, chunkData, err := riffReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Container{}, riffError(err)
		}

		switch chunkID {
		case fccEXIF:
			if chunkLen > maxChunkSize {
				return Container{}, UnsupportedError("webp: EXIF chunk too large")
			}
			data := make([]byte, chunkLen)
			if _, err := io.ReadFull(chunkData, data); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			// Some writers keep the JPEG APP1 prefix.
			if len(data) > len(exifHeader) && string(data[:len(exifHeader)]) == exifHeader {
				data = data[len(exifHeader):]
			}
			c.Exif = data

		case fccVP8:
			if haveFrame {
				continue
			}
			if int32(chunkLen) < 0 {
				return Container{}, errInvalidFormat
			}
			d := vp8.NewDecoder()
			d.Init(chunkData, int(chunkLen))
			fh, err := d.DecodeFrameHeader()
			if err != nil {
				return Container{}, err
			}
			c.Size, haveFrame = Size{fh.Width, fh.Height}, true

		case fccVP8L:
			if haveFrame {
				continue
			}
			cfg, err := vp8l.DecodeConfig(chunkData)
			if err != nil {
				return Container{}, err
			}
			c.Size, haveFrame = Size{cfg.Width, cfg.Height}, true

		case fccVP8X:
			if chunkLen != 10 {
				return Container{}, errInvalidFormat
			}
			if _, err := io.ReadFull(chunkData, buf[:10]); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			widthMinusOne := uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16
			heightMinusOne := uint32(buf[7]) | uint32(buf[8])<<8 | uint32(buf[9])<<16
			c.Size = Size{
				Width:  int(widthMinusOne) + 1,
				Height: int(heightMinusOne) + 1,
			}
			haveFrame = true
		}
	}
	if c.Exif == nil {
		return Container{}, FormatError("webp: no EXIF chunk")
	}
	return c, nil
}

// riffError turns the RIFF reader's plain errors into FormatErrors, keeping
// I/O failures as they are.
func riffError(err error) error {
	switch err {
	case io.ErrUnexpectedEOF:
		return err
	case io.EOF:
		return io.ErrUnexpectedEOF
	}
	return FormatError(err.Error())
}
