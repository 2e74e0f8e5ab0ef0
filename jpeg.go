package darkmagic

import (
	"encoding/binary"
	"io"
)

// JPEG markers (ITU T.81 table B.1).
const (
	sof0Marker  = 0xc0 // Start Of Frame (Baseline Sequential).
	sof15Marker = 0xcf
	dhtMarker   = 0xc4 // Define Huffman Table.
	jpgMarker   = 0xc8 // Reserved for JPEG extensions.
	dacMarker   = 0xcc // Define Arithmetic Coding conditioning.
	rst0Marker  = 0xd0 // ReSTart (0).
	rst7Marker  = 0xd7 // ReSTart (7).
	soiMarker   = 0xd8 // Start Of Image.
	eoiMarker   = 0xd9 // End Of Image.
	sosMarker   = 0xda // Start Of Scan.
	app1Marker  = 0xe1 // APPlication specific (1), where EXIF lives.
	temMarker   = 0x01
)

const exifHeader = "Exif\x00\x00"

// decodejpeg walks the marker segments up to the first scan, picking up the
// APP1 EXIF segment and the frame size.
func decodejpeg(r io.Reader) (Container, error) {
	var (
		c         Container
		tmp       [4]byte
		haveFrame bool
	)
	if _, err := io.ReadFull(r, tmp[:2]); err != nil {
		return Container{}, unexpectedEOF(err)
	}
	if tmp[0] != 0xff || tmp[1] != soiMarker {
		return Container{}, FormatError("missing SOI marker")
	}
	for {
		if _, err := io.ReadFull(r, tmp[:2]); err != nil {
			return Container{}, unexpectedEOF(err)
		}
		if tmp[0] != 0xff {
			return Container{}, FormatError("missing 0xff marker start")
		}
		marker := tmp[1]
		// Markers may be preceded by any number of 0xff fill bytes.
		for marker == 0xff {
			if _, err := io.ReadFull(r, tmp[:1]); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			marker = tmp[0]
		}
		if marker == eoiMarker || marker == sosMarker {
			break
		}
		if marker == temMarker || (rst0Marker <= marker && marker <= rst7Marker) {
			continue
		}

		if _, err := io.ReadFull(r, tmp[:2]); err != nil {
			return Container{}, unexpectedEOF(err)
		}
		n := int(binary.BigEndian.Uint16(tmp[:2])) - 2
		if n < 0 {
			return Container{}, FormatError("short segment length")
		}

		switch {
		case marker == app1Marker && c.Exif == nil:
			seg := make([]byte, n)
			if _, err := io.ReadFull(r, seg); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			if len(seg) > len(exifHeader) && string(seg[:len(exifHeader)]) == exifHeader {
				c.Exif = seg[len(exifHeader):]
			}
		case sof0Marker <= marker && marker <= sof15Marker &&
			marker != dhtMarker && marker != jpgMarker && marker != dacMarker && !haveFrame:
			// Precision, height and width.
			if n < 5 {
				return Container{}, FormatError("short SOF segment")
			}
			seg := make([]byte, n)
			if _, err := io.ReadFull(r, seg); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			c.Size = Size{
				Width:  int(binary.BigEndian.Uint16(seg[3:5])),
				Height: int(binary.BigEndian.Uint16(seg[1:3])),
			}
			haveFrame = true
		default:
			if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
				return Container{}, unexpectedEOF(err)
			}
		}
		if c.Exif != nil && haveFrame {
			break
		}
	}
	if c.Exif == nil {
		return Container{}, FormatError("no EXIF segment")
	}
	return c, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
