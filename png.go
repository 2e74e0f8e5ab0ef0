package darkmagic

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

// decodepng reads the IHDR chunk for the size and the eXIf chunk for the
// payload, skipping everything else up to IEND.
func decodepng(r io.Reader) (Container, error) {
	var (
		c   Container
		tmp [8]byte
	)
	if _, err := io.ReadFull(r, tmp[:len(pngHeader)]); err != nil {
		return Container{}, unexpectedEOF(err)
	}
	if string(tmp[:len(pngHeader)]) != pngHeader {
		return Container{}, FormatError("png: not a PNG file")
	}
	for {
		if _, err := io.ReadFull(r, tmp[:8]); err != nil {
			return Container{}, unexpectedEOF(err)
		}
		length := binary.BigEndian.Uint32(tmp[:4])
		if length > 0x7fffffff {
			return Container{}, FormatError("png: bad chunk length")
		}
		typ := string(tmp[4:8])

		switch typ {
		case "IHDR", "eXIf":
			if length > maxChunkSize {
				return Container{}, UnsupportedError("png: " + typ + " chunk too large")
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			if _, err := io.ReadFull(r, tmp[:4]); err != nil {
				return Container{}, unexpectedEOF(err)
			}
			crc := crc32.NewIEEE()
			crc.Write([]byte(typ))
			crc.Write(data)
			if crc.Sum32() != binary.BigEndian.Uint32(tmp[:4]) {
				return Container{}, FormatError("png: invalid checksum")
			}
			if typ == "eXIf" {
				c.Exif = data
				break
			}
			if length < 8 {
				return Container{}, FormatError("png: bad IHDR length")
			}
			c.Size = Size{
				Width:  int(binary.BigEndian.Uint32(data[0:4])),
				Height: int(binary.BigEndian.Uint32(data[4:8])),
			}
		case "IEND":
			if c.Exif == nil {
				return Container{}, FormatError("png: no eXIf chunk")
			}
			return c, nil
		default:
			// Data and CRC.
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return Container{}, unexpectedEOF(err)
			}
		}
	}
}
