package darkmagic

import "encoding/binary"

// A Canon maker note is a bare directory whose value pointers are absolute
// offsets in the file it was written to. The writer appends an 8-byte
// footer that records where that was:
//
//	"II" | "MM"     2-byte byte order marker
//	0x002a          2-byte magic number
//	offset          4-byte original offset of the maker note in the file

const (
	makerNoteFooterLen = 8

	markerLE       = 0x4949 // "II"
	markerBE       = 0x4d4d // "MM"
	makerNoteMagic = 0x2a
)

// Canon maker note tags.
const (
	canonShotInfo = 0x0004
)

// Canon ShotInfo element indexes.
const (
	shotInfoCameraTemperature = 12
	shotInfoTemperatureBias   = 128
)

// DecodeMakerNote decodes a Canon maker note. Byte order and pointer fixup
// come from the footer at the end of blob.
func DecodeMakerNote(blob []byte) ([]Entry, error) {
	if len(blob) < makerNoteFooterLen {
		return nil, &DecodeError{Err: ErrTooShort}
	}
	footerOff := len(blob) - makerNoteFooterLen
	footer := blob[footerOff:]

	// The marker reads the same in both byte orders, so peek at it first
	// and only then read the rest of the footer.
	var order binary.ByteOrder
	switch binary.BigEndian.Uint16(footer[0:2]) {
	case markerLE:
		order = binary.LittleEndian
	case markerBE:
		order = binary.BigEndian
	default:
		return nil, &DecodeError{Err: ErrInvalidByteOrderMarker, Offset: int64(footerOff)}
	}
	if order.Uint16(footer[2:4]) != makerNoteMagic {
		return nil, &DecodeError{Err: ErrInvalidMagic, Offset: int64(footerOff + 2)}
	}
	original := int64(order.Uint32(footer[4:8]))

	return DecodeDirectory(blob, -original, order)
}
