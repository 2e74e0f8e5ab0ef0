package darkmagic

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestDecodeMakerNoteByteOrders(t *testing.T) {
	var decoded [][]Entry
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		note := encodeMakerNote(order, 0x2000, []rawEntry{
			shortEntry(order, 0x0001, 10, 20, 30),
			shortEntry(order, canonShotInfo, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 148, 13),
			asciiEntry(0x0006, "Canon EOS 5D Mark IV"),
			longEntry(order, 0x000c, 1234567),
		})
		entries, err := DecodeMakerNote(note)
		if err != nil {
			t.Fatalf("%v: %v", order, err)
		}
		decoded = append(decoded, entries)
	}
	if !reflect.DeepEqual(decoded[0], decoded[1]) {
		t.Fatalf("byte orders disagree:\nLE %#v\nBE %#v", decoded[0], decoded[1])
	}
	info := decoded[0][1].Value.(Shorts)
	if info[shotInfoCameraTemperature] != 148 {
		t.Fatalf("ShotInfo[12] = %d", info[shotInfoCameraTemperature])
	}
}

func TestDecodeMakerNoteFixup(t *testing.T) {
	order := binary.LittleEndian
	entries := []rawEntry{asciiEntry(0x0006, "Canon EOS R5")}
	note := encodeMakerNote(order, 0x0320, entries)
	got, err := DecodeMakerNote(note)
	if err != nil {
		t.Fatal(err)
	}
	if s := string(got[0].Value.(ASCII)[0]); s != "Canon EOS R5" {
		t.Fatalf("got %q", s)
	}

	// The original offset is subtracted from every pointer.
	order.PutUint32(note[len(note)-4:], 0x0320-2)
	got, err = DecodeMakerNote(note)
	if err != nil {
		t.Fatal(err)
	}
	if s := string(got[0].Value.(ASCII)[0]); s != "non EOS R5" {
		t.Fatalf("got %q", s)
	}
	order.PutUint32(note[len(note)-4:], 0x1000)
	if _, err := DecodeMakerNote(note); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("got %v, want ErrOutOfBounds", err)
	}
}

func TestDecodeMakerNoteErrors(t *testing.T) {
	order := binary.BigEndian
	valid := encodeMakerNote(order, 0x10, []rawEntry{shortEntry(order, 1, 1)})
	footer := len(valid) - makerNoteFooterLen

	badMarker := append([]byte{}, valid...)
	copy(badMarker[footer:], "IM")
	badMagic := append([]byte{}, valid...)
	order.PutUint16(badMagic[footer+2:], 0x2b)
	// A little-endian marker makes the big-endian magic read as 0x2a00.
	swapped := append([]byte{}, valid...)
	copy(swapped[footer:], "II")

	tests := []struct {
		name string
		blob []byte
		err  error
	}{
		{"empty", nil, ErrTooShort},
		{"short footer", []byte("MM\x00\x2a\x00\x00\x00"), ErrTooShort},
		{"bad marker", badMarker, ErrInvalidByteOrderMarker},
		{"bad magic", badMagic, ErrInvalidMagic},
		{"marker and magic disagree", swapped, ErrInvalidMagic},
		{"footer only", []byte("II\x2a\x00\x00\x00\x00\x00"), ErrTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMakerNote(tt.blob)
			if !errors.Is(err, tt.err) {
				t.Fatalf("got %v, want %v", err, tt.err)
			}
		})
	}
}
