package darkmagic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// canonStore is the tag store of a Canon body reporting ISO 400 at 1/250s
// with a raw sensor temperature of raw.
func canonStore(order binary.ByteOrder, raw uint16) MapStore {
	shotInfo := make([]uint16, 20)
	shotInfo[shotInfoCameraTemperature] = raw
	note := encodeMakerNote(order, 0x0320, []rawEntry{
		shortEntry(order, canonShotInfo, shotInfo...),
	})
	return MapStore{
		TagExifVersion:      Undefined("0230"),
		TagMake:             ASCII{[]byte("Canon")},
		TagModel:            ASCII{[]byte("Canon EOS R5")},
		TagBodySerialNumber: ASCII{[]byte("012345678901")},
		TagSensitivityType:  Shorts{SensitivityTypeISO},
		TagISOSpeed:         Longs{400},
		TagExposureTime:     Rationals{{1, 250}},
		TagMakerNote:        Undefined(note),
	}
}

func TestExtractCanon(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		md, err := NewExtractor(nil).Extract(canonStore(order, 148))
		if err != nil {
			t.Fatalf("%v: %v", order, err)
		}
		if md != canonMetadata {
			t.Fatalf("%v: got %+v, want %+v", order, md, canonMetadata)
		}
	}
}

func TestExtractLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))
	if _, err := NewExtractor(logger).Extract(canonStore(binary.LittleEndian, 148)); err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"exif version", "camera", "sensitivity", "maker note entry", "camera temperature"} {
		if !strings.Contains(buf.String(), "msg=\""+msg+"\"") && !strings.Contains(buf.String(), "msg="+msg) {
			t.Fatalf("missing %q record in:\n%s", msg, buf.String())
		}
	}
}

func TestCameraName(t *testing.T) {
	tests := []struct {
		mk, model, want string
	}{
		{"Canon", "Canon EOS R5", "Canon EOS R5"},
		{"Canon", "EOS R5", "Canon EOS R5"},
		{"Canon ", "EOS R5", "Canon EOS R5"},
		{"NIKON CORPORATION", "NIKON D850", "NIKON CORPORATION NIKON D850"},
		{"Nikon", "D850", "Nikon D850"},
		{"", "X100V", "X100V"},
	}
	for _, tt := range tests {
		if got := CameraName(tt.mk, tt.model); got != tt.want {
			t.Fatalf("CameraName(%q, %q) = %q, want %q", tt.mk, tt.model, got, tt.want)
		}
	}
}

func TestSensitivityDispatch(t *testing.T) {
	tests := []struct {
		typ  uint16
		want uint32
	}{
		{SensitivityTypeSOS, 100},
		{SensitivityTypeREI, 200},
		{SensitivityTypeISO, 400},
		{SensitivityTypeSOSAndREI, 400},
		{SensitivityTypeSOSAndISO, 100},
		{SensitivityTypeREIAndISO, 400},
		{SensitivityTypeSOSREIAndISO, 400},
	}
	for _, tt := range tests {
		store := canonStore(binary.LittleEndian, 148)
		store[TagSensitivityType] = Shorts{tt.typ}
		store[TagStandardOutputSensitivity] = Longs{100}
		store[TagRecommendedExposureIndex] = Longs{200}
		store[TagISOSpeed] = Longs{400}
		md, err := NewExtractor(nil).Extract(store)
		if err != nil {
			t.Fatalf("type %d: %v", tt.typ, err)
		}
		if md.SensorSensitivity != tt.want || md.SensitivityType != tt.typ {
			t.Fatalf("type %d: got (%d, %d), want (%d, %d)",
				tt.typ, md.SensorSensitivity, md.SensitivityType, tt.want, tt.typ)
		}
	}
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		raw  uint16
		want float32
	}{
		{148, 20},
		{128, 0},
		{100, -28},
		{0, -128},
	}
	for _, tt := range tests {
		md, err := NewExtractor(nil).Extract(canonStore(binary.BigEndian, tt.raw))
		if err != nil {
			t.Fatalf("raw %d: %v", tt.raw, err)
		}
		if md.Temperature != tt.want {
			t.Fatalf("raw %d: got %v, want %v", tt.raw, md.Temperature, tt.want)
		}
	}
}

func TestExtractErrors(t *testing.T) {
	order := binary.LittleEndian
	tests := []struct {
		name   string
		modify func(MapStore)
		kind   error
		cause  error
		tag    uint16
	}{
		{
			name:   "nikon",
			modify: func(s MapStore) { s[TagMake] = ASCII{[]byte("NIKON CORPORATION")} },
			kind:   ErrUnsupported,
			tag:    TagMake,
		},
		{
			name:   "old exif version",
			modify: func(s MapStore) { s[TagExifVersion] = Undefined("0221") },
			kind:   ErrUnsupported,
			tag:    TagExifVersion,
		},
		{
			name:   "exif version not digits",
			modify: func(s MapStore) { s[TagExifVersion] = Undefined("02a0") },
			kind:   ErrInvalidData,
			tag:    TagExifVersion,
		},
		{
			name:   "exif version wrong length",
			modify: func(s MapStore) { s[TagExifVersion] = Undefined("023") },
			kind:   ErrInvalidData,
			tag:    TagExifVersion,
		},
		{
			name:   "exif version wrong type",
			modify: func(s MapStore) { s[TagExifVersion] = ASCII{[]byte("0230")} },
			kind:   ErrInvalidData,
			tag:    TagExifVersion,
		},
		{
			name:   "missing model",
			modify: func(s MapStore) { delete(s, TagModel) },
			kind:   ErrInvalidData,
			tag:    TagModel,
		},
		{
			name:   "two serial numbers",
			modify: func(s MapStore) { s[TagBodySerialNumber] = ASCII{[]byte("1"), []byte("2")} },
			kind:   ErrInvalidData,
			tag:    TagBodySerialNumber,
		},
		{
			name:   "serial number not UTF-8",
			modify: func(s MapStore) { s[TagBodySerialNumber] = ASCII{[]byte{0xff, 0xfe}} },
			kind:   ErrInvalidData,
			tag:    TagBodySerialNumber,
		},
		{
			name:   "unknown sensitivity type",
			modify: func(s MapStore) { s[TagSensitivityType] = Shorts{8} },
			kind:   ErrUnsupported,
			tag:    TagSensitivityType,
		},
		{
			name:   "sensitivity type zero",
			modify: func(s MapStore) { s[TagSensitivityType] = Shorts{0} },
			kind:   ErrUnsupported,
			tag:    TagSensitivityType,
		},
		{
			name:   "sensitivity as short",
			modify: func(s MapStore) { s[TagISOSpeed] = Shorts{400} },
			kind:   ErrInvalidData,
			tag:    TagISOSpeed,
		},
		{
			name:   "exposure as signed rational",
			modify: func(s MapStore) { s[TagExposureTime] = SRationals{{1, 250}} },
			kind:   ErrInvalidData,
			tag:    TagExposureTime,
		},
		{
			name:   "maker note as bytes",
			modify: func(s MapStore) { s[TagMakerNote] = Bytes{1, 2, 3} },
			kind:   ErrInvalidData,
			tag:    TagMakerNote,
		},
		{
			name:   "maker note bad marker",
			modify: func(s MapStore) { s[TagMakerNote] = Undefined("\x00\x00XX\x2a\x00\x00\x00\x00\x00") },
			kind:   ErrInvalidData,
			cause:  ErrInvalidByteOrderMarker,
			tag:    TagMakerNote,
		},
		{
			name: "maker note pointer out of bounds",
			modify: func(s MapStore) {
				note := encodeMakerNote(order, 0, []rawEntry{shortEntry(order, canonShotInfo, make([]uint16, 20)...)})
				// Drop the out-of-line ShotInfo array, keep the footer.
				dir := ifdCountLen + ifdLen + 4
				s[TagMakerNote] = Undefined(append(note[:dir:dir], note[len(note)-makerNoteFooterLen:]...))
			},
			kind:  ErrInvalidData,
			cause: ErrOutOfBounds,
			tag:   TagMakerNote,
		},
		{
			name: "shot info too short",
			modify: func(s MapStore) {
				s[TagMakerNote] = Undefined(encodeMakerNote(order, 0x10, []rawEntry{
					shortEntry(order, canonShotInfo, make([]uint16, shotInfoCameraTemperature)...),
				}))
			},
			kind: ErrInvalidData,
			tag:  canonShotInfo,
		},
		{
			name: "shot info wrong type",
			modify: func(s MapStore) {
				s[TagMakerNote] = Undefined(encodeMakerNote(order, 0x10, []rawEntry{
					longEntry(order, canonShotInfo, make([]uint32, 16)...),
				}))
			},
			kind: ErrInvalidData,
			tag:  canonShotInfo,
		},
		{
			name: "no shot info",
			modify: func(s MapStore) {
				s[TagMakerNote] = Undefined(encodeMakerNote(order, 0x10, []rawEntry{
					asciiEntry(0x0006, "Canon EOS R5"),
				}))
			},
			kind: ErrInvalidData,
			tag:  canonShotInfo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := canonStore(order, 148)
			tt.modify(store)
			_, err := NewExtractor(nil).Extract(store)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("got %v, want %v", err, tt.kind)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Fatalf("got %v, want cause %v", err, tt.cause)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("%T is not an *Error", err)
			}
			if e.Tag != tt.tag {
				t.Fatalf("tag = %#04x, want %#04x", e.Tag, tt.tag)
			}
		})
	}
}

func TestWrongTypeError(t *testing.T) {
	store := canonStore(binary.LittleEndian, 148)
	store[TagModel] = Undefined("EOS")
	_, err := NewExtractor(nil).Extract(store)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("%T is not an *Error", err)
	}
	if e.Want != TypeASCII || e.Got != TypeUndefined || e.Name != "Model" {
		t.Fatalf("got %+v", e)
	}
	if want := "invalid data: Model (0x0110): unexpected type: want ASCII, got UNDEFINED"; e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}
