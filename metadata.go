package darkmagic

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LevelTrace is the slog level below Debug used for per-entry maker note
// logging.
const LevelTrace = slog.Level(-8)

// Sensitivity types, as defined for EXIF tag 0x8830.
const (
	SensitivityTypeSOS          = 1
	SensitivityTypeREI          = 2
	SensitivityTypeISO          = 3
	SensitivityTypeSOSAndREI    = 4
	SensitivityTypeSOSAndISO    = 5
	SensitivityTypeREIAndISO    = 6
	SensitivityTypeSOSREIAndISO = 7
)

// sensitivityFields maps a sensitivity type to the tag holding its value.
// Types 4 and 6 do not consult the field their name suggests; files in the
// wild depend on this mapping.
var sensitivityFields = [...]uint16{
	SensitivityTypeSOS:          TagStandardOutputSensitivity,
	SensitivityTypeREI:          TagRecommendedExposureIndex,
	SensitivityTypeISO:          TagISOSpeed,
	SensitivityTypeSOSAndREI:    TagISOSpeed,
	SensitivityTypeSOSAndISO:    TagStandardOutputSensitivity,
	SensitivityTypeREIAndISO:    TagISOSpeed,
	SensitivityTypeSOSREIAndISO: TagISOSpeed,
}

// Oldest supported ExifVersion, 2.30.
const (
	minExifMajor = 2
	minExifMinor = 30
)

const temperatureMake = "Canon"

// ImageMetadata is the camera metadata of one image.
type ImageMetadata struct {
	CameraModel        string `json:"camera_model" yaml:"camera_model" cbor:"camera_model"`
	CameraSerialNumber string `json:"camera_serial_number" yaml:"camera_serial_number" cbor:"camera_serial_number"`
	// Generally ISO, but may also be REI or SOS.
	SensorSensitivity uint32 `json:"sensor_sensitivity" yaml:"sensor_sensitivity" cbor:"sensor_sensitivity"`
	SensitivityType   uint16 `json:"sensitivity_type" yaml:"sensitivity_type" cbor:"sensitivity_type"`
	// Seconds.
	ExposureTime float32 `json:"exposure_time" yaml:"exposure_time" cbor:"exposure_time"`
	// Degrees Celsius.
	Temperature float32 `json:"temperature" yaml:"temperature" cbor:"temperature"`
}

// An Extractor reads ImageMetadata out of EXIF tag stores. It holds no
// per-call state and may be used concurrently.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor logging to logger. A nil logger
// discards all records.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{logger: logger}
}

// Extract runs every extraction step against store and stops at the first
// failure.
func (x *Extractor) Extract(store TagStore) (ImageMetadata, error) {
	if err := x.checkExifVersion(store); err != nil {
		return ImageMetadata{}, err
	}

	mk, err := stringField(store, TagMake)
	if err != nil {
		return ImageMetadata{}, err
	}
	model, err := stringField(store, TagModel)
	if err != nil {
		return ImageMetadata{}, err
	}
	camera := CameraName(mk, model)
	x.logger.Debug("camera", "make", mk, "model", model, "name", camera)

	serial, err := stringField(store, TagBodySerialNumber)
	if err != nil {
		return ImageMetadata{}, err
	}

	sensitivity, sensitivityType, err := x.sensitivity(store)
	if err != nil {
		return ImageMetadata{}, err
	}

	exposure, err := rationalField(store, TagExposureTime)
	if err != nil {
		return ImageMetadata{}, err
	}
	x.logger.Debug("exposure time", "value", exposure)

	temperature, err := x.temperature(store, mk)
	if err != nil {
		return ImageMetadata{}, err
	}

	return ImageMetadata{
		CameraModel:        camera,
		CameraSerialNumber: serial,
		SensorSensitivity:  sensitivity,
		SensitivityType:    sensitivityType,
		ExposureTime:       float32(exposure.Float64()),
		Temperature:        temperature,
	}, nil
}

// CameraName joins make and model unless model already starts with make.
func CameraName(mk, model string) string {
	if strings.HasPrefix(model, mk) {
		return model
	}
	if strings.HasSuffix(mk, " ") {
		return mk + model
	}
	return mk + " " + model
}

func (x *Extractor) checkExifVersion(store TagStore) error {
	v, err := field(store, TagExifVersion)
	if err != nil {
		return err
	}
	data, ok := v.(Undefined)
	if !ok {
		return wrongType(TagExifVersion, TypeUndefined, v)
	}
	if len(data) != 4 {
		return invalidData(TagName(TagExifVersion), TagExifVersion, "expected 4 bytes, got %d", len(data))
	}
	major, err := versionDigits(data[:2])
	if err != nil {
		return err
	}
	minor, err := versionDigits(data[2:])
	if err != nil {
		return err
	}
	x.logger.Debug("exif version", "major", major, "minor", minor)
	if major < minExifMajor || (major == minExifMajor && minor < minExifMinor) {
		return unsupported(TagName(TagExifVersion), TagExifVersion,
			"version %d.%02d is older than %d.%02d", major, minor, minExifMajor, minExifMinor)
	}
	return nil
}

func versionDigits(b []byte) (uint8, error) {
	n, err := strconv.ParseUint(string(b), 10, 8)
	if err != nil {
		return 0, invalidData(TagName(TagExifVersion), TagExifVersion, "expected ASCII digits, got %q", b)
	}
	return uint8(n), nil
}

func (x *Extractor) sensitivity(store TagStore) (uint32, uint16, error) {
	sensitivityType, err := shortField(store, TagSensitivityType)
	if err != nil {
		return 0, 0, err
	}
	if sensitivityType == 0 || int(sensitivityType) >= len(sensitivityFields) {
		return 0, 0, unsupported(TagName(TagSensitivityType), TagSensitivityType,
			"unknown sensitivity type %d", sensitivityType)
	}
	tag := sensitivityFields[sensitivityType]
	value, err := longField(store, tag)
	if err != nil {
		return 0, 0, err
	}
	x.logger.Debug("sensitivity", "type", sensitivityType, "field", TagName(tag), "value", value)
	return value, sensitivityType, nil
}

func (x *Extractor) temperature(store TagStore, mk string) (float32, error) {
	if mk != temperatureMake {
		return 0, unsupported(TagName(TagMake), TagMake,
			"maker notes of %q are not supported, only %q", mk, temperatureMake)
	}
	v, err := field(store, TagMakerNote)
	if err != nil {
		return 0, err
	}
	blob, ok := v.(Undefined)
	if !ok {
		return 0, wrongType(TagMakerNote, TypeUndefined, v)
	}
	entries, err := DecodeMakerNote(blob)
	if err != nil {
		return 0, &Error{Kind: KindInvalidData, Name: TagName(TagMakerNote), Tag: TagMakerNote, Err: err}
	}
	x.logger.Debug("maker note", "bytes", len(blob), "entries", len(entries))

	for _, e := range entries {
		x.logger.Log(context.Background(), LevelTrace, "maker note entry",
			"tag", e.Tag, "type", e.Value.Type(), "count", e.Value.Len())
	}
	for _, e := range entries {
		if e.Tag != canonShotInfo {
			continue
		}
		info, ok := e.Value.(Shorts)
		if !ok {
			return 0, &Error{Kind: KindInvalidData, Name: "ShotInfo", Tag: canonShotInfo,
				Msg: "not a short array", Want: TypeShort, Got: e.Value.Type()}
		}
		if len(info) <= shotInfoCameraTemperature {
			return 0, invalidData("ShotInfo", canonShotInfo,
				"missing camera temperature, %d elements", len(info))
		}
		raw := info[shotInfoCameraTemperature]
		x.logger.Debug("camera temperature", "raw", raw)
		return float32(int(raw) - shotInfoTemperatureBias), nil
	}
	return 0, invalidData("ShotInfo", canonShotInfo, "not found in maker note")
}

func field(store TagStore, tag uint16) (Value, error) {
	v, ok := store.Field(tag)
	if !ok || v == nil {
		return nil, invalidData(TagName(tag), tag, "missing field")
	}
	return v, nil
}

func wrongType(tag uint16, want Type, v Value) *Error {
	return &Error{Kind: KindInvalidData, Name: TagName(tag), Tag: tag,
		Msg: "unexpected type", Want: want, Got: v.Type()}
}

func notSingle(tag uint16, n int) *Error {
	return invalidData(TagName(tag), tag, "expected a single value, got %d", n)
}

func stringField(store TagStore, tag uint16) (string, error) {
	v, err := field(store, tag)
	if err != nil {
		return "", err
	}
	s, ok := v.(ASCII)
	if !ok {
		return "", wrongType(tag, TypeASCII, v)
	}
	if len(s) != 1 {
		return "", notSingle(tag, len(s))
	}
	if !utf8.Valid(s[0]) {
		return "", invalidData(TagName(tag), tag, "bad UTF-8")
	}
	return string(s[0]), nil
}

func shortField(store TagStore, tag uint16) (uint16, error) {
	v, err := field(store, tag)
	if err != nil {
		return 0, err
	}
	s, ok := v.(Shorts)
	if !ok {
		return 0, wrongType(tag, TypeShort, v)
	}
	if len(s) != 1 {
		return 0, notSingle(tag, len(s))
	}
	return s[0], nil
}

func longField(store TagStore, tag uint16) (uint32, error) {
	v, err := field(store, tag)
	if err != nil {
		return 0, err
	}
	l, ok := v.(Longs)
	if !ok {
		return 0, wrongType(tag, TypeLong, v)
	}
	if len(l) != 1 {
		return 0, notSingle(tag, len(l))
	}
	return l[0], nil
}

func rationalField(store TagStore, tag uint16) (Rational, error) {
	v, err := field(store, tag)
	if err != nil {
		return Rational{}, err
	}
	r, ok := v.(Rationals)
	if !ok {
		return Rational{}, wrongType(tag, TypeRational, v)
	}
	if len(r) != 1 {
		return Rational{}, notSingle(tag, len(r))
	}
	return r[0], nil
}
