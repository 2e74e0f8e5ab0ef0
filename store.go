package darkmagic

// TagStore gives access to the standard EXIF fields of one image.
type TagStore interface {
	// Field returns the value of tag, or false if the image lacks it.
	Field(tag uint16) (Value, bool)
}

// Standard EXIF tags consulted by the extractor.
const (
	TagMake                      = 0x010f
	TagModel                     = 0x0110
	TagExposureTime              = 0x829a
	TagExifIFD                   = 0x8769
	TagSensitivityType           = 0x8830
	TagStandardOutputSensitivity = 0x8831
	TagRecommendedExposureIndex  = 0x8832
	TagISOSpeed                  = 0x8833
	TagExifVersion               = 0x9000
	TagMakerNote                 = 0x927c
	TagBodySerialNumber          = 0xa431
)

var tagNames = map[uint16]string{
	TagMake:                      "Make",
	TagModel:                     "Model",
	TagExposureTime:              "ExposureTime",
	TagExifIFD:                   "ExifIFDPointer",
	TagSensitivityType:           "SensitivityType",
	TagStandardOutputSensitivity: "StandardOutputSensitivity",
	TagRecommendedExposureIndex:  "RecommendedExposureIndex",
	TagISOSpeed:                  "ISOSpeed",
	TagExifVersion:               "ExifVersion",
	TagMakerNote:                 "MakerNote",
	TagBodySerialNumber:          "BodySerialNumber",
}

// TagName returns the EXIF name of tag, or "" for tags this package does
// not know.
func TagName(tag uint16) string { return tagNames[tag] }

// MapStore is a TagStore backed by a map. The zero value is an empty store.
type MapStore map[uint16]Value

// Field implements TagStore.
func (m MapStore) Field(tag uint16) (Value, bool) {
	v, ok := m[tag]
	return v, ok
}
