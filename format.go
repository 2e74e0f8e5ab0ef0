package darkmagic

import (
	"bufio"
	"io"
	"sync"
)

// ErrFormat indicates that decoding encountered an unknown container.
var ErrFormat = FormatError("unknown container")

// Size is the pixel size of an image as recorded in its container.
type Size struct {
	Width  int `json:"width" yaml:"width" cbor:"width"`
	Height int `json:"height" yaml:"height" cbor:"height"`
}

// Container is what a container decoder finds in an image file.
type Container struct {
	Size Size
	// Exif is the EXIF payload, starting at its TIFF header.
	Exif []byte
}

// A format holds a container format's name, magic header and how to decode
// it.
type format struct {
	name, magic string
	decode      func(io.Reader) (Container, error)
}

var (
	formatsMu sync.Mutex
	formats   []format
)

// RegisterFormat registers a container format for use by DecodeContainer.
// Name is the name of the format, like "jpeg" or "tiff". Magic is the magic
// prefix that identifies the format's encoding. The magic string can contain
// "?" wildcards that each match any one byte. Decode is the function that
// finds the EXIF payload in an encoded container.
func RegisterFormat(name, magic string, decode func(io.Reader) (Container, error)) {
	formatsMu.Lock()
	formats = append(formats, format{name, magic, decode})
	formatsMu.Unlock()
}

// A reader is an io.Reader that can also peek ahead.
type reader interface {
	io.Reader
	Peek(int) ([]byte, error)
}

// asReader converts an io.Reader to a reader.
func asReader(r io.Reader) reader {
	if rr, ok := r.(reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

// match reports whether magic matches b. Magic may contain "?" wildcards.
func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// sniff determines the format of r's data.
func sniff(r reader) format {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	for _, f := range formats {
		b, err := r.Peek(len(f.magic))
		if err == nil && match(f.magic, b) {
			return f
		}
	}
	return format{}
}

// DecodeContainer finds the EXIF payload and pixel size of an image encoded
// in a registered format. The string returned is the format name used
// during format registration.
func DecodeContainer(r io.Reader) (Container, string, error) {
	rr := asReader(r)
	f := sniff(rr)
	if f.decode == nil {
		return Container{}, "", ErrFormat
	}
	c, err := f.decode(rr)
	return c, f.name, err
}
