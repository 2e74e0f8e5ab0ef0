package darkmagic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Report is the result of inspecting one image file.
type Report struct {
	Path     string        `json:"path" yaml:"path" cbor:"path"`
	Format   string        `json:"format" yaml:"format" cbor:"format"`
	Size     Size          `json:"size" yaml:"size" cbor:"size"`
	Metadata ImageMetadata `json:"metadata" yaml:"metadata" cbor:"metadata"`
}

// OutputFormats lists the formats accepted by Report.Encode.
var OutputFormats = []string{"text", "json", "yaml", "cbor"}

// cborEncMode uses Core Deterministic Encoding, so the same report always
// produces identical bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("darkmagic: CBOR encoder initialization failed: " + err.Error())
	}
}

// Encode writes r to w. The text format is the %+v rendering of the
// metadata alone; the other formats carry the whole report.
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintf(w, "%+v\n", r.Metadata)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		data, err := cborEncMode.Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Inspect reads the image file at path, finds its container format and
// EXIF payload, and extracts its metadata.
func (x *Extractor) Inspect(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Msg: path, Err: err}
	}
	c, name, err := DecodeContainer(bytes.NewReader(data))
	if err != nil {
		// The file is already in memory, so any failure is a parse failure.
		return nil, &Error{Kind: KindUpstreamParse, Msg: path, Err: err}
	}
	x.logger.Debug("container", "path", path, "format", name,
		"width", c.Size.Width, "height", c.Size.Height, "exif_bytes", len(c.Exif))

	store, err := NewTagStore(c.Exif)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Msg == "" {
			e.Msg = path
		}
		return nil, err
	}
	md, err := x.Extract(store)
	if err != nil {
		return nil, err
	}
	return &Report{Path: path, Format: name, Size: c.Size, Metadata: md}, nil
}

// ReadFile extracts the metadata of the image file at path.
func (x *Extractor) ReadFile(path string) (ImageMetadata, error) {
	rep, err := x.Inspect(path)
	if err != nil {
		return ImageMetadata{}, err
	}
	return rep.Metadata, nil
}

// ReadFile extracts the metadata of the image file at path without logging.
func ReadFile(path string) (ImageMetadata, error) {
	return NewExtractor(nil).ReadFile(path)
}
