// Package image turns a user-selected photo into a persistable base64
// payload plus a transient preview handle, normalizing size and format
// on the way.
package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxFileSize caps the accepted upload at 15 MB.
	MaxFileSize = 15 << 20
	// MaxDimension is the bounding box edge; larger photos are
	// downscaled before encoding to bound snapshot size.
	MaxDimension = 1600

	jpegQuality = 85
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format, use JPEG, PNG, GIF, WEBP or HEIC")
	ErrTooLarge          = errors.New("image exceeds the 15 MB limit")
	ErrConversionFailed  = errors.New("could not convert the photo, try saving it as JPEG first")
)

// Converter translates a legacy mobile format (HEIC) into a format the
// stdlib decoders understand. The conversion library itself is an
// external collaborator.
type Converter interface {
	Convert(data []byte) ([]byte, error)
}

// Attachment is the processed photo: Data persists with the cart line,
// PreviewHandle is ephemeral and owned by the preview registry.
type Attachment struct {
	Data          string
	ContentType   string
	PreviewHandle string
}

type Processor struct {
	registry  *PreviewRegistry
	converter Converter
	maxBytes  int
	maxDim    int
}

func NewProcessor(registry *PreviewRegistry, converter Converter) *Processor {
	return &Processor{
		registry:  registry,
		converter: converter,
		maxBytes:  MaxFileSize,
		maxDim:    MaxDimension,
	}
}

// Process validates, normalizes and encodes the photo. Each failure
// kind keeps its own error so the caller can show a specific,
// actionable message.
func (p *Processor) Process(data []byte) (*Attachment, error) {
	if len(data) > p.maxBytes {
		return nil, ErrTooLarge
	}

	if isHEIC(data) {
		if p.converter == nil {
			return nil, fmt.Errorf("%w: no HEIC converter configured", ErrConversionFailed)
		}
		converted, err := p.converter.Convert(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
		}
		data = converted
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	img = p.downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode image failed: %w", err)
	}

	encoded := buf.Bytes()
	return &Attachment{
		Data:          base64.StdEncoding.EncodeToString(encoded),
		ContentType:   "image/jpeg",
		PreviewHandle: p.registry.Issue(encoded),
	}, nil
}

// downscale fits the image into the bounding box, preserving aspect
// ratio. Images already inside the box pass through untouched.
func (p *Processor) downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= p.maxDim && h <= p.maxDim {
		return img
	}

	var newW, newH int
	if w >= h {
		newW = p.maxDim
		newH = h * p.maxDim / w
	} else {
		newH = p.maxDim
		newW = w * p.maxDim / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// isHEIC sniffs the ISO base media ftyp box for the HEIC/HEIF brands
// the stdlib cannot decode.
func isHEIC(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}
