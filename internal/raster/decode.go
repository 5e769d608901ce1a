package raster

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
)

var (
	// ErrDecode marks a frame that is not a valid raster image.
	ErrDecode = errors.New("decode frame")
	// ErrGeometryMismatch marks a frame whose size differs from the run geometry under the reject policy.
	ErrGeometryMismatch = errors.New("frame geometry mismatch")
)

// Decoder turns encoded frame bytes into pixels.
type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// PNGDecoder decodes PNG frames.
type PNGDecoder struct{}

// Decode implements Decoder.
func (PNGDecoder) Decode(r io.Reader) (image.Image, error) {
	return png.Decode(r)
}

// DecodeFile opens path and decodes it with dec. Every failure, including a
// missing or unreadable file, wraps ErrDecode.
func DecodeFile(dec Decoder, path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDecode, path, err)
	}
	defer file.Close()

	img, err := dec.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s: decoder returned no image", ErrDecode, path)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: %s: empty image %dx%d", ErrDecode, path, b.Dx(), b.Dy())
	}
	return img, nil
}
