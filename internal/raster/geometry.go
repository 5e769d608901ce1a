package raster

import (
	"fmt"
	"image"
)

// Geometry is the pixel size shared by every frame of a run.
type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the geometry as a rectangle anchored at the origin.
func (g Geometry) Rect() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// GeometryOf reports the size of img.
func GeometryOf(img image.Image) Geometry {
	b := img.Bounds()
	return Geometry{Width: b.Dx(), Height: b.Dy()}
}

// ResolveGeometry fully decodes the frame at path and returns its size.
func ResolveGeometry(dec Decoder, path string) (Geometry, error) {
	img, err := DecodeFile(dec, path)
	if err != nil {
		return Geometry{}, err
	}
	return GeometryOf(img), nil
}
