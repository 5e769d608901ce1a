package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Fit selects how a frame whose size differs from the run geometry is placed.
type Fit string

const (
	FitReject Fit = "reject"
	FitCrop   Fit = "crop"
	FitPad    Fit = "pad"
	FitScale  Fit = "scale"
)

// ParseFit maps a configuration value onto a Fit, defaulting to FitReject.
func ParseFit(value string) (Fit, error) {
	switch Fit(value) {
	case "", FitReject:
		return FitReject, nil
	case FitCrop, FitPad, FitScale:
		return Fit(value), nil
	default:
		return "", fmt.Errorf("unknown fit policy %q", value)
	}
}

// CompositorOptions configures painting behaviour.
type CompositorOptions struct {
	Fit Fit
	// Clear resets the surface to transparent before each paint. Without it
	// pixels from earlier frames show through transparent areas of later ones.
	Clear bool
}

// Compositor owns the single drawing surface reused across a run.
type Compositor struct {
	geom    Geometry
	opts    CompositorOptions
	surface *image.RGBA
}

// NewCompositor allocates a transparent surface sized to g.
func NewCompositor(g Geometry, opts CompositorOptions) *Compositor {
	if opts.Fit == "" {
		opts.Fit = FitReject
	}
	return &Compositor{
		geom:    g,
		opts:    opts,
		surface: image.NewRGBA(g.Rect()),
	}
}

// Geometry returns the surface size.
func (c *Compositor) Geometry() Geometry {
	return c.geom
}

// Paint draws img onto the surface anchored at the origin and returns the
// surface. The returned buffer is overwritten by the next Paint call.
func (c *Compositor) Paint(img image.Image) (*image.RGBA, error) {
	dst := c.geom.Rect()
	src := img.Bounds()
	matches := src.Dx() == c.geom.Width && src.Dy() == c.geom.Height

	if !matches && c.opts.Fit == FitReject {
		return nil, fmt.Errorf("%w: frame is %dx%d, expected %s", ErrGeometryMismatch, src.Dx(), src.Dy(), c.geom)
	}

	if c.opts.Clear || (!matches && c.opts.Fit == FitPad) {
		draw.Draw(c.surface, dst, image.Transparent, image.Point{}, draw.Src)
	}

	switch {
	case matches:
		draw.Draw(c.surface, dst, img, src.Min, draw.Over)
	case c.opts.Fit == FitScale:
		draw.CatmullRom.Scale(c.surface, dst, img, src, draw.Over, nil)
	default:
		// crop and pad both centre the frame; oversize edges fall off the surface
		offset := image.Pt((c.geom.Width-src.Dx())/2, (c.geom.Height-src.Dy())/2)
		placed := image.Rectangle{Min: offset, Max: offset.Add(src.Size())}.Intersect(dst)
		if !placed.Empty() {
			draw.Draw(c.surface, placed, img, src.Min.Add(placed.Min.Sub(offset)), draw.Over)
		}
	}
	return c.surface, nil
}
