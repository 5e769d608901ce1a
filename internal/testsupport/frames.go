package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// FrameColor returns a distinct opaque colour for frame index i. The values
// are web-safe, so they survive quantisation with palette.WebSafe unchanged.
func FrameColor(i int) color.RGBA {
	palette := []color.RGBA{
		{R: 0xff, A: 0xff},
		{G: 0xff, A: 0xff},
		{B: 0xff, A: 0xff},
		{R: 0xff, G: 0xff, A: 0xff},
		{R: 0xff, B: 0xff, A: 0xff},
		{G: 0xff, B: 0xff, A: 0xff},
	}
	return palette[i%len(palette)]
}

// SolidImage returns a w x h image filled with c.
func SolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WritePNGFrames writes one solid w x h PNG per name into dir, coloured by
// position with FrameColor. It returns the full paths in the given order.
func WritePNGFrames(t testing.TB, dir string, w, h int, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		WritePNG(t, paths[i], SolidImage(w, h, FrameColor(i)))
	}
	return paths
}
