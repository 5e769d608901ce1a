// Package raster decodes frame images, resolves the run geometry from the
// first frame, and composites every frame onto one reusable RGBA surface.
//
// Decoding is behind the Decoder interface so the pipeline can be exercised
// with fakes. Frames whose size differs from the resolved geometry follow the
// configured Fit policy: reject, centre crop, centre pad, or Catmull-Rom scale.
package raster
