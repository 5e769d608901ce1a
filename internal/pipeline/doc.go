// Package pipeline turns a dataset's frames into one animated GIF.
//
// Run lists the frames, resolves the geometry from the first one, and then
// streams every frame through decode, paint, and encode strictly one at a
// time, so memory holds a single decoded frame plus the compositor surface.
// Bytes go to a hidden temporary file beside the artifact that is synced,
// closed, and renamed over the previous artifact only after the trailer is
// written. A failed run removes its temporary file and leaves any earlier
// artifact in place.
//
// Runs for the same dataset are mutually exclusive; a concurrent trigger fails
// immediately with ErrInProgress. Codecs are injectable for tests.
package pipeline
