// Package gifenc writes animated GIF89a streams one frame at a time.
//
// The standard library's gif.EncodeAll needs every frame in memory before it
// writes a byte. Encoder instead emits the header on Start, one complete
// image block per PushFrame, and the trailer on Finish, so memory stays
// bounded by a single quantised frame regardless of animation length.
//
// Every frame carries its own colour table and graphic control extension;
// there is no global colour table.
package gifenc
