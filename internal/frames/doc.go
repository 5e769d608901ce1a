// Package frames discovers the ordered still frames of a dataset directory.
//
// A dataset is a directory directly under the results root. Its frames are the
// regular files whose names contain the configured marker substring. The
// rendered artifact and hidden files are never frames. Ordering is natural:
// digit runs compare numerically so frame_2 sorts before frame_10, and equal
// keys fall back to a bytewise comparison to keep the order total.
package frames
