// Package encoder compresses rendered stereo frames for the frames channel.
package encoder

import "image"

// Encoder compresses one side-by-side stereo image. Quality may change
// between frames.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	SetQuality(quality int)
	Quality() int
}

var _ Encoder = (*JPEGEncoder)(nil)
