package decoder

import (
	"errors"
	"image"
)

// ErrSize is returned when a decoded frame has unexpected dimensions.
var ErrSize = errors.New("decoder: unexpected frame size")

// Decoder decodes bytes into an image.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
