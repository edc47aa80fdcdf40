package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
)

// JPEGDecoder decodes JPEG bytes into *image.RGBA.
type JPEGDecoder struct {
	width, height int
}

func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{}
}

// Expect makes Decode reject images that are not w by h. Zero disables the
// check.
func (d *JPEGDecoder) Expect(w, h int) {
	d.width, d.height = w, h
}

func (d *JPEGDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	b := img.Bounds()
	if d.width > 0 && (b.Dx() != d.width || b.Dy() != d.height) {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrSize, b.Dx(), b.Dy(), d.width, d.height)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	// JPEG decodes to YCbCr; rebase to the origin for side-by-side crops.
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
