package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestQualityClamped(t *testing.T) {
	e := NewJPEGEncoder(0)
	if e.Quality() != 1 {
		t.Fatalf("quality = %d", e.Quality())
	}
	e.SetQuality(250)
	if e.Quality() != 100 {
		t.Fatalf("quality = %d", e.Quality())
	}
}

func TestEncodeProducesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(3, 3, color.RGBA{R: 255, A: 255})

	data, err := NewJPEGEncoder(80).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
}
