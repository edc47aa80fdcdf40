package display

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/AirXR/internal/remote"
)

// EbitenDisplay shows the streamed eyes side by side using Ebitengine and
// feeds keyboard and gamepad input to a Desktop runtime.
type EbitenDisplay struct {
	runtime *Desktop
	onFrame FrameFunc
	status  StatusFunc
	title   string

	mu    sync.Mutex
	eyes  [remote.NumEyes]*image.RGBA
	dirty [remote.NumEyes]bool

	eyeImages [remote.NumEyes]*ebiten.Image
	padIDs    []ebiten.GamepadID
}

// NewEbitenDisplay creates an Ebitengine-based display. onFrame runs every
// tick after input is sampled.
func NewEbitenDisplay(title string, rt *Desktop, onFrame FrameFunc, status StatusFunc) *EbitenDisplay {
	return &EbitenDisplay{
		runtime: rt,
		onFrame: onFrame,
		status:  status,
		title:   title,
	}
}

// Present copies an eye image for the next Draw. It implements
// remote.RenderTarget.
func (d *EbitenDisplay) Present(eye int, img image.Image) {
	if eye < 0 || eye >= remote.NumEyes {
		return
	}
	b := img.Bounds()

	d.mu.Lock()
	defer d.mu.Unlock()
	dst := d.eyes[eye]
	if dst == nil || dst.Bounds().Size() != b.Size() {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		d.eyes[eye] = dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	d.dirty[eye] = true
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(d)
}

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	d.padIDs = ebiten.AppendGamepadIDs(d.padIDs[:0])
	d.runtime.Update(ebiten.IsKeyPressed, readPads(d.padIDs), 1/float64(ebiten.TPS()))

	for _, h := range d.runtime.DrainHaptics() {
		for _, id := range d.padIDs {
			ebiten.VibrateGamepad(id, &ebiten.VibrateGamepadOptions{
				Duration:        h.Duration,
				StrongMagnitude: float64(h.Amplitude),
				WeakMagnitude:   float64(h.Amplitude),
			})
		}
	}

	if d.onFrame != nil {
		d.onFrame()
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	for eye, img := range d.eyes {
		if img == nil {
			continue
		}
		ei := d.eyeImages[eye]
		if ei == nil || ei.Bounds().Size() != img.Bounds().Size() {
			ei = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
			d.eyeImages[eye] = ei
			d.dirty[eye] = true
		}
		if d.dirty[eye] {
			ei.WritePixels(img.Pix)
			d.dirty[eye] = false
		}
	}
	d.mu.Unlock()

	if left := d.eyeImages[0]; left != nil {
		eyeW, eyeH := float64(left.Bounds().Dx()), float64(left.Bounds().Dy())
		sw, sh := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
		scale, offsetX, offsetY := aspectFitTransform(sw, sh, eyeW*remote.NumEyes, eyeH)

		for eye, ei := range d.eyeImages {
			if ei == nil {
				continue
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(scale, scale)
			op.GeoM.Translate(offsetX+float64(eye)*eyeW*scale, offsetY)
			screen.DrawImage(ei, op)
		}
	}

	if d.status != nil {
		ebitenutil.DebugPrint(screen, d.status())
	}
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

var _ remote.RenderTarget = (*EbitenDisplay)(nil)
