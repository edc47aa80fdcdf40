package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/remote"
)

var (
	skyColor     = [remote.NumEyes]color.RGBA{{R: 40, G: 70, B: 140, A: 255}, {R: 40, G: 90, B: 120, A: 255}}
	groundColor  = color.RGBA{R: 70, G: 60, B: 40, A: 255}
	markerColor  = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	tickerColor  = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	halfFOV      = math.Pi / 4
	eyeDisparity = 4
)

// PatternCapturer renders a stereo test pattern that follows the head pose:
// a horizon that tracks pitch, a marker that tracks yaw, and a ticker bar
// that moves every frame.
type PatternCapturer struct {
	width, height int
	fps           int
	head          HeadSource

	frame   uint64
	frameCh chan *Frame
	stopCh  chan struct{}
	running bool
}

// NewPatternCapturer creates a pattern source with eyeW by eyeH per eye.
func NewPatternCapturer(eyeW, eyeH, fps int, head HeadSource) (*PatternCapturer, error) {
	if fps <= 0 || fps > 240 {
		return nil, fmt.Errorf("fps must be 1-240, got %d", fps)
	}
	if eyeW <= 0 || eyeH <= 0 {
		return nil, fmt.Errorf("invalid eye size %dx%d", eyeW, eyeH)
	}
	return &PatternCapturer{
		width:   eyeW,
		height:  eyeH,
		fps:     fps,
		head:    head,
		frameCh: make(chan *Frame, 2),
		stopCh:  make(chan struct{}),
	}, nil
}

func (c *PatternCapturer) Start() error {
	if c.running {
		return fmt.Errorf("already running")
	}
	c.running = true
	go c.loop()
	return nil
}

func (c *PatternCapturer) Stop() {
	if !c.running {
		return
	}
	c.running = false
	close(c.stopCh)
}

func (c *PatternCapturer) Frames() <-chan *Frame {
	return c.frameCh
}

func (c *PatternCapturer) loop() {
	ticker := time.NewTicker(time.Second / time.Duration(c.fps))
	defer ticker.Stop()
	defer close(c.frameCh)

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			var head remote.DevicePose
			var poseID uint64
			if c.head != nil {
				head, poseID = c.head()
			}
			f := c.Render(head, poseID)
			select {
			case c.frameCh <- f:
			default:
			}
		}
	}
}

// Render draws one frame for head.
func (c *PatternCapturer) Render(head remote.DevicePose, poseID uint64) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, c.width*remote.NumEyes, c.height))
	euler := pose.FromProtocol(head).Euler
	horizon := horizonRow(c.height, euler.X)
	marker := markerColumn(c.width, euler.Y)
	tick := int(c.frame % uint64(c.width))
	c.frame++

	for eye := 0; eye < remote.NumEyes; eye++ {
		x0 := eye * c.width
		bounds := image.Rect(x0, 0, x0+c.width, c.height)

		draw.Draw(img, bounds, image.NewUniform(skyColor[eye]), image.Point{}, draw.Src)
		ground := image.Rect(x0, horizon, x0+c.width, c.height).Intersect(bounds)
		draw.Draw(img, ground, image.NewUniform(groundColor), image.Point{}, draw.Src)

		shift := eyeDisparity
		if eye == 0 {
			shift = -eyeDisparity
		}
		mx := x0 + clamp(marker+shift, 0, c.width-2)
		draw.Draw(img, image.Rect(mx, 0, mx+2, c.height), image.NewUniform(markerColor), image.Point{}, draw.Src)

		bar := image.Rect(x0+tick, c.height-8, x0+tick+8, c.height).Intersect(bounds)
		draw.Draw(img, bar, image.NewUniform(tickerColor), image.Point{}, draw.Src)
	}

	return &Frame{
		Image:     img,
		Width:     c.width,
		Height:    c.height,
		PoseID:    poseID,
		Head:      head,
		Timestamp: time.Now(),
	}
}

// horizonRow places the horizon for a pitch in radians. Looking up moves it
// down the image.
func horizonRow(height int, pitch float32) int {
	row := float64(height)/2 + float64(pitch)/halfFOV*float64(height)/2
	return clamp(int(math.Round(row)), 0, height)
}

// markerColumn places the yaw marker, wrapping every quarter turn.
func markerColumn(width int, yaw float32) int {
	frac := math.Mod(-float64(yaw)/(2*halfFOV), 1)
	if frac < 0 {
		frac++
	}
	return int(frac * float64(width))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
