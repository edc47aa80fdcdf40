package capture

import (
	"math"
	"testing"
	"time"

	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/remote"
)

func headWith(pitch, yaw float64) remote.DevicePose {
	return pose.ToProtocol(pose.New(pose.Vec3{Y: 1.6}, pose.FromEuler(pitch, yaw, 0)))
}

func TestRenderSideBySide(t *testing.T) {
	c, err := NewPatternCapturer(64, 48, 30, nil)
	if err != nil {
		t.Fatal(err)
	}
	f := c.Render(headWith(0, 0), 9)

	if f.Image.Bounds().Dx() != 128 || f.Image.Bounds().Dy() != 48 {
		t.Fatalf("bounds = %v", f.Image.Bounds())
	}
	if f.Width != 64 || f.Height != 48 || f.PoseID != 9 {
		t.Fatalf("frame = %+v", f)
	}
	if got := f.Image.RGBAAt(10, 2); got != skyColor[0] {
		t.Errorf("left sky = %+v", got)
	}
	if got := f.Image.RGBAAt(64+10, 2); got != skyColor[1] {
		t.Errorf("right sky = %+v", got)
	}
	if got := f.Image.RGBAAt(10, 30); got != groundColor {
		t.Errorf("ground = %+v", got)
	}
}

func TestHorizonFollowsPitch(t *testing.T) {
	level := horizonRow(100, 0)
	if level != 50 {
		t.Fatalf("level horizon = %d", level)
	}
	if up := horizonRow(100, 0.3); up <= level {
		t.Errorf("looking up: horizon %d, level %d", up, level)
	}
	if down := horizonRow(100, -0.3); down >= level {
		t.Errorf("looking down: horizon %d, level %d", down, level)
	}
	if got := horizonRow(100, math.Pi/2); got != 100 {
		t.Errorf("clamped horizon = %d", got)
	}
}

func TestMarkerFollowsYaw(t *testing.T) {
	if got := markerColumn(100, 0); got != 0 {
		t.Fatalf("marker = %d", got)
	}
	a := markerColumn(100, -0.2)
	b := markerColumn(100, -0.4)
	if !(b > a && a > 0) {
		t.Errorf("marker did not move with yaw: %d then %d", a, b)
	}
	if got := markerColumn(100, 0.2); got <= 50 {
		t.Errorf("negative wrap = %d", got)
	}
}

func TestCapturerLoop(t *testing.T) {
	calls := 0
	c, err := NewPatternCapturer(16, 16, 200, func() (remote.DevicePose, uint64) {
		calls++
		return headWith(0, 0), uint64(calls)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err == nil {
		t.Error("second Start succeeded")
	}

	select {
	case f := <-c.Frames():
		if f.PoseID == 0 {
			t.Errorf("pose id not stamped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame")
	}
	c.Stop()
	for range c.Frames() {
	}
}

func TestNewPatternCapturerValidates(t *testing.T) {
	if _, err := NewPatternCapturer(16, 16, 0, nil); err == nil {
		t.Error("zero fps accepted")
	}
	if _, err := NewPatternCapturer(0, 16, 30, nil); err == nil {
		t.Error("zero width accepted")
	}
}
