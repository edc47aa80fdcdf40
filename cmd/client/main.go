package main

import (
	"fmt"
	"log"
	"log/slog"
	"math"

	"github.com/junsooki/AirXR/internal/config"
	"github.com/junsooki/AirXR/internal/display"
	"github.com/junsooki/AirXR/internal/peer"
	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/session"
	"github.com/junsooki/AirXR/internal/stream"
)

const helpText = "[arrows] look  [R] recenter  [Q/E] left trigger/grip  [WASD] left stick  [Z/C] X/Y\n" +
	"[U/O] right trigger/grip  [IJKL] right stick  [N/M] A/B  [Tab] menu  [Esc] quit"

func main() {
	cfg, err := config.ParseClientFlags()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slog.SetDefault(config.NewLogger(cfg.LogLevel))

	log.Printf("AirXR Client starting")
	log.Printf("  Client ID:   %s", cfg.ClientID)
	log.Printf("  Server:      %s", cfg.SignalingURL())
	log.Printf("  Per eye:     %dx%d @ %.0f Hz", cfg.PerEyeWidth, cfg.PerEyeHeight, cfg.RefreshRate)
	log.Printf("  Pose poll:   %d Hz", cfg.PosePollHz())
	log.Printf("  Cadence:     %s", cfg.FrameCadence)
	log.Printf("  Audio:       %v", cfg.EnableAudioPlayback)

	rt := display.NewDesktop(float32(cfg.IPD), cfg.RefreshRate)
	svc := stream.NewService(cfg.ClientID, peer.DefaultConfig())

	var sess *session.Session
	var lastEye [2]pose.Pose
	disp := display.NewEbitenDisplay("AirXR Client", rt,
		func() {
			sess.Frame(func(eye int, p pose.Pose) {
				lastEye[eye] = p
			})
		},
		func() string {
			st := sess.Stats()
			head := lastEye[0].Euler
			return fmt.Sprintf("%s  ipd %.4f\nlatched %d  not ready %d  errors %d\neye yaw %.1f pitch %.1f\n%s",
				sess.State(), sess.IPD(), st.Latches, st.NotReady, st.Errors,
				degrees(head.Y), degrees(head.X), helpText)
		},
	)
	opts := []session.Option{session.WithRenderTarget(disp)}
	if cfg.EnableAudioPlayback {
		speaker := display.NewSpeaker()
		if err := speaker.Open(); err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			opts = append(opts, session.WithAudioSink(speaker))
		}
	}
	sess = session.New(cfg, svc, rt, opts...)
	defer sess.Close()

	if !cfg.AutoConnect && !sess.Connect() {
		log.Printf("initial connect not started, state %s", sess.State())
	}

	// Ebitengine RunGame must be on the main goroutine.
	if err := disp.Run(); err != nil {
		log.Fatalf("display: %v", err)
	}
	log.Println("Shutting down...")
}

func degrees(rad float32) float64 {
	return float64(rad) * 180 / math.Pi
}
