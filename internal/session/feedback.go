package session

import (
	"errors"
	"log/slog"

	"github.com/junsooki/AirXR/internal/remote"
)

// AudioSink plays received audio. Write returns remote.ErrAudioDisconnected
// when the output device went away.
type AudioSink interface {
	Open() error
	Write(samples []int16) error
	Close() error
}

// OnHaptic implements remote.HapticHandler.
func (s *Session) OnHaptic(h remote.HapticFeedback) {
	if s.haptics == nil || !s.machine.IsConnected() {
		return
	}
	if h.Controller < 0 || h.Controller > 1 {
		slog.Warn("session: haptic for unknown controller", "controller", h.Controller)
		return
	}
	s.haptics.ApplyHaptics(h.Controller, h.Amplitude, h.Frequency, int64(h.DurationMS)*1e6)
}

// RenderAudio implements remote.AudioRenderer. A disconnected output is
// closed and reopened.
func (s *Session) RenderAudio(frame remote.AudioFrame) error {
	if s.audio == nil || !s.cfg.EnableAudioPlayback {
		return nil
	}
	err := s.audio.Write(frame.Samples)
	if !errors.Is(err, remote.ErrAudioDisconnected) {
		return err
	}

	slog.Warn("session: audio disconnected, reopening")
	if cerr := s.audio.Close(); cerr != nil {
		slog.Warn("session: audio close", "error", cerr)
	}
	if oerr := s.audio.Open(); oerr != nil {
		slog.Error("session: audio reopen", "error", oerr)
		return oerr
	}
	return nil
}
