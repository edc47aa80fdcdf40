package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Pose limits for the tracking poll rate.
const (
	MinPosePollHz = 60
	MaxPosePollHz = 1000
)

// Offset is a controller offset: position in meters and rotation as
// pitch/yaw/roll in degrees.
type Offset struct {
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation_deg"`
}

// Client holds configuration for the headset client.
type Client struct {
	ServerAddress string `json:"server_ip_address"`
	ClientID      string `json:"client_id"`
	AutoConnect   bool   `json:"enable_auto_connect"`

	PerEyeWidth     int     `json:"per_eye_width"`
	PerEyeHeight    int     `json:"per_eye_height"`
	RefreshRate     float64 `json:"desired_refresh_rate"`
	PollingRateMult int     `json:"polling_rate_mult"`
	Foveation       int     `json:"foveation"`
	MaxResFactor    float64 `json:"max_res_factor"`
	IPD             float64 `json:"default_ipd"`

	PredictionOffsetNS int64   `json:"prediction_offset_ns"`
	PoseTimeOffsetS    float64 `json:"pose_time_offset_s"`
	LatchTimeoutMS     int     `json:"latch_timeout_ms"`
	FrameCadence       string  `json:"frame_cadence"`
	LogFrameNotReady   bool    `json:"log_frame_not_ready"`

	EnableAudioPlayback  bool `json:"enable_audio_playback"`
	EnableAudioRecording bool `json:"enable_audio_recording"`

	EnableRemoteControllerOffset bool   `json:"enable_remote_controller_offset"`
	RemoteControllerOffset       Offset `json:"remote_controller_offset"`

	SendAllControllerValues bool `json:"send_all_controller_values"`
	CombineGripForce        bool `json:"combine_grip_force"`
	SimulateGripTouch       bool `json:"simulate_grip_touch"`
	SimulateThumbRest       bool `json:"simulate_thumb_rest"`

	LogLevel string `json:"log_level"`
}

// DefaultClient returns the client defaults, seeded from AIRXR_* environment
// variables.
func DefaultClient() *Client {
	return &Client{
		ServerAddress:   getenvDefault("AIRXR_SERVER", "127.0.0.1:8080"),
		AutoConnect:     getenvBoolDefault("AIRXR_AUTO_CONNECT", true),
		PerEyeWidth:     getenvIntDefault("AIRXR_PER_EYE_WIDTH", 960),
		PerEyeHeight:    getenvIntDefault("AIRXR_PER_EYE_HEIGHT", 1056),
		RefreshRate:     getenvFloatDefault("AIRXR_REFRESH_RATE", 72),
		PollingRateMult: getenvIntDefault("AIRXR_POLLING_RATE_MULT", 4),
		Foveation:       getenvIntDefault("AIRXR_FOVEATION", 50),
		MaxResFactor:    getenvFloatDefault("AIRXR_MAX_RES_FACTOR", 1),
		IPD:             getenvFloatDefault("AIRXR_IPD", 0.064),
		LatchTimeoutMS:  getenvIntDefault("AIRXR_LATCH_TIMEOUT_MS", 10),
		FrameCadence:    getenvDefault("AIRXR_FRAME_CADENCE", "both_eyes"),
		RemoteControllerOffset: Offset{
			Position: [3]float64{0, -0.03, 0.04},
			Rotation: [3]float64{-30, 0, 0},
		},
		SimulateGripTouch: true,
		LogLevel:          getenvDefault("AIRXR_LOG_LEVEL", "info"),
	}
}

// ParseClientFlags parses flags for the client binary.
func ParseClientFlags() (*Client, error) {
	return parseClient(flag.CommandLine, os.Args[1:])
}

func parseClient(fs *flag.FlagSet, args []string) (*Client, error) {
	cfg := DefaultClient()
	var file string

	fs.StringVar(&file, "config", getenvDefault("AIRXR_CONFIG", ""), "JSON config file")
	fs.StringVar(&cfg.ServerAddress, "server", cfg.ServerAddress, "Streaming server host:port")
	fs.StringVar(&cfg.ClientID, "id", "", "Client ID (auto-generated if empty)")
	fs.BoolVar(&cfg.AutoConnect, "auto-connect", cfg.AutoConnect, "Connect as soon as the session is ready")
	fs.IntVar(&cfg.PerEyeWidth, "width", cfg.PerEyeWidth, "Per-eye stream width")
	fs.IntVar(&cfg.PerEyeHeight, "height", cfg.PerEyeHeight, "Per-eye stream height")
	fs.Float64Var(&cfg.RefreshRate, "fps", cfg.RefreshRate, "Desired refresh rate")
	fs.IntVar(&cfg.PollingRateMult, "poll-mult", cfg.PollingRateMult, "Tracking poll rate as a multiple of fps")
	fs.IntVar(&cfg.LatchTimeoutMS, "latch-timeout", cfg.LatchTimeoutMS, "Frame latch timeout in ms")
	fs.StringVar(&cfg.FrameCadence, "cadence", cfg.FrameCadence, "Frame cadence: both_eyes or per_eye")
	fs.BoolVar(&cfg.SendAllControllerValues, "send-all", cfg.SendAllControllerValues, "Send every controller value each poll")
	fs.BoolVar(&cfg.EnableRemoteControllerOffset, "controller-offset", cfg.EnableRemoteControllerOffset, "Apply the remote controller offset")
	fs.BoolVar(&cfg.LogFrameNotReady, "log-not-ready", cfg.LogFrameNotReady, "Log frame-not-ready latches")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file != "" {
		if err := cfg.LoadFile(file); err != nil {
			return nil, err
		}
		// Command-line flags win over the file.
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("client-%s", shortID())
	}
	return cfg, cfg.Normalize()
}

// LoadFile overlays keys present in a JSON file onto c.
func (c *Client) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config read: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config parse %s: %w", path, err)
	}
	return nil
}

// Normalize clamps values into range.
func (c *Client) Normalize() error {
	if c.ServerAddress == "" {
		return errors.New("config: server address required")
	}
	if c.PerEyeWidth <= 0 || c.PerEyeHeight <= 0 {
		return fmt.Errorf("config: invalid per-eye size %dx%d", c.PerEyeWidth, c.PerEyeHeight)
	}
	if c.RefreshRate <= 0 {
		return fmt.Errorf("config: invalid refresh rate %v", c.RefreshRate)
	}
	c.PerEyeWidth = roundUp32(c.PerEyeWidth)
	c.PerEyeHeight = roundUp32(c.PerEyeHeight)
	c.Foveation = clampInt(c.Foveation, 0, 100)
	if c.PollingRateMult < 1 {
		c.PollingRateMult = 1
	}
	if c.LatchTimeoutMS < 0 {
		c.LatchTimeoutMS = 0
	}
	return nil
}

// PosePollHz is the tracking poll rate derived from the refresh rate.
func (c *Client) PosePollHz() int {
	hz := int(float64(c.PollingRateMult)*c.RefreshRate + 0.5)
	return clampInt(hz, MinPosePollHz, MaxPosePollHz)
}

// SignalingURL is the WebSocket endpoint on the server.
func (c *Client) SignalingURL() string {
	addr := c.ServerAddress
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + "/signal"
}

// Server holds configuration for the loopback streaming server.
type Server struct {
	Listen   string
	ServerID string
	FPS      int
	Quality  int
	Width    int
	Height   int
	LogLevel string

	// MaxFrameBytes is the encoded frame budget; larger frames lower the
	// JPEG quality. Zero disables adaptation.
	MaxFrameBytes int
}

// ParseServerFlags parses flags for the server binary.
func ParseServerFlags() *Server {
	cfg := &Server{}
	flag.StringVar(&cfg.Listen, "listen", getenvDefault("AIRXR_LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.ServerID, "id", "", "Server ID (auto-generated if empty)")
	flag.IntVar(&cfg.FPS, "fps", getenvIntDefault("AIRXR_SERVER_FPS", 30), "Stream frames per second")
	flag.IntVar(&cfg.Quality, "quality", getenvIntDefault("AIRXR_QUALITY", 70), "JPEG quality (1-100)")
	flag.IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", getenvIntDefault("AIRXR_MAX_FRAME_BYTES", 256*1024), "Encoded frame budget in bytes (0 = fixed quality)")
	flag.IntVar(&cfg.Width, "width", 0, "Per-eye width override (0 = client request)")
	flag.IntVar(&cfg.Height, "height", 0, "Per-eye height override (0 = client request)")
	flag.StringVar(&cfg.LogLevel, "log-level", getenvDefault("AIRXR_LOG_LEVEL", "info"), "Log level")
	flag.Parse()

	if cfg.ServerID == "" {
		cfg.ServerID = fmt.Sprintf("server-%s", shortID())
	}
	return cfg
}

// NewLogger builds a text slog logger at level ("debug", "info", ...).
func NewLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func shortID() string {
	return uuid.NewString()[:8]
}

func roundUp32(v int) int {
	return (v + 31) &^ 31
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
