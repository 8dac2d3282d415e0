package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
)

const appName = "netcanvas"

// Upper bounds on the rendered frame.
const (
	MaxCanvasSize = 8192 // logical pixels per side
	MaxPixelRatio = 4
)

// Config holds netcanvas configuration.
type Config struct {
	Canvas  CanvasConfig  `toml:"canvas"`
	Server  ServerConfig  `toml:"server"`
	Fonts   FontsConfig   `toml:"fonts"`
	Icons   IconsConfig   `toml:"icons"`
	Gesture GestureConfig `toml:"gesture"`
}

// CanvasConfig controls the rendered frame.
type CanvasConfig struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	PixelRatio float64 `toml:"pixel_ratio"`
	Grid       string  `toml:"grid"` // "full", "none"
	Debug      bool    `toml:"debug"`
	Background string  `toml:"background"` // hex, empty for the engine default
}

// ServerConfig controls the browser host.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	FrameRate    int      `toml:"frame_rate"`
	AllowOrigins []string `toml:"allow_origins"`
}

// FontsConfig selects the title face. An empty path uses Go Regular.
type FontsConfig struct {
	Title string  `toml:"title"`
	Size  float64 `toml:"size"`
}

// IconsConfig points at a directory of PNG icons.
type IconsConfig struct {
	Dir string `toml:"dir"`
}

// GestureConfig tunes the pointer controller.
type GestureConfig struct {
	DragThreshold float64 `toml:"drag_threshold"`
	WheelStep     float64 `toml:"wheel_step"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:      1280,
			Height:     800,
			PixelRatio: 1,
			Grid:       string(diagram.GridFull),
		},
		Server:  ServerConfig{Addr: "127.0.0.1:8080", FrameRate: 60},
		Fonts:   FontsConfig{Size: 12},
		Gesture: GestureConfig{DragThreshold: 0, WheelStep: 0.03},
	}
}

// ConfigDir returns the netcanvas config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// DefaultPath is config.toml inside ConfigDir.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads path, or DefaultPath when path is empty. A missing file yields
// the defaults; a malformed or invalid one is an INVALID_CONFIG error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, or DefaultPath when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks ranges and enum values.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return bad("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Width > MaxCanvasSize || c.Canvas.Height > MaxCanvasSize {
		return bad("canvas size %dx%d exceeds %d per side", c.Canvas.Width, c.Canvas.Height, MaxCanvasSize)
	}
	if !(c.Canvas.PixelRatio > 0) || c.Canvas.PixelRatio > MaxPixelRatio {
		return bad("canvas.pixel_ratio %v out of range (0, %d]", c.Canvas.PixelRatio, MaxPixelRatio)
	}
	switch diagram.GridMode(strings.ToLower(c.Canvas.Grid)) {
	case diagram.GridFull, diagram.GridNone:
	default:
		return bad("canvas.grid %q must be \"full\" or \"none\"", c.Canvas.Grid)
	}
	if c.Canvas.Background != "" {
		if _, ok := colors.Hex(c.Canvas.Background); !ok {
			return bad("canvas.background %q is not a hex color", c.Canvas.Background)
		}
	}
	if c.Server.FrameRate <= 0 || c.Server.FrameRate > 240 {
		return bad("server.frame_rate %d out of range 1..240", c.Server.FrameRate)
	}
	if !(c.Fonts.Size > 0) || math.IsInf(c.Fonts.Size, 0) {
		return bad("fonts.size %v must be positive and finite", c.Fonts.Size)
	}
	if !(c.Gesture.DragThreshold >= 0) || math.IsInf(c.Gesture.DragThreshold, 0) {
		return bad("gesture.drag_threshold %v must be finite and not negative", c.Gesture.DragThreshold)
	}
	if !(c.Gesture.WheelStep > 0 && c.Gesture.WheelStep < diagram.MaxZoom) {
		return bad("gesture.wheel_step %v out of range", c.Gesture.WheelStep)
	}
	return nil
}

// BackgroundColor resolves Canvas.Background, falling back to the engine
// background.
func (c *Config) BackgroundColor() colors.Color {
	if col, ok := colors.Hex(c.Canvas.Background); ok {
		return col
	}
	return colors.Background
}
