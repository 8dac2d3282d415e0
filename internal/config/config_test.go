package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 800 {
		t.Errorf("default canvas %dx%d, want 1280x800", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.Grid != "full" {
		t.Errorf("default grid %q, want full", cfg.Canvas.Grid)
	}
	if cfg.Gesture.DragThreshold != 0 {
		t.Error("default drag threshold should be 0")
	}
	if cfg.Gesture.WheelStep != 0.03 {
		t.Errorf("default wheel step %v, want 0.03", cfg.Gesture.WheelStep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
	if cfg.BackgroundColor() != colors.Background {
		t.Error("empty background should resolve to the engine background")
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	if dir := ConfigDir(); dir != "/tmp/test-xdg/netcanvas" {
		t.Errorf("expected /tmp/test-xdg/netcanvas, got %q", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	if dir, want := ConfigDir(), filepath.Join(home, ".config", "netcanvas"); dir != want {
		t.Errorf("expected %q, got %q", want, dir)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Canvas.PixelRatio = 2
	cfg.Canvas.Background = "#102030"
	cfg.Server.AllowOrigins = []string{"http://localhost:3000"}

	if err := Save(cfg, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "netcanvas", "config.toml")); err != nil {
		t.Fatalf("config not written to the XDG dir: %v", err)
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Canvas.PixelRatio != 2 {
		t.Errorf("expected pixel ratio 2, got %v", loaded.Canvas.PixelRatio)
	}
	if len(loaded.Server.AllowOrigins) != 1 || loaded.Server.AllowOrigins[0] != "http://localhost:3000" {
		t.Errorf("allow origins = %v", loaded.Server.AllowOrigins)
	}
	if got := loaded.BackgroundColor().ToHex(); got != "#102030" {
		t.Errorf("background = %s", got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[canvas]\nwidth = 640\nheight = 480\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 640 || cfg.Canvas.PixelRatio != 1 || cfg.Server.FrameRate != 60 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[canvas\nwidth = 1"},
		{"zero width", "[canvas]\nwidth = 0"},
		{"grid", "[canvas]\ngrid = \"dots\""},
		{"background", "[canvas]\nbackground = \"nothex\""},
		{"frame rate", "[server]\nframe_rate = 0"},
		{"threshold", "[gesture]\ndrag_threshold = -1"},
		{"wheel", "[gesture]\nwheel_step = 5.0"},
		{"huge width", "[canvas]\nwidth = 100000"},
		{"huge height", "[canvas]\nheight = 8193"},
		{"nan ratio", "[canvas]\npixel_ratio = nan"},
		{"inf ratio", "[canvas]\npixel_ratio = inf"},
		{"huge ratio", "[canvas]\npixel_ratio = 16.0"},
		{"nan font", "[fonts]\nsize = nan"},
		{"inf font", "[fonts]\nsize = inf"},
		{"nan threshold", "[gesture]\ndrag_threshold = nan"},
		{"inf threshold", "[gesture]\ndrag_threshold = inf"},
		{"nan wheel", "[gesture]\nwheel_step = nan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
