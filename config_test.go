package rowan

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRendererConfig(t *testing.T) {
	data := []byte(`
batch_size: 512
batch_mode: multi
throttle_texture_uploads: true
culling:
  x: 0
  y: 0
  width: 320
  height: 240
clear_color: "#102030"
debug: true
`)
	cfg, err := ParseRendererConfig(data)
	if err != nil {
		t.Fatalf("ParseRendererConfig: %v", err)
	}
	if cfg.BatchSize != 512 {
		t.Errorf("BatchSize = %d, want 512", cfg.BatchSize)
	}
	if cfg.BatchMode != BatchModeMulti {
		t.Errorf("BatchMode = %q, want multi", cfg.BatchMode)
	}
	if !cfg.ThrottleTextureUploads || !cfg.Debug {
		t.Error("boolean flags not parsed")
	}
	if cfg.Culling == nil || *cfg.Culling != (Rect{Width: 320, Height: 240}) {
		t.Errorf("Culling = %v, want 320x240", cfg.Culling)
	}
	c, ok := cfg.ClearNRGBA()
	if !ok || c != (color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Errorf("ClearNRGBA() = %v, %v, want #102030ff", c, ok)
	}
}

func TestParseRendererConfigDefaults(t *testing.T) {
	cfg, err := ParseRendererConfig(nil)
	if err != nil {
		t.Fatalf("ParseRendererConfig(nil): %v", err)
	}
	if cfg != DefaultRendererConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if _, ok := cfg.ClearNRGBA(); ok {
		t.Error("default config should have no clear color")
	}
}

func TestParseRendererConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "batch_sise: 10\n", "batch_sise"},
		{"negative size", "batch_size: -1\n", "negative"},
		{"bad mode", "batch_mode: triple\n", "unknown batch mode"},
		{"bad color", "clear_color: red\n", "invalid color"},
		{"bad hex", "clear_color: \"#zzzzzz\"\n", "invalid color"},
		{"negative culling", "culling: {width: -1, height: 5}\n", "negative size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRendererConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseRendererConfigTooLarge(t *testing.T) {
	_, err := ParseRendererConfig([]byte("batch_size: 20000\n"))
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("err = %v, want ErrBatchTooLarge", err)
	}
}

func TestLoadRendererConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadRendererConfig(path)
	if err != nil {
		t.Fatalf("LoadRendererConfig: %v", err)
	}
	if cfg.BatchSize != 64 || cfg.BatchMode != BatchModeSingle {
		t.Errorf("cfg = %+v, want size 64, single mode", cfg)
	}

	if _, err := LoadRendererConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestParseHexColorAlpha(t *testing.T) {
	c, err := parseHexColor("#ff000080")
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.NRGBA{R: 0xff, A: 0x80}) {
		t.Errorf("parseHexColor = %v, want {255 0 0 128}", c)
	}
}
