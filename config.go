package rowan

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// BatchMode selects the accumulator a Renderer draws with.
type BatchMode string

const (
	BatchModeSingle BatchMode = "single" // one texture per draw call
	BatchModeMulti  BatchMode = "multi"  // up to four textures per draw call
)

// RendererConfig holds renderer settings. It can be built in code or read
// from YAML with ParseRendererConfig.
type RendererConfig struct {
	// BatchSize is the number of quads one draw call can hold. Zero selects
	// DefaultBatchSize; values above MaxBatchSize are rejected.
	BatchSize int `yaml:"batch_size"`
	// BatchMode selects the single- or multi-texture accumulator.
	BatchMode BatchMode `yaml:"batch_mode"`
	// ThrottleTextureUploads limits texture uploads to one per frame.
	ThrottleTextureUploads bool `yaml:"throttle_texture_uploads"`
	// Culling is the screen-space culling rectangle; nil disables culling.
	Culling *Rect `yaml:"culling"`
	// ClearColor is the "#rrggbb" or "#rrggbbaa" color Run clears the
	// screen with. Empty leaves the screen as Ebitengine provides it.
	ClearColor string `yaml:"clear_color"`
	// Debug enables per-frame stats logging and node operation checks.
	Debug bool `yaml:"debug"`
}

// DefaultRendererConfig returns the settings used when nothing is configured.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		BatchSize: DefaultBatchSize,
		BatchMode: BatchModeSingle,
	}
}

// ParseRendererConfig reads a YAML document over the defaults. Unknown keys
// are rejected.
func ParseRendererConfig(data []byte) (RendererConfig, error) {
	cfg := DefaultRendererConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RendererConfig{}, fmt.Errorf("rowan: parse renderer config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RendererConfig{}, err
	}
	return cfg, nil
}

// LoadRendererConfig reads and parses a YAML config file.
func LoadRendererConfig(path string) (RendererConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RendererConfig{}, fmt.Errorf("rowan: read renderer config: %w", err)
	}
	return ParseRendererConfig(data)
}

// Validate reports the first invalid setting.
func (c RendererConfig) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("rowan: negative batch size %d", c.BatchSize)
	}
	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("rowan: batch size %d (max %d): %w", c.BatchSize, MaxBatchSize, ErrBatchTooLarge)
	}
	switch c.BatchMode {
	case "", BatchModeSingle, BatchModeMulti:
	default:
		return fmt.Errorf("rowan: unknown batch mode %q", c.BatchMode)
	}
	if c.Culling != nil && (c.Culling.Width < 0 || c.Culling.Height < 0) {
		return fmt.Errorf("rowan: culling rectangle has negative size %gx%g", c.Culling.Width, c.Culling.Height)
	}
	if _, err := parseHexColor(c.ClearColor); err != nil {
		return err
	}
	return nil
}

// ClearNRGBA returns the parsed clear color and whether one is set.
func (c RendererConfig) ClearNRGBA() (color.NRGBA, bool) {
	if c.ClearColor == "" {
		return color.NRGBA{}, false
	}
	rgba, err := parseHexColor(c.ClearColor)
	if err != nil {
		return color.NRGBA{}, false
	}
	return rgba, true
}

// parseHexColor parses "#rrggbb" or "#rrggbbaa". The empty string is
// accepted and yields transparent black.
func parseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("rowan: invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("rowan: invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
