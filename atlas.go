package rowan

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"slices"
)

// Atlas holds one or more page textures and a map of named frames over them.
// Frames on the same page share a BaseTexture and therefore batch together.
type Atlas struct {
	// Pages contains the page textures indexed by page number.
	Pages    []*BaseTexture
	textures map[string]*Texture
}

// Texture returns the frame with the given name.
// If the name doesn't exist, it logs a warning in debug mode and returns a
// 1×1 magenta placeholder.
func (a *Atlas) Texture(name string) *Texture {
	if t, ok := a.textures[name]; ok {
		return t
	}
	if globalDebug {
		Logger().Warn("rowan: atlas frame not found, using magenta placeholder", slog.String("frame", name))
	}
	return magentaTexture()
}

// Lookup returns the frame with the given name and whether it exists.
func (a *Atlas) Lookup(name string) (*Texture, bool) {
	t, ok := a.textures[name]
	return t, ok
}

// Names returns the frame names in sorted order.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.textures))
	for name := range a.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of frames.
func (a *Atlas) Len() int {
	return len(a.textures)
}

// magenta placeholder singleton (no sync.Once, rowan is single-threaded)
var magentaTex *Texture

func magentaTexture() *Texture {
	if magentaTex == nil {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 255, A: 255})
		magentaTex = NewTextureFromBase(NewBaseTexture(img))
	}
	return magentaTex
}

// LoadAtlas parses TexturePacker JSON data over the given page textures.
// Supports both the hash format (single "frames" object) and the array format
// ("textures" array with per-page frame lists). A frame's pivot, when
// present, becomes the texture's anchor.
func LoadAtlas(jsonData []byte, pages []*BaseTexture) (*Atlas, error) {
	// Probe top-level keys to detect format.
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("rowan: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:    pages,
		textures: make(map[string]*Texture),
	}

	if probe.Textures != nil {
		if err := parseArrayFormat(probe.Textures, atlas); err != nil {
			return nil, err
		}
	} else if probe.Frames != nil {
		if err := parseHashFrames(probe.Frames, 0, atlas); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("rowan: atlas JSON has neither \"frames\" nor \"textures\" key")
	}

	return atlas, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonFrame struct {
	Frame   jsonRect   `json:"frame"`
	Rotated bool       `json:"rotated"`
	Pivot   *jsonPoint `json:"pivot"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

// parseHashFrames parses the hash format: {"name": {frame...}, ...}
func parseHashFrames(raw json.RawMessage, page int, atlas *Atlas) error {
	var frames map[string]jsonFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return fmt.Errorf("rowan: failed to parse atlas frames: %w", err)
	}
	for name, f := range frames {
		t, err := atlas.frameTexture(name, f, page)
		if err != nil {
			return err
		}
		atlas.textures[name] = t
	}
	return nil
}

// parseArrayFormat parses the array format: [{"image":"...", "frames":{...}}, ...]
func parseArrayFormat(raw json.RawMessage, atlas *Atlas) error {
	var textures []jsonTexturePage
	if err := json.Unmarshal(raw, &textures); err != nil {
		return fmt.Errorf("rowan: failed to parse atlas textures array: %w", err)
	}
	for i, tex := range textures {
		for name, f := range tex.Frames {
			t, err := atlas.frameTexture(name, f, i)
			if err != nil {
				return err
			}
			atlas.textures[name] = t
		}
	}
	return nil
}

func (a *Atlas) frameTexture(name string, f jsonFrame, page int) (*Texture, error) {
	if page < 0 || page >= len(a.Pages) || a.Pages[page] == nil {
		return nil, fmt.Errorf("rowan: atlas frame %q references missing page %d", name, page)
	}
	if f.Rotated {
		Logger().Warn("rowan: rotated atlas frames are drawn unrotated", slog.String("frame", name))
	}
	t := NewTexture(a.Pages[page], Rect{
		X:      float64(f.Frame.X),
		Y:      float64(f.Frame.Y),
		Width:  float64(f.Frame.W),
		Height: float64(f.Frame.H),
	})
	if f.Pivot != nil {
		t.Anchor = Vec2{X: f.Pivot.X, Y: f.Pivot.Y}
	}
	return t, nil
}
