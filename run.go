package rowan

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window and renderer created by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Renderer is passed to NewRenderer. The zero value selects the defaults.
	Renderer RendererConfig
	// Camera, when set, views the root through its view matrix.
	Camera *Camera
	// ShowStats appends a stats overlay to the root.
	ShowStats bool
	// Update is called once per tick before the camera advances. Returning
	// ebiten.Termination ends the loop without an error.
	Update func() error
}

// Run opens a window and drives root with an EbitenDevice-backed Renderer
// until the window closes or Update returns an error.
func Run(root *Node, cfg RunConfig) error {
	if root == nil {
		panic("rowan: Run with nil root")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 640, 480
	}
	rc := cfg.Renderer

	dev := NewEbitenDevice()
	r, err := NewRenderer(dev, rc)
	if err != nil {
		return err
	}
	defer r.Destroy()
	if cfg.Camera != nil {
		r.SetCamera(cfg.Camera)
	}
	if cfg.ShowStats {
		root.AddChild(NewStatsOverlay())
	}

	g := &game{root: root, cfg: cfg, dev: dev, renderer: r}
	if c, ok := rc.ClearNRGBA(); ok {
		g.clear = c
		g.hasClear = true
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("rowan: run: %w", err)
	}
	return nil
}

// game adapts a Renderer to ebiten.Game.
type game struct {
	root     *Node
	cfg      RunConfig
	dev      *EbitenDevice
	renderer *Renderer
	clear    color.NRGBA
	hasClear bool
}

func (g *game) Update() error {
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	if g.cfg.Camera != nil {
		g.cfg.Camera.Update(float32(1.0 / float64(ebiten.TPS())))
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.hasClear {
		screen.Fill(g.clear)
	}
	g.dev.SetTarget(screen)
	b := screen.Bounds()
	g.renderer.Render(g.root, Viewport{Width: float64(b.Dx()), Height: float64(b.Dy())})
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}
