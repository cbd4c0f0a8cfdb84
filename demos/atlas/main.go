// Atlas demonstrates TexturePacker atlases and how frames map onto batches.
//
// A 4×2 atlas page is built programmatically (no external assets required):
// eight 32×32 colored tiles are packed into a 128×64 image, described with
// TexturePacker hash-format JSON, and loaded with rowan.LoadAtlas. All eight
// frames share one base texture, so they draw as a single batch.
//
//   - A ninth sprite asks for "dragon", which is not in the atlas, and
//     renders as a 1×1 magenta placeholder. Debug mode logs a warning.
//   - Press D to load a second page and point the ninth sprite at it; the
//     batch list grows a second batch for it.
//   - Press Space to fade every other tile. Alpha never splits a batch.
//   - Press Left/Right to scroll the camera; off-screen tiles are culled.
//   - The raw atlas page is drawn bottom-right by a custom node, which sits
//     between batches in the list.
//   - A scrolling checker strip along the bottom is a tiling sprite: a custom
//     node drawing one quad whose source rectangle wraps with AddressRepeat.
package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/rowan"
	"github.com/tanema/gween/ease"
)

const (
	windowTitle = "rowan: atlas"
	screenW     = 640
	screenH     = 480

	tileSize     = 32                     // each tile in the atlas is 32×32 px
	atlasW       = 128                    // 4 columns × tileSize
	atlasH       = 64                     // 2 rows  × tileSize
	displaySize  = 80.0                   // rendered size on screen per tile
	displayScale = displaySize / tileSize // 2.5×
	gridCols     = 4
	gridPad      = 24.0 // gap between tiles
)

var (
	spriteNames = [8]string{
		"fire", "water", "earth", "wind",
		"light", "shadow", "star", "moon",
	}
	tileColors = [8]color.RGBA{
		{R: 255, G: 79, B: 40, A: 255},   // fire
		{R: 40, G: 120, B: 255, A: 255},  // water
		{R: 99, G: 181, B: 61, A: 255},   // earth
		{R: 220, G: 220, B: 79, A: 255},  // wind
		{R: 255, G: 255, B: 199, A: 255}, // light
		{R: 61, G: 40, B: 99, A: 255},    // shadow
		{R: 199, G: 160, B: 255, A: 255}, // star
		{R: 181, G: 200, B: 232, A: 255}, // moon
	}
)

// buildAtlasPage creates a 128×64 atlas image with 8 colored 32×32 tiles.
func buildAtlasPage() *ebiten.Image {
	img := ebiten.NewImage(atlasW, atlasH)
	for i, c := range tileColors {
		col := i % gridCols
		row := i / gridCols
		sub := img.SubImage(image.Rect(
			col*tileSize, row*tileSize,
			(col+1)*tileSize, (row+1)*tileSize,
		)).(*ebiten.Image)
		sub.Fill(c)
	}
	return img
}

// buildCheckerPage creates the second page: a 64×64 checkerboard.
func buildCheckerPage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.NRGBA{R: 40, G: 40, B: 48, A: 255}
			if (x/8+y/8)%2 == 0 {
				c = color.NRGBA{R: 230, G: 230, B: 240, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// tilingVertex is a white vertex, so the source image is drawn unmodified.
func tilingVertex(dx, dy, sx, sy float32) ebiten.Vertex {
	return ebiten.Vertex{
		DstX: dx, DstY: dy,
		SrcX: sx, SrcY: sy,
		ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
	}
}

// newTilingSprite returns a custom node that fills the w×h rect at (x, y)
// with img repeated, shifted left by *offset pixels.
func newTilingSprite(img *ebiten.Image, x, y, w, h float32, offset *float32) *rowan.Node {
	indices := []uint16{0, 1, 2, 0, 2, 3}
	op := &ebiten.DrawTrianglesOptions{Address: ebiten.AddressRepeat}
	return rowan.NewCustom("tiling", func(ctx *rowan.RenderContext) {
		dev, ok := ctx.Device.(*rowan.EbitenDevice)
		if !ok || dev.Target() == nil {
			return
		}
		u := *offset
		vs := []ebiten.Vertex{
			tilingVertex(x, y, u, 0),
			tilingVertex(x+w, y, u+w, 0),
			tilingVertex(x+w, y+h, u+w, h),
			tilingVertex(x, y+h, u, h),
		}
		dev.Target().DrawTriangles(vs, indices, img, op)
	})
}

// buildAtlasJSON returns TexturePacker hash-format JSON for the 8 tiles.
func buildAtlasJSON() []byte {
	var b strings.Builder
	b.WriteString(`{"frames":{`)
	for i, name := range spriteNames {
		col := i % gridCols
		row := i / gridCols
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b,
			`%q:{"frame":{"x":%d,"y":%d,"w":%d,"h":%d},"rotated":false,"trimmed":false,"sourceSize":{"w":%d,"h":%d}}`,
			name, col*tileSize, row*tileSize, tileSize, tileSize, tileSize, tileSize,
		)
	}
	b.WriteString(`}}`)
	return []byte(b.String())
}

func main() {
	rowan.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	atlasPage := buildAtlasPage()
	page := rowan.NewBaseTexture(atlasPage)
	atlas, err := rowan.LoadAtlas(buildAtlasJSON(), []*rowan.BaseTexture{page})
	if err != nil {
		log.Fatalf("LoadAtlas: %v", err)
	}

	root := rowan.NewContainer("root")

	// Grid layout: 4 columns, centered.
	gridW := gridCols*displaySize + (gridCols-1)*gridPad
	startX := (screenW - gridW) / 2.0
	startY := 40.0

	tiles := make([]*rowan.Node, 0, len(spriteNames))
	for i, name := range spriteNames {
		col := float64(i % gridCols)
		row := float64(i / gridCols)
		sp := rowan.NewSprite(name, atlas.Texture(name))
		sp.SetPosition(startX+col*(displaySize+gridPad), startY+row*(displaySize+gridPad))
		sp.SetScale(displayScale, displayScale)
		root.AddChild(sp)
		tiles = append(tiles, sp)
	}

	var stripOffset float32
	strip := newTilingSprite(ebiten.NewImageFromImage(buildCheckerPage()),
		gridPad, screenH-72, screenW-2*gridPad, 48, &stripOffset)
	root.AddChild(strip)

	// "dragon" is not in the atlas, so Texture returns the magenta
	// placeholder, scaled up to 80×80 here.
	missing := rowan.NewSprite("dragon", atlas.Texture("dragon"))
	missing.SetPosition(startX, startY+2*(displaySize+gridPad))
	missing.SetScale(displaySize, displaySize)
	root.AddChild(missing)

	// Atlas page preview: the raw 128×64 source at 2×, drawn outside any batch.
	const previewScale = 2.0
	previewX := startX + displaySize + gridPad
	previewY := startY + 2*(displaySize+gridPad)
	preview := rowan.NewCustom("preview", func(ctx *rowan.RenderContext) {
		dev, ok := ctx.Device.(*rowan.EbitenDevice)
		if !ok || dev.Target() == nil {
			return
		}
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(previewScale, previewScale)
		op.GeoM.Translate(previewX, previewY)
		dev.Target().DrawImage(atlasPage, &op)
	})
	root.AddChild(preview)

	cam := rowan.NewCamera(rowan.Rect{Width: screenW, Height: screenH})
	cam.X, cam.Y = screenW/2, screenH/2

	cfg := rowan.DefaultRendererConfig()
	cfg.ClearColor = "#1a1a26"
	cfg.Debug = true

	faded := false
	if err := rowan.Run(root, rowan.RunConfig{
		Title:     windowTitle,
		Width:     screenW,
		Height:    screenH,
		Renderer:  cfg,
		Camera:    cam,
		ShowStats: true,
		Update: func() error {
			stripOffset += 0.5
			if inpututil.IsKeyJustPressed(ebiten.KeyD) && missing.Texture().Base.Width == 1 {
				checker := rowan.NewTextureFromBase(rowan.NewBaseTexture(buildCheckerPage()))
				missing.SetTexture(checker)
				missing.SetScale(displaySize/64, displaySize/64)
			}
			if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
				faded = !faded
				for i, tile := range tiles {
					if i%2 == 1 {
						a := 1.0
						if faded {
							a = 0.25
						}
						tile.SetAlpha(a)
					}
				}
			}
			if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
				cam.ScrollTo(cam.X+200, cam.Y, 0.5, ease.OutQuad)
			}
			if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
				cam.ScrollTo(cam.X-200, cam.Y, 0.5, ease.OutQuad)
			}
			return nil
		},
	}); err != nil {
		log.Fatal(err)
	}
}
