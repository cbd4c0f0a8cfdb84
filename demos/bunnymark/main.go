// bunnymark spawns 10,000 sprites over four procedurally drawn textures that
// bounce, spin and fade around the screen. With the multi-texture
// accumulator the whole field draws in a handful of calls. Press M to
// retexture a random bunny and watch the batch count move.
package main

import (
	"image"
	"image/color"
	"log"
	"math"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/rowan"
)

const (
	screenW = 1280
	screenH = 720
	count   = 10_000
	size    = 26
)

type bunny struct {
	node     *rowan.Node
	dx, dy   float64
	rotSpeed float64
	phase    float64
}

// bunnyImage draws a rounded blob with two ears in the given color.
func bunnyImage(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	inEllipse := func(x, y, cx, cy, rx, ry float64) bool {
		dx, dy := (x-cx)/rx, (y-cy)/ry
		return dx*dx+dy*dy <= 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			body := inEllipse(fx, fy, 13, 18, 9, 8)
			ears := inEllipse(fx, fy, 8, 7, 2.5, 7) || inEllipse(fx, fy, 18, 7, 2.5, 7)
			if body || ears {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

func main() {
	palette := []color.NRGBA{
		{R: 0xf4, G: 0xf1, B: 0xde, A: 0xff},
		{R: 0xe0, G: 0x7a, B: 0x5f, A: 0xff},
		{R: 0x81, G: 0xb2, B: 0x9a, A: 0xff},
		{R: 0xf2, G: 0xcc, B: 0x8f, A: 0xff},
	}
	textures := make([]*rowan.Texture, len(palette))
	for i, c := range palette {
		textures[i] = rowan.NewTextureFromBase(rowan.NewBaseTexture(bunnyImage(c)))
		textures[i].Anchor = rowan.Vec2{X: 0.5, Y: 0.5}
	}

	root := rowan.NewContainer("root")
	bunnies := make([]bunny, count)
	for i := range bunnies {
		// Runs of one texture keep RenderBatches long in single mode.
		sp := rowan.NewSprite("bunny", textures[(i/500)%len(textures)])
		sp.SetPosition(rand.Float64()*screenW, rand.Float64()*screenH)
		root.AddChild(sp)
		bunnies[i] = bunny{
			node:     sp,
			dx:       (rand.Float64() - 0.5) * 6,
			dy:       (rand.Float64() - 0.5) * 6,
			rotSpeed: (rand.Float64() - 0.5) * 0.1,
			phase:    rand.Float64() * math.Pi * 2,
		}
	}

	cfg := rowan.DefaultRendererConfig()
	cfg.BatchMode = rowan.BatchModeMulti
	cfg.ClearColor = "#0f0f17"

	var frame float64
	if err := rowan.Run(root, rowan.RunConfig{
		Title:     "rowan: bunnymark",
		Width:     screenW,
		Height:    screenH,
		Renderer:  cfg,
		ShowStats: true,
		Update: func() error {
			frame++
			t := frame / 60.0
			if inpututil.IsKeyJustPressed(ebiten.KeyM) {
				// Swapping a texture on a run boundary splits and merges
				// batches through the synchronizer.
				b := &bunnies[rand.IntN(count)]
				b.node.SetTexture(textures[rand.IntN(len(textures))])
			}
			for i := range bunnies {
				b := &bunnies[i]
				n := b.node
				x, y := n.X+b.dx, n.Y+b.dy
				if x < 0 || x > screenW {
					b.dx = -b.dx
				}
				if y < 0 || y > screenH {
					b.dy = -b.dy
				}
				n.SetPosition(x, y)
				n.SetRotation(n.Rotation + b.rotSpeed)
				n.SetAlpha(0.6 + 0.4*math.Sin(t+b.phase))
			}
			return nil
		},
	}); err != nil {
		log.Fatal(err)
	}
}
