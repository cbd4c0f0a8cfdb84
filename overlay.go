package rowan

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// NewStatsOverlay creates an opaque renderable that prints FPS and the
// renderer's frame counters in the top-left corner of the target. The text
// is refreshed every ~0.5 seconds. Add it as the last child of the root so
// the counters cover the whole frame.
//
// It only draws through an EbitenDevice.
func NewStatsOverlay() *Node {
	// 180x64 is enough for four lines of ebitenutil's debug font.
	img := ebiten.NewImage(180, 64)
	var lastUpdate time.Time

	return NewCustom("stats_overlay", func(ctx *RenderContext) {
		dev, ok := ctx.Device.(*EbitenDevice)
		if !ok || dev.Target() == nil {
			return
		}
		if now := time.Now(); now.Sub(lastUpdate) >= 500*time.Millisecond {
			lastUpdate = now
			s := ctx.Stats()
			img.Clear()
			// Semi-transparent background for readability
			img.Fill(color.RGBA{0, 0, 0, 128})
			ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nDraws: %d Quads: %d\nBatches: %d\nCulled: %d Skipped: %d",
				ebiten.ActualFPS(), s.DrawCalls, s.Quads, s.Batches, s.Culled, s.Skipped))
		}
		dev.Target().DrawImage(img, nil)
	})
}
