// Package rowan is an incremental sprite batcher for [Ebitengine].
//
// Rowan keeps a flat list of render batches in step with a retained node
// tree. Consecutive sprites that share a base texture and blend mode are
// grouped into one batch, so a frame is drawn with as few draw calls as the
// tree's order allows. Instead of rebuilding the list every frame, each tree
// mutation (add, remove, reparent, texture or blend change) updates only the
// batches around the affected nodes.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	root := rowan.NewContainer("root")
//	// ... add nodes ...
//	rowan.Run(root, rowan.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, create an [EbitenDevice] and a [Renderer] and call
// [Renderer.Render] from your own [ebiten.Game]:
//
//	dev := rowan.NewEbitenDevice()
//	r, err := rowan.NewRenderer(dev, rowan.DefaultRendererConfig())
//
//	func (g *Game) Draw(s *ebiten.Image) {
//		dev.SetTarget(s)
//		r.Render(root, rowan.Viewport{Width: 640, Height: 480})
//	}
//
// # Nodes
//
// Every element is a [Node]. Sprites ([NewSprite]) are batchable; custom
// renderables ([NewCustom]) draw themselves through a [RenderContext] and
// always occupy their own slot in the list; containers ([NewContainer])
// only group children.
//
//	sheet := rowan.NewBaseTexture(img)
//	hero := rowan.NewSprite("hero", rowan.NewTexture(sheet, rowan.Rect{Width: 32, Height: 32}))
//	hero.SetPosition(100, 50)
//	root.AddChild(hero)
//
// Frames cut from the same [BaseTexture], for example by [LoadAtlas], batch
// together.
//
// # Accumulators
//
// A [SpriteBatch] flushes whenever the bound texture changes. A
// [MultiTextureBatch] binds up to four textures per draw call and selects
// between them per vertex. Choose one with [RendererConfig.BatchMode].
//
// # Context loss
//
// After [Renderer.OnContextLost] every Render is a no-op.
// [Renderer.OnContextRestored] recreates programs and buffers and queues
// every texture for upload again.
//
// [Ebitengine]: https://ebitengine.org
package rowan
