package rowan

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/image/math/f64"
)

// Renderer drives a frame: it keeps a BatchList synchronized with the root
// it is given, drains the texture queues, updates transforms and draws the
// list through its accumulator. It also owns context-loss recovery.
type Renderer struct {
	ctx  *RenderContext
	list *BatchList
	acc  Accumulator
	cfg  RendererConfig

	camera   *Camera
	lastView f64.Aff3

	lost  bool
	debug bool
}

// NewRenderer compiles the built-in programs and creates the accumulator
// selected by cfg. It fails when cfg is invalid, including a batch size over
// MaxBatchSize (ErrBatchTooLarge).
func NewRenderer(dev Device, cfg RendererConfig) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := newRenderContext(dev)
	ctx.Textures.Throttle = cfg.ThrottleTextureUploads
	if err := ctx.compilePrograms(); err != nil {
		ctx.deletePrograms()
		return nil, err
	}
	acc, err := newAccumulator(ctx, cfg)
	if err != nil {
		ctx.deletePrograms()
		return nil, err
	}

	r := &Renderer{
		ctx:  ctx,
		list: NewBatchList(ctx),
		acc:  acc,
		cfg:  cfg,
	}
	r.list.SetCullingRect(cfg.Culling)
	r.SetDebugMode(cfg.Debug)
	return r, nil
}

// MustNewRenderer is NewRenderer that panics on error.
func MustNewRenderer(dev Device, cfg RendererConfig) *Renderer {
	r, err := NewRenderer(dev, cfg)
	if err != nil {
		panic(err)
	}
	return r
}

func newAccumulator(ctx *RenderContext, cfg RendererConfig) (Accumulator, error) {
	switch cfg.BatchMode {
	case BatchModeMulti:
		return NewMultiTextureBatch(ctx, cfg.BatchSize)
	case BatchModeSingle, "":
		return NewSpriteBatch(ctx, cfg.BatchSize)
	default:
		return nil, fmt.Errorf("rowan: unknown batch mode %q", cfg.BatchMode)
	}
}

// Render draws root into a viewport of the given size. A root different from
// the last one is attached first, which rebuilds the batch list; later frames
// reuse the list as kept current by node mutations. No-op while the context
// is lost.
func (r *Renderer) Render(root *Node, vp Viewport) {
	if r.lost {
		return
	}
	start := time.Now()
	r.ctx.stats = Stats{}

	if root != r.list.root {
		r.list.AttachRoot(root)
	}
	r.ctx.Textures.Update()
	r.updateTransforms(root)
	r.list.RenderAll(r.acc, vp)

	r.ctx.stats.RenderTime = time.Since(start)
	if r.debug {
		debugLog(r.ctx.stats)
	}
}

// RenderRange redraws the synchronized nodes between first and last in
// flattened order, using the world transforms of the last full Render.
// Counters accumulate into the current frame's Stats.
func (r *Renderer) RenderRange(first, last *Node, vp Viewport) {
	if r.lost {
		return
	}
	r.ctx.Textures.Update()
	r.list.RenderRange(r.acc, vp, first, last)
}

// RenderSubtree redraws n and its descendants.
func (r *Renderer) RenderSubtree(n *Node, vp Viewport) {
	r.RenderRange(n, n.last, vp)
}

// RenderRangeClipped is RenderRange clipped to clip. Nothing is drawn when
// clip is empty, or empty once intersected with an enclosing clip.
func (r *Renderer) RenderRangeClipped(first, last *Node, vp Viewport, clip Rect) {
	if r.lost {
		return
	}
	if !r.ctx.Scissor.Push(clip) {
		return
	}
	defer r.ctx.Scissor.Pop()
	r.RenderRange(first, last, vp)
}

func (r *Renderer) updateTransforms(root *Node) {
	if r.camera == nil {
		UpdateTransforms(root)
		return
	}
	view := r.camera.ViewMatrix()
	updateTransformsWithView(root, view, view != r.lastView)
	r.lastView = view
	if rect, ok := r.camera.CullRect(); ok {
		r.list.SetCullingRect(&rect)
	} else {
		r.list.SetCullingRect(r.cfg.Culling)
	}
}

// --- Context loss ---

// OnContextLost suspends rendering. Every Render call is a no-op until
// OnContextRestored succeeds.
func (r *Renderer) OnContextLost() {
	if r.lost {
		return
	}
	r.lost = true
	Logger().Info("rowan: context lost")
	r.ctx.emit(RendererEvent{Type: EventContextLost})
}

// OnContextRestored recreates every GPU resource: programs, accumulator
// buffers and, lazily on the next frame, textures. The batch list is left
// as it is; it describes the tree, not the GPU.
func (r *Renderer) OnContextRestored() error {
	dev := r.ctx.Device
	dev.Reset()
	r.ctx.Scissor.reset()
	for k := range r.ctx.programs {
		r.ctx.programs[k] = 0
	}
	if err := r.ctx.compilePrograms(); err != nil {
		return fmt.Errorf("rowan: restore context: %w", err)
	}
	r.acc.restore()
	r.ctx.Textures.invalidate()
	r.lost = false

	Logger().Info("rowan: context restored",
		slog.Int("textures", r.ctx.Textures.Pending()),
		slog.Int("slots", r.list.Len()))
	r.ctx.emit(RendererEvent{Type: EventContextRestored})
	return nil
}

// ContextLost reports whether rendering is suspended.
func (r *Renderer) ContextLost() bool {
	return r.lost
}

// --- Accessors ---

// Stats returns the counters of the last frame.
func (r *Renderer) Stats() Stats {
	return r.ctx.stats
}

// Context returns the shared render context handed to opaque renderables.
func (r *Renderer) Context() *RenderContext {
	return r.ctx
}

// Textures returns the texture manager.
func (r *Renderer) Textures() *TextureManager {
	return r.ctx.Textures
}

// BatchList returns the synchronized batch list.
func (r *Renderer) BatchList() *BatchList {
	return r.list
}

// Accumulator returns the accumulator frames are drawn through.
func (r *Renderer) Accumulator() Accumulator {
	return r.acc
}

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() RendererConfig {
	return r.cfg
}

// SetCullingRect sets the screen-space culling rectangle; nil disables
// culling. A camera with CullEnabled overrides it.
func (r *Renderer) SetCullingRect(rect *Rect) {
	if rect != nil {
		c := *rect
		rect = &c
	}
	r.cfg.Culling = rect
	r.list.SetCullingRect(rect)
}

// SetCamera draws the root through cam's view matrix. nil removes the camera.
func (r *Renderer) SetCamera(cam *Camera) {
	r.camera = cam
	r.lastView = f64.Aff3{}
	if root := r.list.root; root != nil {
		markSubtreeDirty(root)
	}
	if cam == nil {
		r.list.SetCullingRect(r.cfg.Culling)
	}
}

// Camera returns the camera, or nil.
func (r *Renderer) Camera() *Camera {
	return r.camera
}

// SetEventSink installs an observer for lifecycle events. nil removes it.
func (r *Renderer) SetEventSink(sink EventSink) {
	r.ctx.sink = sink
}

// SetDebugMode enables per-frame stats logging and node operation checks.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
	r.ctx.debug = enabled
	globalDebug = enabled
}

// Destroy detaches the root and releases every GPU resource the renderer
// created. The renderer must not be used afterwards.
func (r *Renderer) Destroy() {
	r.list.Detach()
	r.acc.destroy()
	r.ctx.Textures.destroyAll()
	r.ctx.deletePrograms()
}
