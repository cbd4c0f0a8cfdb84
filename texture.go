package rowan

import (
	"image"
	"log/slog"
	"slices"
)

// baseTextureIDCounter is a plain counter. All texture creation happens on the render thread.
var baseTextureIDCounter uint32

// BaseTexture is a whole image that can be uploaded to the GPU. Textures that
// share a BaseTexture are batch-compatible.
//
// The GPU handle is created lazily by the TextureManager the first time a
// renderer sees the texture, and is zeroed when the context is lost.
type BaseTexture struct {
	ID     uint32
	Width  int
	Height int

	source    image.Image
	loaded    bool
	handle    TextureHandle
	manager   *TextureManager
	queued    bool
	destroyed bool
}

// NewBaseTexture wraps a decoded image. A nil src creates an unloaded texture;
// call SetSource once the pixels arrive.
func NewBaseTexture(src image.Image) *BaseTexture {
	baseTextureIDCounter++
	b := &BaseTexture{ID: baseTextureIDCounter}
	if src != nil {
		b.setSource(src)
	}
	return b
}

// NewEmptyBaseTexture creates an unloaded texture of known size, for sprites
// created before their image has finished loading.
func NewEmptyBaseTexture(width, height int) *BaseTexture {
	b := NewBaseTexture(nil)
	b.Width = width
	b.Height = height
	return b
}

func (b *BaseTexture) setSource(src image.Image) {
	bounds := src.Bounds()
	b.source = src
	b.Width = bounds.Dx()
	b.Height = bounds.Dy()
	b.loaded = true
}

// SetSource replaces the pixel data and queues a (re)upload.
func (b *BaseTexture) SetSource(src image.Image) {
	if src == nil {
		panic("rowan: BaseTexture.SetSource with nil image")
	}
	b.setSource(src)
	if b.manager != nil {
		b.manager.queueUpload(b)
	}
}

// Source returns the pixel data, or nil while the texture is still loading.
func (b *BaseTexture) Source() image.Image { return b.source }

// Loaded reports whether pixel data is available.
func (b *BaseTexture) Loaded() bool { return b.loaded }

// Handle returns the GPU handle, zero when not uploaded.
func (b *BaseTexture) Handle() TextureHandle { return b.handle }

// Uploaded reports whether the texture currently exists on the GPU.
func (b *BaseTexture) Uploaded() bool { return b.handle != 0 }

// Destroy releases the GPU copy on the next frame. The BaseTexture must not
// be used afterwards.
func (b *BaseTexture) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.manager != nil {
		b.manager.queueDestroy(b)
	}
}

// Texture is a frame (pixel sub-rectangle) of a BaseTexture plus the anchor
// sprites created from it start with.
type Texture struct {
	Base   *BaseTexture
	Frame  Rect
	Anchor Vec2
}

// NewTexture creates a texture over the given frame of base.
func NewTexture(base *BaseTexture, frame Rect) *Texture {
	if base == nil {
		panic("rowan: NewTexture with nil base texture")
	}
	return &Texture{Base: base, Frame: frame}
}

// NewTextureFromBase creates a texture covering the whole base texture.
func NewTextureFromBase(base *BaseTexture) *Texture {
	if base == nil {
		panic("rowan: NewTextureFromBase with nil base texture")
	}
	return &Texture{Base: base, Frame: Rect{Width: float64(base.Width), Height: float64(base.Height)}}
}

// --- Texture manager ---

// TextureManager owns the upload and destroy queues. The renderer drains
// them once per frame, before any batch referencing a texture is flushed.
type TextureManager struct {
	ctx       *RenderContext
	tracked   map[*BaseTexture]struct{}
	toUpload  []*BaseTexture
	toDestroy []*BaseTexture

	// Throttle limits uploads to one per Update call, spreading the cost of
	// large asset batches across frames.
	Throttle bool
}

func newTextureManager(ctx *RenderContext) *TextureManager {
	return &TextureManager{
		ctx:     ctx,
		tracked: make(map[*BaseTexture]struct{}),
	}
}

// Track registers b with this manager. Loaded textures without a GPU handle
// are queued for upload. Tracking the same texture twice is a no-op. A
// texture tracked by another manager is released there first, so its
// handle never crosses devices.
func (m *TextureManager) Track(b *BaseTexture) {
	if b == nil || b.manager == m {
		return
	}
	if b.manager != nil {
		b.manager.release(b)
	}
	b.manager = m
	m.tracked[b] = struct{}{}
	if b.loaded && b.handle == 0 {
		m.queueUpload(b)
	}
}

// release deletes b's GPU copy on this manager's device and forgets it.
func (m *TextureManager) release(b *BaseTexture) {
	if b.handle != 0 {
		m.ctx.Device.DeleteTexture(b.handle)
		b.handle = 0
	}
	if b.queued {
		m.toUpload = slices.DeleteFunc(m.toUpload, func(q *BaseTexture) bool { return q == b })
	}
	m.toDestroy = slices.DeleteFunc(m.toDestroy, func(q *BaseTexture) bool { return q == b })
	m.untrack(b)
}

func (m *TextureManager) untrack(b *BaseTexture) {
	delete(m.tracked, b)
	b.manager = nil
	b.queued = false
}

func (m *TextureManager) queueUpload(b *BaseTexture) {
	if b.queued || b.destroyed {
		return
	}
	b.queued = true
	m.toUpload = append(m.toUpload, b)
}

func (m *TextureManager) queueDestroy(b *BaseTexture) {
	m.toDestroy = append(m.toDestroy, b)
}

// Pending returns the number of textures waiting for upload.
func (m *TextureManager) Pending() int {
	return len(m.toUpload)
}

// Update uploads queued textures (all of them, or one when throttled) and
// deletes destroyed ones.
func (m *TextureManager) Update() {
	if m.Throttle {
		if len(m.toUpload) > 0 {
			b := m.toUpload[0]
			copy(m.toUpload, m.toUpload[1:])
			m.toUpload[len(m.toUpload)-1] = nil
			m.toUpload = m.toUpload[:len(m.toUpload)-1]
			m.upload(b)
		}
		if len(m.toUpload) > throttleBacklogWarn {
			Logger().Warn("rowan: texture upload backlog", slog.Int("pending", len(m.toUpload)))
		}
	} else {
		for i, b := range m.toUpload {
			m.upload(b)
			m.toUpload[i] = nil
		}
		m.toUpload = m.toUpload[:0]
	}

	for i, b := range m.toDestroy {
		if b.handle != 0 {
			m.ctx.Device.DeleteTexture(b.handle)
			b.handle = 0
		}
		m.untrack(b)
		m.toDestroy[i] = nil
	}
	m.toDestroy = m.toDestroy[:0]
}

const throttleBacklogWarn = 64

func (m *TextureManager) upload(b *BaseTexture) {
	b.queued = false
	if !b.loaded || b.destroyed {
		return
	}
	dev := m.ctx.Device
	if b.handle != 0 {
		dev.DeleteTexture(b.handle)
	}
	b.handle = dev.CreateTexture(b.source)
	m.ctx.stats.Uploads++
	m.ctx.emit(RendererEvent{Type: EventTextureUploaded, TextureID: b.ID})
}

// destroyAll deletes every uploaded texture and forgets all of them.
func (m *TextureManager) destroyAll() {
	for b := range m.tracked {
		if b.handle != 0 {
			m.ctx.Device.DeleteTexture(b.handle)
			b.handle = 0
		}
		m.untrack(b)
	}
	clear(m.toUpload)
	m.toUpload = m.toUpload[:0]
	clear(m.toDestroy)
	m.toDestroy = m.toDestroy[:0]
}

// invalidate drops every GPU handle and queues every loaded texture for a
// fresh upload. Used after the context has been restored: the old handles
// died with the old context, so nothing is deleted.
func (m *TextureManager) invalidate() {
	for i := range m.toUpload {
		m.toUpload[i].queued = false
		m.toUpload[i] = nil
	}
	m.toUpload = m.toUpload[:0]
	for i, b := range m.toDestroy {
		b.handle = 0
		m.untrack(b)
		m.toDestroy[i] = nil
	}
	m.toDestroy = m.toDestroy[:0]
	for b := range m.tracked {
		b.handle = 0
		if b.loaded {
			m.queueUpload(b)
		}
	}
}
