package rowan

import (
	"errors"
	"fmt"
	"log/slog"
)

const (
	spriteVertexSize = 5 // x, y, u, v, alpha
	multiVertexSize  = 6 // x, y, u, v, unit, alpha
	verticesPerQuad  = 4
	indicesPerQuad   = 6

	// MaxBatchSize is the largest quad capacity a 16-bit index buffer can
	// address: 65535 / 6 indices per quad, rounded down.
	MaxBatchSize = 65535 / indicesPerQuad

	// DefaultBatchSize is the quad capacity used when none is configured.
	DefaultBatchSize = 2000
)

// ErrBatchTooLarge is returned when a batch capacity exceeds MaxBatchSize.
var ErrBatchTooLarge = errors.New("rowan: batch size exceeds 16-bit index range")

// Quad holds the four projected vertices of one element, in {x, y, u, v,
// alpha} layout, ordered top-left, top-right, bottom-right, bottom-left.
type Quad [verticesPerQuad * spriteVertexSize]float32

// Accumulator packs quads into a fixed-capacity vertex array and submits
// them as indexed triangle-list draw calls.
//
// The protocol is strict: Begin, any number of SetBlendMode/DrawQuad/Flush
// calls, then End. Violations panic.
type Accumulator interface {
	Begin(vp Viewport)
	// SetBlendMode flushes pending quads when the mode changes.
	SetBlendMode(BlendMode)
	// DrawQuad appends q, sampling tex. Quads whose texture is not uploaded
	// yet are skipped for this frame.
	DrawQuad(tex *Texture, q *Quad)
	Flush()
	End()
	Drawing() bool
	// Capacity returns the number of quads one draw call can hold.
	Capacity() int

	restore()
	destroy()
}

// quadBuffer is the state shared by both accumulators: the CPU vertex array,
// the static index array, the write cursor and the drawing flag.
type quadBuffer struct {
	ctx     *RenderContext
	size    int
	stride  int
	program ProgramKind

	vertices []float32
	indices  []uint16
	idx      int
	drawing  bool
	blend    BlendMode

	vertexBuffer BufferHandle
	indexBuffer  BufferHandle
}

func newQuadBuffer(ctx *RenderContext, size, stride int, program ProgramKind) (quadBuffer, error) {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if size > MaxBatchSize {
		return quadBuffer{}, fmt.Errorf("rowan: batch of %d sprites (max %d): %w", size, MaxBatchSize, ErrBatchTooLarge)
	}
	b := quadBuffer{
		ctx:      ctx,
		size:     size,
		stride:   stride,
		program:  program,
		vertices: make([]float32, size*verticesPerQuad*stride),
		indices:  make([]uint16, size*indicesPerQuad),
	}
	fillQuadIndices(b.indices)
	b.initialize()
	return b, nil
}

// fillQuadIndices writes two triangles per quad sharing the 0–2 diagonal:
// {4j, 4j+1, 4j+2, 4j, 4j+2, 4j+3}.
func fillQuadIndices(indices []uint16) {
	for i, j := 0, uint16(0); i+indicesPerQuad <= len(indices); i, j = i+indicesPerQuad, j+verticesPerQuad {
		indices[i+0] = j + 0
		indices[i+1] = j + 1
		indices[i+2] = j + 2
		indices[i+3] = j + 0
		indices[i+4] = j + 2
		indices[i+5] = j + 3
	}
}

// initialize creates the GPU buffers and uploads the static indices. On
// context restoration the old buffers are already gone, so nothing is deleted.
func (b *quadBuffer) initialize() {
	dev := b.ctx.Device
	b.vertexBuffer = dev.CreateBuffer()
	b.indexBuffer = dev.CreateBuffer()
	dev.BindIndexBuffer(b.indexBuffer)
	dev.BufferIndexData(b.indexBuffer, b.indices)
}

func (b *quadBuffer) restore() {
	b.idx = 0
	b.drawing = false
	b.initialize()
}

func (b *quadBuffer) destroy() {
	dev := b.ctx.Device
	if b.vertexBuffer != 0 {
		dev.DeleteBuffer(b.vertexBuffer)
		b.vertexBuffer = 0
	}
	if b.indexBuffer != 0 {
		dev.DeleteBuffer(b.indexBuffer)
		b.indexBuffer = 0
	}
	b.vertices = nil
	b.indices = nil
	b.size = 0
	b.idx = 0
}

func (b *quadBuffer) Drawing() bool { return b.drawing }

func (b *quadBuffer) Capacity() int { return b.size }

func (b *quadBuffer) begin(vp Viewport) {
	if b.drawing {
		panic("rowan: End must be called before Begin")
	}
	b.drawing = true

	dev := b.ctx.Device
	b.ctx.projection = vp.Projection()
	dev.SetDepthMask(false)
	b.blend = BlendNormal
	dev.SetBlendMode(BlendNormal)
	dev.UseProgram(b.ctx.Program(b.program))
	dev.SetProjection(b.ctx.projection)
	dev.BindIndexBuffer(b.indexBuffer)
}

func (b *quadBuffer) end(flush func()) {
	if !b.drawing {
		panic("rowan: Begin must be called before End")
	}
	if b.idx > 0 {
		flush()
	}
	b.drawing = false
	b.ctx.Device.SetDepthMask(true)
}

func (b *quadBuffer) setBlendMode(mode BlendMode, flush func()) {
	if mode == b.blend {
		return
	}
	flush()
	b.blend = mode
	b.ctx.Device.SetBlendMode(mode)
}

// full reports whether one more quad would overrun the vertex array.
func (b *quadBuffer) full() bool {
	return b.idx+verticesPerQuad*b.stride > len(b.vertices)
}

// submit uploads the pending vertex range and issues one draw call. bind
// attaches the textures the pending quads sample.
func (b *quadBuffer) submit(bind func()) {
	if b.idx == 0 {
		return
	}
	dev := b.ctx.Device
	dev.BindVertexBuffer(b.vertexBuffer)
	dev.BufferVertexData(b.vertexBuffer, b.vertices[:b.idx])
	bind()

	quads := b.idx / (b.stride * verticesPerQuad)
	dev.DrawElements(quads * indicesPerQuad)
	b.ctx.stats.DrawCalls++
	b.ctx.stats.Quads += quads
	b.idx = 0
}

func (b *quadBuffer) checkDrawing() {
	if !b.drawing {
		panic("rowan: DrawQuad called before Begin")
	}
}

// uploaded reports whether tex can be sampled this frame, logging and
// counting the skip when it cannot.
func (b *quadBuffer) uploaded(tex *Texture) bool {
	if tex != nil && tex.Base != nil && tex.Base.handle != 0 {
		return true
	}
	b.ctx.stats.Skipped++
	if tex != nil && tex.Base != nil {
		if tex.Base.manager == nil {
			b.ctx.Textures.Track(tex.Base)
		}
		Logger().Debug("rowan: texture not uploaded, skipping quad", slog.Uint64("texture", uint64(tex.Base.ID)))
	}
	return false
}

// --- Single-texture accumulator ---

// SpriteBatch is the single-texture accumulator: every change of bound
// BaseTexture flushes the pending quads.
type SpriteBatch struct {
	quadBuffer
	baseTexture *BaseTexture
}

// NewSpriteBatch creates a single-texture accumulator holding size quads.
// A size of zero selects DefaultBatchSize.
func NewSpriteBatch(ctx *RenderContext, size int) (*SpriteBatch, error) {
	qb, err := newQuadBuffer(ctx, size, spriteVertexSize, ProgramSprite)
	if err != nil {
		return nil, err
	}
	return &SpriteBatch{quadBuffer: qb}, nil
}

// Begin starts a frame: premultiplied blending, depth writes off, index
// buffer bound.
func (s *SpriteBatch) Begin(vp Viewport) {
	s.begin(vp)
}

// SetBlendMode flushes pending quads when the mode changes.
func (s *SpriteBatch) SetBlendMode(mode BlendMode) {
	s.setBlendMode(mode, s.Flush)
}

// DrawQuad appends q, flushing first on a texture switch or a full buffer.
func (s *SpriteBatch) DrawQuad(tex *Texture, q *Quad) {
	s.checkDrawing()
	if !s.uploaded(tex) {
		return
	}
	if s.baseTexture != tex.Base {
		s.Flush()
		s.baseTexture = tex.Base
	} else if s.full() {
		s.Flush()
	}
	s.idx += copy(s.vertices[s.idx:], q[:])
}

// Flush submits pending quads as one draw call. No-op when nothing is
// pending or no texture is bound.
func (s *SpriteBatch) Flush() {
	if s.baseTexture == nil {
		return
	}
	s.submit(func() {
		s.ctx.Device.BindTexture(0, s.baseTexture.handle)
	})
}

// End flushes, restores depth writes and forgets the bound texture.
func (s *SpriteBatch) End() {
	s.end(s.Flush)
	s.baseTexture = nil
}
