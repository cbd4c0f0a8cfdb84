package rowan

import "image"

// BufferHandle, TextureHandle and ProgramHandle identify GPU-side objects
// owned by a Device. The zero value means "no object": a BaseTexture whose
// handle is zero has not been uploaded yet.
type (
	BufferHandle  uint32
	TextureHandle uint32
	ProgramHandle uint32
)

// ProgramKind selects one of the built-in shader programs.
type ProgramKind uint8

const (
	ProgramSprite       ProgramKind = iota // {x, y, u, v, alpha}, one sampler
	ProgramMultiTexture                    // {x, y, u, v, unit, alpha}, four samplers
)

// Device is the GPU collaborator the batching layer draws through. It mirrors
// the handful of state-machine calls a WebGL-style quad batcher needs.
//
// All calls happen on the render thread. Handles created before Reset are
// invalid afterwards.
type Device interface {
	CreateBuffer() BufferHandle
	DeleteBuffer(BufferHandle)
	// BufferIndexData replaces the contents of an index buffer.
	BufferIndexData(BufferHandle, []uint16)
	// BufferVertexData uploads a vertex range into a vertex buffer. The slice
	// is only valid for the duration of the call.
	BufferVertexData(BufferHandle, []float32)

	// CreateTexture uploads src (premultiplied on upload) and returns its handle.
	CreateTexture(src image.Image) TextureHandle
	DeleteTexture(TextureHandle)

	CreateProgram(ProgramKind) (ProgramHandle, error)
	DeleteProgram(ProgramHandle)
	UseProgram(ProgramHandle)
	// SetProjection uploads the projection vector uniform of the active program.
	SetProjection(Vec2)

	SetBlendMode(BlendMode)
	SetDepthMask(enabled bool)
	// SetScissor enables the scissor test for r, or disables it when enabled is false.
	SetScissor(r image.Rectangle, enabled bool)

	BindIndexBuffer(BufferHandle)
	BindVertexBuffer(BufferHandle)
	BindTexture(unit int, tex TextureHandle)

	// DrawElements issues one indexed triangle-list draw call covering
	// indexCount indices of the bound index buffer.
	DrawElements(indexCount int)

	// Reset discards every resource after the context has been restored.
	Reset()
}
