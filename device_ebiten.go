package rowan

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// multiTextureShaderSrc samples one of four images, selected per vertex by
// the unit index carried in color.r. color.a is the premultiplied alpha.
const multiTextureShaderSrc = `//kage:unit pixels
package main

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	var c vec4
	if color.r < 0.5 {
		c = imageSrc0At(src)
	} else if color.r < 1.5 {
		c = imageSrc1At(src)
	} else if color.r < 2.5 {
		c = imageSrc2At(src)
	} else {
		c = imageSrc3At(src)
	}
	return c * color.a
}
`

// deviceBuffer is a CPU-side stand-in for a GPU buffer object.
type deviceBuffer struct {
	indices  []uint16
	vertices []float32
}

// deviceProgram is a compiled program: the kind selects the vertex layout,
// shader is nil for the sprite program, which uses DrawTriangles.
type deviceProgram struct {
	kind   ProgramKind
	shader *ebiten.Shader
}

// EbitenDevice implements Device on top of Ebitengine. Buffers live on the
// CPU; each DrawElements becomes one DrawTriangles (sprite program) or
// DrawTrianglesShader (multi-texture program) call on the target image.
type EbitenDevice struct {
	target *ebiten.Image

	nextID   uint32
	buffers  map[BufferHandle]*deviceBuffer
	textures map[TextureHandle]*ebiten.Image
	owned    map[TextureHandle]struct{}
	programs map[ProgramHandle]*deviceProgram

	program    ProgramHandle
	blend      BlendMode
	projection Vec2
	depthMask  bool
	scissor    image.Rectangle
	scissorOn  bool
	indexBuf   BufferHandle
	vertexBuf  BufferHandle
	units      [MaxTextureUnits]TextureHandle

	verts     []ebiten.Vertex
	triOpts   ebiten.DrawTrianglesOptions
	shaderOps ebiten.DrawTrianglesShaderOptions
}

// NewEbitenDevice creates a device with no target. Call SetTarget before
// each frame.
func NewEbitenDevice() *EbitenDevice {
	d := &EbitenDevice{depthMask: true}
	d.initTables()
	return d
}

func (d *EbitenDevice) initTables() {
	d.buffers = make(map[BufferHandle]*deviceBuffer)
	d.textures = make(map[TextureHandle]*ebiten.Image)
	d.owned = make(map[TextureHandle]struct{})
	d.programs = make(map[ProgramHandle]*deviceProgram)
}

func (d *EbitenDevice) newID() uint32 {
	d.nextID++
	return d.nextID
}

// SetTarget sets the image draw calls render into.
func (d *EbitenDevice) SetTarget(img *ebiten.Image) {
	d.target = img
}

// Target returns the current render target.
func (d *EbitenDevice) Target() *ebiten.Image {
	return d.target
}

// Image returns the Ebitengine image behind a texture handle, or nil.
func (d *EbitenDevice) Image(h TextureHandle) *ebiten.Image {
	return d.textures[h]
}

func (d *EbitenDevice) CreateBuffer() BufferHandle {
	h := BufferHandle(d.newID())
	d.buffers[h] = &deviceBuffer{}
	return h
}

func (d *EbitenDevice) DeleteBuffer(h BufferHandle) {
	delete(d.buffers, h)
}

func (d *EbitenDevice) BufferIndexData(h BufferHandle, data []uint16) {
	if b := d.buffers[h]; b != nil {
		b.indices = append(b.indices[:0], data...)
	}
}

func (d *EbitenDevice) BufferVertexData(h BufferHandle, data []float32) {
	if b := d.buffers[h]; b != nil {
		b.vertices = append(b.vertices[:0], data...)
	}
}

// CreateTexture copies src into a new image. An *ebiten.Image source is
// used directly and stays owned by the caller.
func (d *EbitenDevice) CreateTexture(src image.Image) TextureHandle {
	h := TextureHandle(d.newID())
	if e, ok := src.(*ebiten.Image); ok {
		d.textures[h] = e
		return h
	}
	d.textures[h] = ebiten.NewImageFromImage(src)
	d.owned[h] = struct{}{}
	return h
}

func (d *EbitenDevice) DeleteTexture(h TextureHandle) {
	img, ok := d.textures[h]
	if !ok {
		return
	}
	if _, own := d.owned[h]; own {
		img.Deallocate()
		delete(d.owned, h)
	}
	delete(d.textures, h)
}

func (d *EbitenDevice) CreateProgram(kind ProgramKind) (ProgramHandle, error) {
	p := &deviceProgram{kind: kind}
	switch kind {
	case ProgramSprite:
	case ProgramMultiTexture:
		s, err := ebiten.NewShader([]byte(multiTextureShaderSrc))
		if err != nil {
			return 0, fmt.Errorf("rowan: compile multi-texture shader: %w", err)
		}
		p.shader = s
	default:
		return 0, fmt.Errorf("rowan: unknown program kind %d", kind)
	}
	h := ProgramHandle(d.newID())
	d.programs[h] = p
	return h, nil
}

func (d *EbitenDevice) DeleteProgram(h ProgramHandle) {
	if p := d.programs[h]; p != nil && p.shader != nil {
		p.shader.Deallocate()
	}
	delete(d.programs, h)
}

func (d *EbitenDevice) UseProgram(h ProgramHandle) { d.program = h }

func (d *EbitenDevice) SetProjection(v Vec2) { d.projection = v }

func (d *EbitenDevice) SetBlendMode(m BlendMode) { d.blend = m }

func (d *EbitenDevice) SetDepthMask(enabled bool) { d.depthMask = enabled }

func (d *EbitenDevice) BindIndexBuffer(h BufferHandle) { d.indexBuf = h }

func (d *EbitenDevice) BindVertexBuffer(h BufferHandle) { d.vertexBuf = h }

func (d *EbitenDevice) SetScissor(r image.Rectangle, enabled bool) {
	d.scissor = r
	d.scissorOn = enabled
}

func (d *EbitenDevice) BindTexture(unit int, h TextureHandle) {
	if unit < 0 || unit >= MaxTextureUnits {
		panic(fmt.Sprintf("rowan: texture unit %d out of range", unit))
	}
	d.units[unit] = h
}

// DrawElements converts the bound vertex range into Ebitengine vertices and
// draws count indices of the bound index buffer.
func (d *EbitenDevice) DrawElements(count int) {
	if d.target == nil || count <= 0 {
		return
	}
	vb := d.buffers[d.vertexBuf]
	ib := d.buffers[d.indexBuf]
	prog := d.programs[d.program]
	if vb == nil || ib == nil || prog == nil {
		return
	}
	if count > len(ib.indices) {
		count = len(ib.indices)
	}

	dst := d.target
	if d.scissorOn {
		dst = d.target.SubImage(d.scissor).(*ebiten.Image)
	}

	// Map the projection back to target pixels so a viewport smaller or
	// larger than the target is scaled to fit.
	tb := d.target.Bounds()
	sx, sy := float32(1), float32(1)
	if d.projection.X > 0 && d.projection.Y > 0 {
		sx = float32(float64(tb.Dx()) / (2 * d.projection.X))
		sy = float32(float64(tb.Dy()) / (2 * d.projection.Y))
	}

	quads := count / indicesPerQuad
	switch prog.kind {
	case ProgramSprite:
		d.drawSprites(dst, vb.vertices, ib.indices[:count], quads, sx, sy)
	case ProgramMultiTexture:
		d.drawMultiTexture(dst, prog.shader, vb.vertices, ib.indices[:count], quads, sx, sy)
	}
}

func (d *EbitenDevice) drawSprites(dst *ebiten.Image, data []float32, indices []uint16, quads int, sx, sy float32) {
	img := d.textures[d.units[0]]
	if img == nil {
		return
	}
	b := img.Bounds()
	ox, oy := float32(b.Min.X), float32(b.Min.Y)
	w, h := float32(b.Dx()), float32(b.Dy())

	n := quads * verticesPerQuad
	d.verts = d.verts[:0]
	for i := 0; i < n && (i+1)*spriteVertexSize <= len(data); i++ {
		v := data[i*spriteVertexSize:]
		a := v[4]
		d.verts = append(d.verts, ebiten.Vertex{
			DstX:   v[0] * sx,
			DstY:   v[1] * sy,
			SrcX:   ox + v[2]*w,
			SrcY:   oy + v[3]*h,
			ColorR: a,
			ColorG: a,
			ColorB: a,
			ColorA: a,
		})
	}
	d.triOpts.Blend = d.blend.EbitenBlend()
	d.triOpts.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	dst.DrawTriangles(d.verts, indices, img, &d.triOpts)
}

func (d *EbitenDevice) drawMultiTexture(dst *ebiten.Image, shader *ebiten.Shader, data []float32, indices []uint16, quads int, sx, sy float32) {
	if shader == nil {
		return
	}
	// origin x, origin y, width, height per unit
	var frames [MaxTextureUnits][4]float32
	for i, h := range d.units {
		img := d.textures[h]
		d.shaderOps.Images[i] = img
		if img != nil {
			b := img.Bounds()
			frames[i] = [4]float32{float32(b.Min.X), float32(b.Min.Y), float32(b.Dx()), float32(b.Dy())}
		}
	}
	if d.shaderOps.Images[0] == nil {
		return
	}

	n := quads * verticesPerQuad
	d.verts = d.verts[:0]
	for i := 0; i < n && (i+1)*multiVertexSize <= len(data); i++ {
		v := data[i*multiVertexSize:]
		unit := int(v[4])
		if unit < 0 || unit >= MaxTextureUnits {
			unit = 0
		}
		f := frames[unit]
		d.verts = append(d.verts, ebiten.Vertex{
			DstX:   v[0] * sx,
			DstY:   v[1] * sy,
			SrcX:   f[0] + v[2]*f[2],
			SrcY:   f[1] + v[3]*f[3],
			ColorR: v[4],
			ColorA: v[5],
		})
	}
	d.shaderOps.Blend = d.blend.EbitenBlend()
	dst.DrawTrianglesShader(d.verts, indices, shader, &d.shaderOps)
	for i := range d.shaderOps.Images {
		d.shaderOps.Images[i] = nil
	}
}

// Reset forgets every handle. Images the device created and all shaders
// are released.
func (d *EbitenDevice) Reset() {
	for h := range d.owned {
		d.textures[h].Deallocate()
	}
	for _, p := range d.programs {
		if p.shader != nil {
			p.shader.Deallocate()
		}
	}
	d.initTables()
	d.program = 0
	d.blend = BlendNormal
	d.depthMask = true
	d.scissorOn = false
	d.indexBuf = 0
	d.vertexBuf = 0
	d.units = [MaxTextureUnits]TextureHandle{}
}

// DepthMask reports the last depth-write state set by an accumulator.
// Ebitengine has no depth buffer, so the value is only recorded.
func (d *EbitenDevice) DepthMask() bool {
	return d.depthMask
}
