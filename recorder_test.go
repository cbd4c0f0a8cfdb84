package rowan

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// drawCall is one DrawElements call seen by recordingDevice.
type drawCall struct {
	indices  int
	vertices []float32
	program  ProgramHandle
	blend    BlendMode
	units    [MaxTextureUnits]TextureHandle
	scissor  image.Rectangle
	clipped  bool
}

// recordingDevice is a Device that records calls instead of drawing.
type recordingDevice struct {
	nextID uint32

	buffers  map[BufferHandle][]float32
	indices  map[BufferHandle][]uint16
	textures map[TextureHandle]image.Image
	programs map[ProgramHandle]ProgramKind

	program   ProgramHandle
	blend     BlendMode
	depthMask bool
	scissor   image.Rectangle
	scissorOn bool
	indexBuf  BufferHandle
	vertexBuf BufferHandle
	units     [MaxTextureUnits]TextureHandle

	draws      []drawCall
	created    int
	deleted    int
	resets     int
	programErr error
}

func newRecordingDevice() *recordingDevice {
	d := &recordingDevice{depthMask: true}
	d.initTables()
	return d
}

func (d *recordingDevice) initTables() {
	d.buffers = make(map[BufferHandle][]float32)
	d.indices = make(map[BufferHandle][]uint16)
	d.textures = make(map[TextureHandle]image.Image)
	d.programs = make(map[ProgramHandle]ProgramKind)
}

func (d *recordingDevice) newID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *recordingDevice) CreateBuffer() BufferHandle {
	h := BufferHandle(d.newID())
	d.buffers[h] = nil
	return h
}

func (d *recordingDevice) DeleteBuffer(h BufferHandle) {
	delete(d.buffers, h)
	delete(d.indices, h)
}

func (d *recordingDevice) BufferIndexData(h BufferHandle, data []uint16) {
	d.indices[h] = append([]uint16(nil), data...)
}

func (d *recordingDevice) BufferVertexData(h BufferHandle, data []float32) {
	d.buffers[h] = append([]float32(nil), data...)
}

func (d *recordingDevice) CreateTexture(src image.Image) TextureHandle {
	h := TextureHandle(d.newID())
	d.textures[h] = src
	d.created++
	return h
}

func (d *recordingDevice) DeleteTexture(h TextureHandle) {
	if _, ok := d.textures[h]; ok {
		d.deleted++
	}
	delete(d.textures, h)
}

func (d *recordingDevice) CreateProgram(kind ProgramKind) (ProgramHandle, error) {
	if d.programErr != nil {
		return 0, d.programErr
	}
	h := ProgramHandle(d.newID())
	d.programs[h] = kind
	return h, nil
}

func (d *recordingDevice) DeleteProgram(h ProgramHandle) { delete(d.programs, h) }
func (d *recordingDevice) UseProgram(h ProgramHandle) { d.program = h }
func (d *recordingDevice) SetProjection(Vec2) {}
func (d *recordingDevice) SetBlendMode(m BlendMode) { d.blend = m }
func (d *recordingDevice) SetDepthMask(enabled bool) { d.depthMask = enabled }
func (d *recordingDevice) BindIndexBuffer(h BufferHandle) { d.indexBuf = h }
func (d *recordingDevice) BindVertexBuffer(h BufferHandle) { d.vertexBuf = h }
func (d *recordingDevice) BindTexture(u int, h TextureHandle) { d.units[u] = h }

func (d *recordingDevice) SetScissor(r image.Rectangle, enabled bool) {
	d.scissor = r
	d.scissorOn = enabled
}

func (d *recordingDevice) DrawElements(count int) {
	d.draws = append(d.draws, drawCall{
		indices:  count,
		vertices: d.buffers[d.vertexBuf],
		program:  d.program,
		blend:    d.blend,
		units:    d.units,
		scissor:  d.scissor,
		clipped:  d.scissorOn,
	})
}

func (d *recordingDevice) Reset() {
	d.initTables()
	d.resets++
	d.units = [MaxTextureUnits]TextureHandle{}
}

// quads returns the number of quads each draw call covered.
func (d *recordingDevice) quads() []int {
	out := make([]int, len(d.draws))
	for i, c := range d.draws {
		out[i] = c.indices / indicesPerQuad
	}
	return out
}

var errCompile = errors.New("compile failed")

// --- Fixtures ---

func newTestContext(t *testing.T) (*RenderContext, *recordingDevice) {
	t.Helper()
	dev := newRecordingDevice()
	ctx := newRenderContext(dev)
	if err := ctx.compilePrograms(); err != nil {
		t.Fatalf("compilePrograms: %v", err)
	}
	return ctx, dev
}

func solidImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

// uploadedTexture returns a w×h texture already uploaded through ctx.
func uploadedTexture(ctx *RenderContext, w, h int) *Texture {
	base := NewBaseTexture(solidImage(w, h))
	ctx.Textures.Track(base)
	ctx.Textures.Update()
	return NewTextureFromBase(base)
}

// testQuad returns a quad with every vertex at (x, y).
func testQuad(x, y float32) *Quad {
	var q Quad
	for i := 0; i < verticesPerQuad; i++ {
		q[i*spriteVertexSize+0] = x
		q[i*spriteVertexSize+1] = y
		q[i*spriteVertexSize+4] = 1
	}
	return &q
}
