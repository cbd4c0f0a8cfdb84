package rowan

// MaxTextureUnits is the number of textures a MultiTextureBatch keeps bound
// per draw call.
const MaxTextureUnits = 4

// MultiTextureBatch packs quads sampling up to four distinct textures into a
// single draw call. Each vertex carries the texture unit it samples from;
// only a fifth distinct texture forces a flush.
type MultiTextureBatch struct {
	quadBuffer

	stack   [MaxTextureUnits]TextureHandle
	pointer int
}

// NewMultiTextureBatch creates a four-texture accumulator holding size quads.
// A size of zero selects DefaultBatchSize.
func NewMultiTextureBatch(ctx *RenderContext, size int) (*MultiTextureBatch, error) {
	qb, err := newQuadBuffer(ctx, size, multiVertexSize, ProgramMultiTexture)
	if err != nil {
		return nil, err
	}
	return &MultiTextureBatch{quadBuffer: qb}, nil
}

// Begin starts a frame.
func (m *MultiTextureBatch) Begin(vp Viewport) {
	m.begin(vp)
}

// SetBlendMode flushes pending quads when the mode changes. The resident
// texture set survives the flush.
func (m *MultiTextureBatch) SetBlendMode(mode BlendMode) {
	m.setBlendMode(mode, m.Flush)
}

// unitOf returns the unit tex is resident in, or -1.
func (m *MultiTextureBatch) unitOf(tex TextureHandle) int {
	for i := m.pointer - 1; i >= 0; i-- {
		if m.stack[i] == tex {
			return i
		}
	}
	return -1
}

func (m *MultiTextureBatch) resetStack() {
	for i := range m.stack {
		m.stack[i] = 0
	}
	m.pointer = 0
}

// DrawQuad appends q with the unit index of tex. A texture already resident
// reuses its unit; a new one takes the next free unit, or flushes and
// restarts the stack at unit 0 when all four are taken.
func (m *MultiTextureBatch) DrawQuad(tex *Texture, q *Quad) {
	m.checkDrawing()
	if !m.uploaded(tex) {
		return
	}
	if m.full() {
		m.Flush()
	}

	h := tex.Base.handle
	unit := m.unitOf(h)
	if unit < 0 {
		if m.pointer < MaxTextureUnits {
			unit = m.pointer
			m.stack[m.pointer] = h
			m.pointer++
		} else {
			m.Flush()
			m.resetStack()
			m.stack[0] = h
			m.pointer = 1
			unit = 0
		}
	}

	u := float32(unit)
	v := m.vertices[m.idx:]
	for i := 0; i < verticesPerQuad; i++ {
		src := q[i*spriteVertexSize:]
		dst := v[i*multiVertexSize:]
		dst[0] = src[0] // x
		dst[1] = src[1] // y
		dst[2] = src[2] // u
		dst[3] = src[3] // v
		dst[4] = u
		dst[5] = src[4] // alpha
	}
	m.idx += verticesPerQuad * multiVertexSize
}

// Flush submits pending quads as one draw call with every resident unit bound.
func (m *MultiTextureBatch) Flush() {
	if m.pointer == 0 {
		return
	}
	m.submit(func() {
		dev := m.ctx.Device
		// Bind in reverse so unit 0 is the last one touched.
		for i := m.pointer - 1; i >= 0; i-- {
			dev.BindTexture(i, m.stack[i])
		}
	})
}

// End flushes, restores depth writes and clears the texture stack.
func (m *MultiTextureBatch) End() {
	m.end(m.Flush)
	m.resetStack()
}
