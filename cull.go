package rowan

// quadBounds returns the axis-aligned bounding box of the four projected
// corners of q.
func quadBounds(q *Quad) Rect {
	minX, maxX := q[0], q[0]
	minY, maxY := q[1], q[1]
	for i := spriteVertexSize; i < len(q); i += spriteVertexSize {
		x, y := q[i], q[i+1]
		minX = min(minX, x)
		maxX = max(maxX, x)
		minY = min(minY, y)
		maxY = max(maxY, y)
	}
	return Rect{
		X:      float64(minX),
		Y:      float64(minY),
		Width:  float64(maxX - minX),
		Height: float64(maxY - minY),
	}
}

// Culler rejects quads that fall entirely outside a screen-space rectangle.
// The zero value culls nothing.
type Culler struct {
	rect    Rect
	enabled bool
}

// SetRect enables culling against r, or disables it when r is nil.
func (c *Culler) SetRect(r *Rect) {
	if r == nil {
		c.enabled = false
		c.rect = Rect{}
		return
	}
	c.rect = *r
	c.enabled = true
}

// Rect returns the culling rectangle and whether culling is enabled.
func (c *Culler) Rect() (Rect, bool) {
	return c.rect, c.enabled
}

// Culled reports whether the projected quad q of n lies entirely outside the
// culling rectangle. Touching the rectangle's edge counts as inside. It
// never culls when no rectangle is set or n has culling disabled. q must
// already be projected.
func (c *Culler) Culled(n *Node, q *Quad) bool {
	if !c.enabled || !n.CullingEnabled {
		return false
	}
	return !quadBounds(q).Intersects(c.rect)
}
