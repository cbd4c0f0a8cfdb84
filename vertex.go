package rowan

import "golang.org/x/image/math/f64"

// projectQuad writes the four screen-space corners, UVs and alpha of a
// textured rectangle into q.
//
// The rectangle is w×h with its anchor at the local origin, so the corner
// offsets are -w*aX and w*(1-aX) horizontally and -h*aY and h*(1-aY)
// vertically. Corners are written top-left, top-right, bottom-right,
// bottom-left. UVs are the frame divided by the base texture size. Every
// vertex carries the same alpha.
func projectQuad(q *Quad, m f64.Aff3, tex *Texture, anchor Vec2, w, h, alpha float64) {
	w0 := w * (1 - anchor.X)
	w1 := w * -anchor.X
	h0 := h * (1 - anchor.Y)
	h1 := h * -anchor.Y

	a, c, tx := m[0], m[1], m[2]
	b, d, ty := m[3], m[4], m[5]

	var u0, v0, u1, v1 float64
	if bw, bh := float64(tex.Base.Width), float64(tex.Base.Height); bw > 0 && bh > 0 {
		f := tex.Frame
		u0 = f.X / bw
		v0 = f.Y / bh
		u1 = (f.X + f.Width) / bw
		v1 = (f.Y + f.Height) / bh
	}

	al := float32(alpha)

	// top-left
	q[0] = float32(a*w1 + c*h1 + tx)
	q[1] = float32(b*w1 + d*h1 + ty)
	q[2] = float32(u0)
	q[3] = float32(v0)
	q[4] = al

	// top-right
	q[5] = float32(a*w0 + c*h1 + tx)
	q[6] = float32(b*w0 + d*h1 + ty)
	q[7] = float32(u1)
	q[8] = float32(v0)
	q[9] = al

	// bottom-right
	q[10] = float32(a*w0 + c*h0 + tx)
	q[11] = float32(b*w0 + d*h0 + ty)
	q[12] = float32(u1)
	q[13] = float32(v1)
	q[14] = al

	// bottom-left
	q[15] = float32(a*w1 + c*h0 + tx)
	q[16] = float32(b*w1 + d*h0 + ty)
	q[17] = float32(u0)
	q[18] = float32(v1)
	q[19] = al
}

// displaySize returns the sprite's drawn size: the Width/Height overrides
// when set, the texture frame otherwise.
func (n *Node) displaySize() (w, h float64) {
	w, h = n.Width, n.Height
	if n.texture != nil {
		if w == 0 {
			w = n.texture.Frame.Width
		}
		if h == 0 {
			h = n.texture.Frame.Height
		}
	}
	return w, h
}

// updateQuad projects the sprite into its reusable quad buffer from the
// world state computed by the last transform pass.
func (n *Node) updateQuad() *Quad {
	w, h := n.displaySize()
	projectQuad(&n.quad, n.worldTransform, n.texture, n.Anchor, w, h, n.worldAlpha)
	return &n.quad
}

// Quad returns the vertices computed for the last rendered frame.
func (n *Node) Quad() Quad {
	return n.quad
}
