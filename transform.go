package rowan

import (
	"math"

	"golang.org/x/image/math/f64"
)

// computeLocalTransform computes the local affine matrix from the node's
// transform properties, in f64.Aff3 layout [a, c, tx, b, d, ty].
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
func computeLocalTransform(n *Node) f64.Aff3 {
	sx := n.ScaleX
	sy := n.ScaleY

	sin, cos := math.Sincos(n.Rotation)

	var tanSkewX, tanSkewY float64
	if n.SkewX != 0 {
		tanSkewX = math.Tan(n.SkewX)
	}
	if n.SkewY != 0 {
		tanSkewY = math.Tan(n.SkewY)
	}

	// After Scale * Translate(-pivot) and Skew:
	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	px := n.PivotX
	py := n.PivotY
	preTx := -px*sx - tanSkewX*py*sy
	preTy := -tanSkewY*px*sx - py*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	// After Translate(X, Y):
	return f64.Aff3{ra, rc, rtx + n.X, rb, rd, rty + n.Y}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	| m0 m1 m2 |
//	| m3 m4 m5 |
//	|  0  0  1 |
func multiplyAffine(p, c f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		p[0]*c[0] + p[1]*c[3],
		p[0]*c[1] + p[1]*c[4],
		p[0]*c[2] + p[1]*c[5] + p[2],
		p[3]*c[0] + p[4]*c[3],
		p[3]*c[1] + p[4]*c[4],
		p[3]*c[2] + p[4]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m f64.Aff3) f64.Aff3 {
	det := m[0]*m[4] - m[1]*m[3]
	if det > -1e-12 && det < 1e-12 {
		return identityAff3
	}
	invDet := 1.0 / det
	a := m[4] * invDet
	b := -m[3] * invDet
	c := -m[1] * invDet
	d := m[0] * invDet
	return f64.Aff3{
		a, c, -(a*m[2] + c*m[5]),
		b, d, -(b*m[2] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// updateWorldTransform recomputes a node's worldTransform, worldAlpha and
// worldVisible. parentRecomputed indicates whether the parent was recomputed
// this frame, which forces recomputation of this node even if it's not dirty.
func updateWorldTransform(n *Node, parentTransform f64.Aff3, parentAlpha float64, parentVisible, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}
	n.worldVisible = parentVisible && n.Visible

	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldAlpha, n.worldVisible, recompute)
	}
}

// UpdateTransforms recomputes world transforms, alpha and visibility for the
// subtree rooted at n. When n has a parent, the parent's last computed world
// state is the starting point; otherwise the identity is.
func UpdateTransforms(n *Node) {
	if n.Parent != nil {
		p := n.Parent
		updateWorldTransform(n, p.worldTransform, p.worldAlpha, p.worldVisible, false)
		return
	}
	updateWorldTransform(n, identityAff3, 1, true, false)
}

// updateTransformsWithView is UpdateTransforms for a root drawn through a
// camera: view is the camera's view matrix and forces a full recompute when
// it changed since the last frame.
func updateTransformsWithView(n *Node, view f64.Aff3, viewChanged bool) {
	updateWorldTransform(n, view, 1, true, viewChanged)
}

// --- Transform property setters ---

// SetPosition sets the node's local X and Y and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
	n.transformDirty = true
}

// SetScale sets the node's ScaleX and ScaleY and marks it dirty.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
	n.transformDirty = true
}

// SetRotation sets the node's rotation (in radians) and marks it dirty.
func (n *Node) SetRotation(r float64) {
	n.Rotation = r
	n.transformDirty = true
}

// SetSkew sets the node's SkewX and SkewY and marks it dirty.
func (n *Node) SetSkew(sx, sy float64) {
	n.SkewX = sx
	n.SkewY = sy
	n.transformDirty = true
}

// SetPivot sets the node's PivotX and PivotY and marks it dirty.
func (n *Node) SetPivot(px, py float64) {
	n.PivotX = px
	n.PivotY = py
	n.transformDirty = true
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// WorldTransform returns the matrix computed by the last transform pass.
func (n *Node) WorldTransform() f64.Aff3 {
	return n.worldTransform
}

// WorldAlpha returns the product of this node's and its ancestors' alpha.
func (n *Node) WorldAlpha() float64 {
	return n.worldAlpha
}

// WorldVisible reports whether this node and all its ancestors are visible.
func (n *Node) WorldVisible() bool {
	return n.worldVisible
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.worldTransform, lx, ly)
}
